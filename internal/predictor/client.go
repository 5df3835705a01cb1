package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/solarml/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Features is one day of weather features, forwarded to the model unchanged.
// The keys are the model's CSV-derived column names ("Is Daylight",
// "Average Temperature (Day)", ...), so the payload stays opaque here.
type Features map[string]any

// ServiceError carries the upstream status and body through to the handler,
// which relays them instead of synthesizing a result.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("prediction service: status %d: %s", e.StatusCode, e.Body)
}

// Client calls the external ML prediction service. The base URL and timeout
// come from config so tests can point it at a fake.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	prom       *observability.Prom
}

// NewClient builds a predictor client. prom may be nil in tests.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, prom *observability.Prom) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		prom:   prom,
	}
}

func (c *Client) countCall(result string) {
	if c.prom != nil {
		c.prom.PredictionCallsTotal.WithLabelValues(result).Inc()
	}
}

// Predict forwards one feature payload to the model's /predict endpoint and
// relays the raw response body.
func (c *Client) Predict(ctx context.Context, features Features) (json.RawMessage, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.countCall("transport_error")
		return nil, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countCall("transport_error")
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.countCall("upstream_error")
		c.logger.Warn("prediction upstream error", "status", resp.StatusCode)
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.countCall("ok")
	return json.RawMessage(body), nil
}

// PredictBatch fans out one request per day, concurrently, and assembles the
// responses in input order. A single failing call fails the whole batch; no
// partial result is returned.
func (c *Client) PredictBatch(ctx context.Context, days []Features) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(days))

	g, gctx := errgroup.WithContext(ctx)

	for i, day := range days {
		g.Go(func() error {
			res, err := c.Predict(gctx, day)
			if err != nil {
				return err
			}

			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
