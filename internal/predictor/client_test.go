package predictor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/solarml/internal/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPredictRelaysBody(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"prediction": 1234.5}`)
	}))
	defer srv.Close()

	client := predictor.NewClient(srv.URL, 2*time.Second, discardLogger(), nil)

	raw, err := client.Predict(context.Background(), predictor.Features{
		"Is Daylight":               true,
		"Average Temperature (Day)": 21.4,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"prediction": 1234.5}`, string(raw))
	assert.Equal(t, 21.4, gotBody["Average Temperature (Day)"])
}

func TestPredictUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error": "missing feature"}`)
	}))
	defer srv.Close()

	client := predictor.NewClient(srv.URL, 2*time.Second, discardLogger(), nil)

	_, err := client.Predict(context.Background(), predictor.Features{})
	require.Error(t, err)

	var svcErr *predictor.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusUnprocessableEntity, svcErr.StatusCode)
	assert.JSONEq(t, `{"error": "missing feature"}`, svcErr.Body)
}

func TestPredictBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var features map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&features))

		// echo the day index back so the test can check ordering
		fmt.Fprintf(w, `{"prediction": %v}`, features["day"])
	}))
	defer srv.Close()

	client := predictor.NewClient(srv.URL, 2*time.Second, discardLogger(), nil)

	days := make([]predictor.Features, 8)
	for i := range days {
		days[i] = predictor.Features{"day": i}
	}

	results, err := client.PredictBatch(context.Background(), days)
	require.NoError(t, err)
	require.Len(t, results, len(days))

	for i, raw := range results {
		assert.JSONEq(t, fmt.Sprintf(`{"prediction": %d}`, i), string(raw))
	}
}

func TestPredictBatchSingleFailureFailsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var features map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&features))

		if features["day"] == float64(2) {
			http.Error(w, "model blew up", http.StatusInternalServerError)
			return
		}

		fmt.Fprint(w, `{"prediction": 1}`)
	}))
	defer srv.Close()

	client := predictor.NewClient(srv.URL, 2*time.Second, discardLogger(), nil)

	days := []predictor.Features{
		{"day": 0}, {"day": 1}, {"day": 2}, {"day": 3},
	}

	results, err := client.PredictBatch(context.Background(), days)
	require.Error(t, err)
	assert.Nil(t, results, "no partial result on failure")

	var svcErr *predictor.ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestPredictTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	client := predictor.NewClient(srv.URL, time.Second, discardLogger(), nil)

	_, err := client.Predict(context.Background(), predictor.Features{})
	require.Error(t, err)

	var svcErr *predictor.ServiceError
	assert.False(t, errors.As(err, &svcErr), "transport errors are not upstream errors")
}
