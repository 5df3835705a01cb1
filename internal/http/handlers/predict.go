package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/geocoder89/solarml/internal/predictor"
	"github.com/gin-gonic/gin"
)

type PredictionClient interface {
	Predict(ctx context.Context, features predictor.Features) (json.RawMessage, error)
	PredictBatch(ctx context.Context, days []predictor.Features) ([]json.RawMessage, error)
}

// PredictHandler is a thin proxy in front of the ML service. It validates
// nothing about the feature payload beyond its JSON shape; the model owns the
// field list.
type PredictHandler struct {
	client PredictionClient
}

func NewPredictHandler(client PredictionClient) *PredictHandler {
	return &PredictHandler{client: client}
}

func (h *PredictHandler) Single(ctx *gin.Context) {
	var features predictor.Features

	if err := ctx.ShouldBindJSON(&features); err != nil || len(features) == 0 {
		RespondBadRequest(ctx, "invalid_input_shape", "Request body must be a non-empty JSON object")
		return
	}

	res, err := h.client.Predict(ctx.Request.Context(), features)

	if err != nil {
		respondPredictionError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "application/json", res)
}

// Forecast fans the per-day payloads out to the model and returns the
// predictions in input order. Any failing sub-call fails the whole batch.
func (h *PredictHandler) Forecast(ctx *gin.Context) {
	var days []predictor.Features

	if err := ctx.ShouldBindJSON(&days); err != nil || len(days) == 0 {
		RespondBadRequest(ctx, "invalid_input_shape", "Request body must be a non-empty JSON array")
		return
	}

	results, err := h.client.PredictBatch(ctx.Request.Context(), days)

	if err != nil {
		respondPredictionError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"predictions": results,
	})
}

func respondPredictionError(ctx *gin.Context, err error) {
	var svcErr *predictor.ServiceError

	if errors.As(err, &svcErr) {
		RespondUpstream(ctx, "Prediction service returned an error", gin.H{
			"status": svcErr.StatusCode,
			"body":   svcErr.Body,
		})
		return
	}

	RespondUpstream(ctx, "Prediction service is unreachable", nil)
}
