package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/services"
)

const maxSignalBatch = 1000

// SignalIngester stores submitted signals for the next discovery run
type SignalIngester interface {
	IngestSignals(ctx context.Context, raws []models.MarketSignal) (*services.IngestResult, error)
}

type SignalHandler struct {
	ingester SignalIngester
}

// SignalBatchRequest is the body of the ingestion and preview endpoints
type SignalBatchRequest struct {
	Signals []models.MarketSignal `json:"signals"`
}

type IngestResponse struct {
	*services.IngestResult
	Timestamp time.Time `json:"timestamp"`
}

func NewSignalHandler(ingester SignalIngester) *SignalHandler {
	return &SignalHandler{ingester: ingester}
}

// IngestSignals handles POST /api/v1/signals
func (h *SignalHandler) IngestSignals(c *gin.Context) {
	signals, ok := bindSignalBatch(c)
	if !ok {
		return
	}

	result, err := h.ingester.IngestSignals(c.Request.Context(), signals)
	if err != nil {
		respondError(c, err, "Failed to ingest signals")
		return
	}

	c.JSON(http.StatusCreated, IngestResponse{IngestResult: result, Timestamp: time.Now()})
}

// bindSignalBatch decodes a signal batch, writing a 400 response when it is unusable
func bindSignalBatch(c *gin.Context) ([]models.MarketSignal, bool) {
	var req SignalBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return nil, false
	}
	if len(req.Signals) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signals must not be empty"})
		return nil, false
	}
	if len(req.Signals) > maxSignalBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many signals in one request", "max": maxSignalBatch})
		return nil, false
	}
	return req.Signals, true
}
