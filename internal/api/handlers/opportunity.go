package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/justQrius/ai-opportunity-browser/internal/database"
	"github.com/justQrius/ai-opportunity-browser/internal/middleware"
	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/services"
	"github.com/justQrius/ai-opportunity-browser/internal/utils"
)

// OpportunityReader is the read and preview side of the opportunity service
type OpportunityReader interface {
	Preview(raws []models.MarketSignal) (services.DiscoveryBatch, []services.RejectedSignal)
	ListOpportunities(ctx context.Context, limit, offset int) ([]models.Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error)
}

// DiscoveryTrigger starts an immediate discovery run over pending signals
type DiscoveryTrigger interface {
	RunNow(ctx context.Context) (*services.DiscoveryResult, error)
}

type OpportunityHandler struct {
	reader  OpportunityReader
	trigger DiscoveryTrigger
}

// PreviewResponse is returned by the preview endpoint; nothing in it is persisted
type PreviewResponse struct {
	Clusters   []models.SignalCluster        `json:"clusters"`
	Candidates []models.OpportunityCandidate `json:"candidates"`
	Rejected   []services.RejectedSignal     `json:"rejected"`
	Timestamp  time.Time                     `json:"timestamp"`
}

func NewOpportunityHandler(reader OpportunityReader, trigger DiscoveryTrigger) *OpportunityHandler {
	return &OpportunityHandler{reader: reader, trigger: trigger}
}

// PreviewOpportunities handles POST /api/v1/opportunities/preview
func (h *OpportunityHandler) PreviewOpportunities(c *gin.Context) {
	signals, ok := bindSignalBatch(c)
	if !ok {
		return
	}

	batch, rejected := h.reader.Preview(signals)
	middleware.AddSpanAttribute(c, "discovery.candidate_count", len(batch.Candidates))

	c.JSON(http.StatusOK, PreviewResponse{
		Clusters:   batch.Clusters,
		Candidates: batch.Candidates,
		Rejected:   rejected,
		Timestamp:  time.Now(),
	})
}

// DiscoverOpportunities handles POST /api/v1/opportunities/discover
func (h *OpportunityHandler) DiscoverOpportunities(c *gin.Context) {
	result, err := h.trigger.RunNow(c.Request.Context())
	if errors.Is(err, services.ErrDiscoveryInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to run discovery")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOpportunities handles GET /api/v1/opportunities
func (h *OpportunityHandler) GetOpportunities(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter (1-100)"})
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}

	opportunities, err := h.reader.ListOpportunities(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list opportunities")
		return
	}

	c.JSON(http.StatusOK, models.OpportunitiesResponse{
		Opportunities: opportunities,
		Count:         len(opportunities),
		Limit:         limit,
		Offset:        offset,
		Timestamp:     time.Now(),
	})
}

// GetOpportunity handles GET /api/v1/opportunities/:id
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid opportunity id"})
		return
	}

	opportunity, err := h.reader.GetOpportunity(c.Request.Context(), id)
	if errors.Is(err, database.ErrOpportunityNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Opportunity not found"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to get opportunity")
		return
	}

	c.JSON(http.StatusOK, opportunity)
}

// respondError maps validation errors to 400 and everything else to 500
func respondError(c *gin.Context, err error, message string) {
	if utils.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	middleware.RecordError(c, err, message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
