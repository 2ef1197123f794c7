package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSignalIngester struct {
	mock.Mock
}

func (m *MockSignalIngester) IngestSignals(ctx context.Context, raws []models.MarketSignal) (*services.IngestResult, error) {
	args := m.Called(ctx, raws)
	result, _ := args.Get(0).(*services.IngestResult)
	return result, args.Error(1)
}

type MockOpportunityReader struct {
	mock.Mock
}

func (m *MockOpportunityReader) Preview(raws []models.MarketSignal) (services.DiscoveryBatch, []services.RejectedSignal) {
	args := m.Called(raws)
	rejected, _ := args.Get(1).([]services.RejectedSignal)
	return args.Get(0).(services.DiscoveryBatch), rejected
}

func (m *MockOpportunityReader) ListOpportunities(ctx context.Context, limit, offset int) ([]models.Opportunity, error) {
	args := m.Called(ctx, limit, offset)
	opps, _ := args.Get(0).([]models.Opportunity)
	return opps, args.Error(1)
}

func (m *MockOpportunityReader) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	args := m.Called(ctx, id)
	opp, _ := args.Get(0).(*models.Opportunity)
	return opp, args.Error(1)
}

type MockDiscoveryTrigger struct {
	mock.Mock
}

func (m *MockDiscoveryTrigger) RunNow(ctx context.Context) (*services.DiscoveryResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*services.DiscoveryResult)
	return result, args.Error(1)
}

// performRequest serves one request through a router with the handler mounted at path
func performRequest(method, path, target string, body interface{}, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, path, handler)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
