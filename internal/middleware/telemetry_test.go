package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/justQrius/ai-opportunity-browser/internal/metrics"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestTelemetryMiddleware_TracesAPIRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := setupRecorder(t)
	collector := metrics.NewCollector()

	router := gin.New()
	router.Use(TelemetryMiddleware(collector))
	router.GET("/api/v1/opportunities/:id", func(c *gin.Context) {
		AddSpanAttribute(c, "opportunity.id", c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/abc", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "HTTP GET /api/v1/opportunities/:id", spans[0].Name())
	}

	count := testutil.CollectAndCount(collector.Registry(), "opportunity_browser_http_requests_total")
	assert.Equal(t, 1, count)
}

func TestTelemetryMiddleware_SkipsProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := setupRecorder(t)

	router := gin.New()
	router.Use(TelemetryMiddleware(nil))
	for _, path := range []string{"/health", "/ready"} {
		router.GET(path, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, recorder.Ended())
}

func TestTelemetryMiddleware_ServerErrorMarksSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := setupRecorder(t)

	router := gin.New()
	router.Use(TelemetryMiddleware(nil))
	router.POST("/api/v1/opportunities/discover", func(c *gin.Context) {
		err := errors.New("database unavailable")
		RecordError(c, err, "discovery failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/opportunities/discover", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "Error", spans[0].Status().Code.String())
		assert.NotEmpty(t, spans[0].Events())
	}
}

func TestAddSpanAttribute_NoActiveSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.NotPanics(t, func() {
		AddSpanAttribute(c, "count", 3)
		AddSpanAttribute(c, "ratio", 0.5)
		AddSpanAttribute(c, "other", []string{"a"})
		RecordError(c, errors.New("x"), "x")
	})
}
