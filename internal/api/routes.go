package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/justQrius/ai-opportunity-browser/internal/api/handlers"
	"github.com/justQrius/ai-opportunity-browser/internal/metrics"
	"github.com/justQrius/ai-opportunity-browser/internal/middleware"
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	ServiceName   string
	Version       string
	Database      handlers.HealthChecker
	Redis         handlers.HealthChecker
	Signals       handlers.SignalIngester
	Opportunities handlers.OpportunityReader
	Discovery     handlers.DiscoveryTrigger
	Metrics       *metrics.Collector
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = "ai-opportunity-browser"
	}

	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.TelemetryMiddleware(deps.Metrics))

	healthHandler := handlers.NewHealthHandler(deps.Database, deps.Redis, deps.Version)
	signalHandler := handlers.NewSignalHandler(deps.Signals)
	opportunityHandler := handlers.NewOpportunityHandler(deps.Opportunities, deps.Discovery)

	// Probes and metrics
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		signals := v1.Group("/signals")
		{
			signals.POST("", signalHandler.IngestSignals)
		}

		opportunities := v1.Group("/opportunities")
		{
			opportunities.GET("", opportunityHandler.GetOpportunities)
			opportunities.GET("/:id", opportunityHandler.GetOpportunity)
			opportunities.POST("/preview", opportunityHandler.PreviewOpportunities)
			opportunities.POST("/discover", opportunityHandler.DiscoverOpportunities)
		}
	}
}
