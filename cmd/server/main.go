package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justQrius/ai-opportunity-browser/internal/api"
	"github.com/justQrius/ai-opportunity-browser/internal/api/handlers"
	"github.com/justQrius/ai-opportunity-browser/internal/cache"
	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/database"
	"github.com/justQrius/ai-opportunity-browser/internal/logging"
	"github.com/justQrius/ai-opportunity-browser/internal/metrics"
	"github.com/justQrius/ai-opportunity-browser/internal/services"
	"github.com/justQrius/ai-opportunity-browser/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	// Initialize telemetry first so every component picks up the global provider
	provider, err := telemetry.InitTelemetry(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownWithTimeout(logger, "telemetry", provider.Shutdown)

	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == "otlp" {
		logProvider, err := logging.NewOTLPProvider(ctx, logging.OTLPConfig{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Environment,
		})
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize OTLP log export")
		} else {
			logger.AddHook(logProvider.Hook())
			defer shutdownWithTimeout(logger, "otlp logs", logProvider.Shutdown)
		}
	}

	collector := metrics.NewCollector()

	// Initialize database
	db, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	pool := database.NewTracedPool(db.Pool)
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to prepare database schema: %w", err)
	}

	// Redis only backs the fingerprint cache; discovery falls back to the database without it
	var fingerprints services.FingerprintCache
	var redisHealth handlers.HealthChecker
	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("Failed to connect to Redis - continuing without fingerprint cache")
	} else {
		defer redisClient.Close()
		fingerprints = cache.NewOpportunityFingerprintCache(redisClient.Client, cfg.Discovery.DedupTTLDuration())
		redisHealth = redisClient
	}

	engine, err := services.NewOpportunityEngine(cfg.Engine)
	if err != nil {
		return err
	}

	notifier, err := services.NewNotificationService(cfg.Telegram, logger, collector)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	if !notifier.Enabled() {
		logger.Info("Telegram notifications disabled: bot token or chat id not configured")
	}

	opportunityService := services.NewOpportunityService(services.OpportunityServiceDeps{
		Engine:        engine,
		Signals:       database.NewSignalRepository(pool),
		Opportunities: database.NewOpportunityRepository(pool),
		Fingerprints:  fingerprints,
		Notifier:      notifier,
		Metrics:       collector,
		Logger:        logger,
	}, cfg.Discovery)

	scheduler := services.NewDiscoveryScheduler(opportunityService, cfg.Discovery.Schedule, logger)
	if cfg.Discovery.Enabled {
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start discovery scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	if cfg.Cleanup.Enabled {
		cleanupService := services.NewCleanupService(pool, cfg.Cleanup, logger)
		cleanupService.Start()
		defer cleanupService.Stop()
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Dependencies{
		ServiceName:   cfg.Telemetry.ServiceName,
		Version:       cfg.Telemetry.ServiceVersion,
		Database:      db,
		Redis:         redisHealth,
		Signals:       opportunityService,
		Opportunities: opportunityService,
		Discovery:     scheduler,
		Metrics:       collector,
	})

	srv := newHTTPServer(cfg.Server.Port, router)

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a server failure
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
}

func shutdownWithTimeout(logger *logrus.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logging.WithComponent(logger, name).WithError(err).Warn("Shutdown failed")
	}
}
