package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/database"
)

// CleanupService removes processed market signals once they fall out of the retention window.
// Pending signals and opportunities are never deleted.
type CleanupService struct {
	db     database.DatabasePool
	config config.CleanupConfig
	logger *logrus.Logger
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(db database.DatabasePool, cfg config.CleanupConfig, logger *logrus.Logger) *CleanupService {
	if cfg.SignalRetentionHours <= 0 {
		cfg.SignalRetentionHours = 168
	}
	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 60
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the cleanup service with periodic cleanup
func (c *CleanupService) Start() {
	c.logger.WithFields(logrus.Fields{
		"signal_retention_hours": c.config.SignalRetentionHours,
		"interval_minutes":       c.config.IntervalMinutes,
	}).Info("Starting cleanup service")

	ticker := time.NewTicker(time.Duration(c.config.IntervalMinutes) * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.RunCleanup(c.ctx); err != nil {
					c.logger.WithError(err).Error("Cleanup failed")
				}
			}
		}
	}()
}

// Stop stops the cleanup service
func (c *CleanupService) Stop() {
	c.logger.Info("Stopping cleanup service")
	c.cancel()
}

// RunCleanup deletes processed signals older than the retention window and returns how many
// were removed
func (c *CleanupService) RunCleanup(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-time.Duration(c.config.SignalRetentionHours) * time.Hour)

	result, err := c.db.Exec(ctx,
		"DELETE FROM market_signals WHERE processed_at IS NOT NULL AND processed_at < $1",
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed signals: %w", err)
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected > 0 {
		c.logger.WithFields(logrus.Fields{
			"deleted": rowsAffected,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Cleaned up processed market signals")
	}

	return rowsAffected, nil
}

// GetDataStats returns row counts for the stored signals and opportunities
func (c *CleanupService) GetDataStats(ctx context.Context) (map[string]int64, error) {
	var pending, processed, opportunities int64
	err := c.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM market_signals WHERE processed_at IS NULL),
			(SELECT COUNT(*) FROM market_signals WHERE processed_at IS NOT NULL),
			(SELECT COUNT(*) FROM opportunities)`).Scan(&pending, &processed, &opportunities)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored data: %w", err)
	}

	return map[string]int64{
		"pending_signals":   pending,
		"processed_signals": processed,
		"opportunities":     opportunities,
	}, nil
}
