package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS market_signals (
		signal_id          TEXT PRIMARY KEY,
		content            TEXT NOT NULL,
		signal_type        TEXT NOT NULL,
		source             TEXT NOT NULL,
		engagement_metrics JSONB NOT NULL DEFAULT '{}'::jsonb,
		ai_relevance_score NUMERIC(5,2) NOT NULL DEFAULT 0,
		confidence         NUMERIC(4,3) NOT NULL DEFAULT 0,
		sentiment_score    NUMERIC(4,3) NOT NULL DEFAULT 0,
		processed_at       TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_signals_unprocessed
		ON market_signals (created_at, signal_id) WHERE processed_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS opportunities (
		id                      UUID PRIMARY KEY,
		cluster_id              TEXT NOT NULL,
		title                   TEXT NOT NULL,
		description             TEXT NOT NULL,
		problem_statement       TEXT NOT NULL,
		proposed_solution       TEXT NOT NULL,
		ai_solution_types       TEXT[] NOT NULL,
		target_industries       TEXT[] NOT NULL DEFAULT '{}',
		confidence_score        NUMERIC(4,3) NOT NULL,
		market_validation_score NUMERIC(5,2) NOT NULL,
		ai_feasibility_score    NUMERIC(5,2) NOT NULL,
		market_signals          TEXT[] NOT NULL,
		fingerprint             TEXT NOT NULL UNIQUE,
		status                  TEXT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_created_at ON opportunities (created_at DESC)`,
}

// EnsureSchema creates the tables the service needs when they do not exist yet
func EnsureSchema(ctx context.Context, pool DatabasePool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
