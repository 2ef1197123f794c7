package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

// SignalRepository stores ingested market signals until a discovery run consumes them
type SignalRepository struct {
	pool DatabasePool
}

// NewSignalRepository creates a new signal repository.
func NewSignalRepository(pool DatabasePool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// Insert stores a signal. It reports false when a signal with the same id already exists.
func (r *SignalRepository) Insert(ctx context.Context, signal models.MarketSignal) (bool, error) {
	engagement, err := json.Marshal(signal.EngagementMetrics)
	if err != nil {
		return false, fmt.Errorf("failed to encode engagement metrics for signal %s: %w", signal.SignalID, err)
	}

	createdAt := signal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO market_signals (
			signal_id, content, signal_type, source, engagement_metrics,
			ai_relevance_score, confidence, sentiment_score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (signal_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		signal.SignalID,
		signal.Content,
		string(signal.SignalType),
		signal.Source,
		engagement,
		decimal.NewFromFloat(signal.AIRelevanceScore).Round(2),
		decimal.NewFromFloat(signal.Confidence).Round(3),
		decimal.NewFromFloat(signal.SentimentScore).Round(3),
		createdAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert signal %s: %w", signal.SignalID, err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListUnprocessed returns signals not yet consumed by discovery, oldest first
func (r *SignalRepository) ListUnprocessed(ctx context.Context, limit int) ([]models.MarketSignal, error) {
	query := `
		SELECT signal_id, content, signal_type, source, engagement_metrics,
		       ai_relevance_score, confidence, sentiment_score, created_at
		FROM market_signals
		WHERE processed_at IS NULL
		ORDER BY created_at ASC, signal_id ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed signals: %w", err)
	}
	defer rows.Close()

	signals := []models.MarketSignal{}
	for rows.Next() {
		var (
			s                     models.MarketSignal
			signalType            string
			engagement            []byte
			relevance, conf, sent decimal.Decimal
		)
		if err := rows.Scan(
			&s.SignalID, &s.Content, &signalType, &s.Source, &engagement,
			&relevance, &conf, &sent, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}

		s.SignalType = models.SignalType(signalType)
		s.AIRelevanceScore = relevance.InexactFloat64()
		s.Confidence = conf.InexactFloat64()
		s.SentimentScore = sent.InexactFloat64()
		if len(engagement) > 0 {
			if err := json.Unmarshal(engagement, &s.EngagementMetrics); err != nil {
				return nil, fmt.Errorf("failed to decode engagement metrics for signal %s: %w", s.SignalID, err)
			}
		}
		signals = append(signals, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}

	return signals, nil
}

// MarkProcessed flags the given signals as consumed and returns how many rows changed
func (r *SignalRepository) MarkProcessed(ctx context.Context, signalIDs []string) (int64, error) {
	if len(signalIDs) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE market_signals SET processed_at = NOW() WHERE signal_id = ANY($1) AND processed_at IS NULL`,
		signalIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark %d signals processed: %w", len(signalIDs), err)
	}

	return tag.RowsAffected(), nil
}
