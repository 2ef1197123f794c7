package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

var (
	ErrOpportunityNotFound  = errors.New("opportunity not found")
	ErrDuplicateOpportunity = errors.New("opportunity with the same fingerprint already exists")
)

const uniqueViolation = "23505"

// OpportunityRepository persists discovered opportunities
type OpportunityRepository struct {
	pool DatabasePool
}

// NewOpportunityRepository creates a new opportunity repository.
func NewOpportunityRepository(pool DatabasePool) *OpportunityRepository {
	return &OpportunityRepository{pool: pool}
}

const opportunityColumns = `id, cluster_id, title, description, problem_statement, proposed_solution,
		ai_solution_types, target_industries, confidence_score, market_validation_score,
		ai_feasibility_score, market_signals, fingerprint, status, created_at`

// Insert writes the opportunity and fills CreatedAt from the database. A fingerprint
// collision returns ErrDuplicateOpportunity.
func (r *OpportunityRepository) Insert(ctx context.Context, opp *models.Opportunity) error {
	query := `
		INSERT INTO opportunities (
			id, cluster_id, title, description, problem_statement, proposed_solution,
			ai_solution_types, target_industries, confidence_score, market_validation_score,
			ai_feasibility_score, market_signals, fingerprint, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		opp.ID,
		opp.ClusterID,
		opp.Title,
		opp.Description,
		opp.ProblemStatement,
		opp.ProposedSolution,
		opp.AISolutionTypes,
		opp.TargetIndustries,
		decimal.NewFromFloat(opp.ConfidenceScore).Round(3),
		decimal.NewFromFloat(opp.MarketValidationScore).Round(2),
		decimal.NewFromFloat(opp.AIFeasibilityScore).Round(2),
		opp.MarketSignals,
		opp.Fingerprint,
		string(opp.Status),
	).Scan(&opp.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateOpportunity
		}
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}

	return nil
}

// ExistsByFingerprint reports whether an opportunity with the fingerprint is stored
func (r *OpportunityRepository) ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM opportunities WHERE fingerprint = $1)`,
		fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check opportunity fingerprint: %w", err)
	}
	return exists, nil
}

// GetByID returns ErrOpportunityNotFound when no row matches
func (r *OpportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)

	opp, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity %s: %w", id, err)
	}
	return opp, nil
}

// List returns opportunities newest first
func (r *OpportunityRepository) List(ctx context.Context, limit, offset int) ([]models.Opportunity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	opportunities := []models.Opportunity{}
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, *opp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity rows: %w", err)
	}

	return opportunities, nil
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var (
		opp                              models.Opportunity
		status                           string
		confidence, validation, feasible decimal.Decimal
	)
	err := row.Scan(
		&opp.ID, &opp.ClusterID, &opp.Title, &opp.Description, &opp.ProblemStatement, &opp.ProposedSolution,
		&opp.AISolutionTypes, &opp.TargetIndustries, &confidence, &validation,
		&feasible, &opp.MarketSignals, &opp.Fingerprint, &status, &opp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	opp.Status = models.OpportunityStatus(status)
	opp.ConfidenceScore = confidence.InexactFloat64()
	opp.MarketValidationScore = validation.InexactFloat64()
	opp.AIFeasibilityScore = feasible.InexactFloat64()
	return &opp, nil
}
