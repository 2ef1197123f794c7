package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/database"
	"github.com/justQrius/ai-opportunity-browser/internal/metrics"
	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/telemetry"
)

const (
	TriggerAPI       = "api"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"

	defaultBatchSize = 500
)

// SignalStore persists raw market signals awaiting discovery
type SignalStore interface {
	Insert(ctx context.Context, signal models.MarketSignal) (bool, error)
	ListUnprocessed(ctx context.Context, limit int) ([]models.MarketSignal, error)
	MarkProcessed(ctx context.Context, signalIDs []string) (int64, error)
}

// OpportunityStore persists discovered opportunities
type OpportunityStore interface {
	Insert(ctx context.Context, opp *models.Opportunity) error
	ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
	List(ctx context.Context, limit, offset int) ([]models.Opportunity, error)
}

// FingerprintCache is a fast, lossy view over the fingerprints already persisted
type FingerprintCache interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Remember(ctx context.Context, fingerprint, opportunityID string) error
}

// IngestResult reports what happened to a submitted batch of signals
type IngestResult struct {
	Accepted   int              `json:"accepted"`
	Duplicates int              `json:"duplicates"`
	Rejected   []RejectedSignal `json:"rejected"`
}

// DiscoveryResult is the outcome of a discovery run including persistence
type DiscoveryResult struct {
	Trigger       string                        `json:"trigger"`
	SignalCount   int                           `json:"signal_count"`
	Clusters      []models.SignalCluster        `json:"clusters"`
	Candidates    []models.OpportunityCandidate `json:"candidates"`
	Opportunities []models.Opportunity          `json:"opportunities"`
	Duplicates    int                           `json:"duplicates"`
	Notified      int                           `json:"notified"`
	Duration      time.Duration                 `json:"duration_ns"`
}

// OpportunityServiceDeps groups the collaborators of the service. Fingerprints, Notifier and
// Metrics are optional.
type OpportunityServiceDeps struct {
	Engine        *OpportunityEngine
	Signals       SignalStore
	Opportunities OpportunityStore
	Fingerprints  FingerprintCache
	Notifier      Notifier
	Metrics       *metrics.Collector
	Logger        *logrus.Logger
}

// OpportunityService ties the engine to storage, deduplication and notifications
type OpportunityService struct {
	engine        *OpportunityEngine
	ingestor      *SignalIngestor
	signals       SignalStore
	opportunities OpportunityStore
	fingerprints  FingerprintCache
	notifier      Notifier
	metrics       *metrics.Collector
	tracer        *telemetry.BusinessTracer
	logger        *logrus.Logger
	batchSize     int

	now   func() time.Time
	newID func() string
}

// NewOpportunityService creates the service
func NewOpportunityService(deps OpportunityServiceDeps, discovery config.DiscoveryConfig) *OpportunityService {
	batchSize := discovery.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &OpportunityService{
		engine:        deps.Engine,
		ingestor:      NewSignalIngestor(),
		signals:       deps.Signals,
		opportunities: deps.Opportunities,
		fingerprints:  deps.Fingerprints,
		notifier:      deps.Notifier,
		metrics:       deps.Metrics,
		tracer:        telemetry.NewBusinessTracer(),
		logger:        deps.Logger,
		batchSize:     batchSize,
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
}

// IngestSignals normalizes and stores a batch of raw signals. Signals whose id is already
// stored are counted as duplicates.
func (s *OpportunityService) IngestSignals(ctx context.Context, raws []models.MarketSignal) (*IngestResult, error) {
	accepted, rejected := s.ingestor.NormalizeBatch(raws)
	result := &IngestResult{Rejected: rejected}

	for _, signal := range accepted {
		inserted, err := s.signals.Insert(ctx, signal)
		if err != nil {
			return nil, fmt.Errorf("failed to store signal %s: %w", signal.SignalID, err)
		}
		if inserted {
			result.Accepted++
		} else {
			result.Duplicates++
		}
	}

	s.metrics.RecordIngestion(result.Accepted, len(rejected))
	s.logger.WithFields(logrus.Fields{
		"accepted":   result.Accepted,
		"duplicates": result.Duplicates,
		"rejected":   len(rejected),
	}).Info("Ingested market signals")

	return result, nil
}

// Preview runs the engine over normalized signals with no side effects
func (s *OpportunityService) Preview(raws []models.MarketSignal) (DiscoveryBatch, []RejectedSignal) {
	signals, rejected := s.ingestor.NormalizeBatch(raws)
	return s.engine.Discover(signals), rejected
}

// Discover runs the engine over the signals, persists candidates not seen before and
// announces the new opportunities
func (s *OpportunityService) Discover(ctx context.Context, trigger string, signals []models.MarketSignal) (*DiscoveryResult, error) {
	start := s.now()
	ctx, span := s.tracer.TraceDiscovery(ctx, trigger, len(signals))
	defer span.End()

	batch := s.engine.Discover(signals)
	result := &DiscoveryResult{
		Trigger:       trigger,
		SignalCount:   len(signals),
		Clusters:      batch.Clusters,
		Candidates:    batch.Candidates,
		Opportunities: []models.Opportunity{},
	}

	for i := range batch.Candidates {
		candidate := batch.Candidates[i]

		duplicate, err := s.isDuplicate(ctx, candidate.Fingerprint)
		if err != nil {
			telemetry.RecordError(span, err, "duplicate check failed")
			s.metrics.RecordDiscovery(trigger, len(signals), len(batch.Clusters), len(batch.Candidates), time.Since(start), err)
			return nil, err
		}
		if duplicate {
			result.Duplicates++
			continue
		}

		opp := s.toOpportunity(candidate)
		if err := s.opportunities.Insert(ctx, opp); err != nil {
			if errors.Is(err, database.ErrDuplicateOpportunity) {
				result.Duplicates++
				continue
			}
			telemetry.RecordError(span, err, "persist opportunity failed")
			s.metrics.RecordDiscovery(trigger, len(signals), len(batch.Clusters), len(batch.Candidates), time.Since(start), err)
			return nil, fmt.Errorf("failed to persist opportunity: %w", err)
		}
		s.rememberFingerprint(ctx, opp)
		result.Opportunities = append(result.Opportunities, *opp)
	}

	if s.notifier != nil && len(result.Opportunities) > 0 {
		notified, err := s.notifier.NotifyOpportunities(ctx, result.Opportunities)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to send opportunity notifications")
		}
		result.Notified = notified
	}

	result.Duration = s.now().Sub(start)

	topKey := ""
	if len(result.Candidates) > 0 {
		topKey = result.Candidates[0].ClusterID
	}
	s.tracer.RecordDiscoveryResult(span, telemetry.DiscoveryMetrics{
		ClusterCount:    len(result.Clusters),
		CandidateCount:  len(result.Candidates),
		PersistedCount:  len(result.Opportunities),
		DuplicateCount:  result.Duplicates,
		TopCandidateKey: topKey,
	})
	s.metrics.RecordDiscovery(trigger, len(signals), len(result.Clusters), len(result.Candidates), result.Duration, nil)
	s.metrics.RecordPersisted(len(result.Opportunities))
	s.metrics.RecordDuplicates(result.Duplicates)

	s.logger.WithFields(logrus.Fields{
		"trigger":     trigger,
		"signals":     result.SignalCount,
		"clusters":    len(result.Clusters),
		"candidates":  len(result.Candidates),
		"persisted":   len(result.Opportunities),
		"duplicates":  result.Duplicates,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Opportunity discovery completed")

	return result, nil
}

// ProcessPending runs discovery over the oldest unprocessed stored signals and marks them
// processed. Signals stay pending when discovery fails.
func (s *OpportunityService) ProcessPending(ctx context.Context, trigger string) (*DiscoveryResult, error) {
	signals, err := s.signals.ListUnprocessed(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending signals: %w", err)
	}
	if len(signals) == 0 {
		s.logger.WithField("trigger", trigger).Debug("No pending signals to process")
		return &DiscoveryResult{
			Trigger:       trigger,
			Clusters:      []models.SignalCluster{},
			Candidates:    []models.OpportunityCandidate{},
			Opportunities: []models.Opportunity{},
		}, nil
	}

	result, err := s.Discover(ctx, trigger, signals)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(signals))
	for _, signal := range signals {
		ids = append(ids, signal.SignalID)
	}
	if _, err := s.signals.MarkProcessed(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to mark signals processed: %w", err)
	}

	return result, nil
}

// ListOpportunities returns persisted opportunities, newest first
func (s *OpportunityService) ListOpportunities(ctx context.Context, limit, offset int) ([]models.Opportunity, error) {
	return s.opportunities.List(ctx, limit, offset)
}

// GetOpportunity returns one persisted opportunity
func (s *OpportunityService) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	return s.opportunities.GetByID(ctx, id)
}

// isDuplicate checks the cache first; cache failures fall back to the repository
func (s *OpportunityService) isDuplicate(ctx context.Context, fingerprint string) (bool, error) {
	if s.fingerprints != nil {
		seen, err := s.fingerprints.Seen(ctx, fingerprint)
		if err == nil && seen {
			return true, nil
		}
		if err != nil {
			s.logger.WithError(err).Warn("Fingerprint cache unavailable, falling back to database")
		}
	}

	exists, err := s.opportunities.ExistsByFingerprint(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("failed to check opportunity fingerprint: %w", err)
	}
	return exists, nil
}

func (s *OpportunityService) rememberFingerprint(ctx context.Context, opp *models.Opportunity) {
	if s.fingerprints == nil {
		return
	}
	if err := s.fingerprints.Remember(ctx, opp.Fingerprint, opp.ID); err != nil {
		s.logger.WithError(err).WithField("opportunity_id", opp.ID).Warn("Failed to cache opportunity fingerprint")
	}
}

func (s *OpportunityService) toOpportunity(c models.OpportunityCandidate) *models.Opportunity {
	aiTypes := make([]string, 0, len(c.AISolutionTypes))
	for _, t := range c.AISolutionTypes {
		aiTypes = append(aiTypes, string(t))
	}
	industries := append([]string{}, c.TargetIndustries...)
	signals := append([]string{}, c.MarketSignals...)

	return &models.Opportunity{
		ID:                    s.newID(),
		ClusterID:             c.ClusterID,
		Title:                 c.Title,
		Description:           c.Description,
		ProblemStatement:      c.ProblemStatement,
		ProposedSolution:      c.ProposedSolution,
		AISolutionTypes:       aiTypes,
		TargetIndustries:      industries,
		ConfidenceScore:       c.ConfidenceScore,
		MarketValidationScore: c.MarketValidationScore,
		AIFeasibilityScore:    c.AIFeasibilityScore,
		MarketSignals:         signals,
		Fingerprint:           c.Fingerprint,
		Status:                models.OpportunityStatusDiscovered,
		CreatedAt:             s.now().UTC(),
	}
}
