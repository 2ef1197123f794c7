package services

import (
	"fmt"
	"sort"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

// DiscoveryBatch is the outcome of one engine run
type DiscoveryBatch struct {
	Clusters   []models.SignalCluster        `json:"clusters"`
	Candidates []models.OpportunityCandidate `json:"candidates"`
}

// EligibleClusters counts clusters large enough to be considered for candidate generation
func (b DiscoveryBatch) EligibleClusters(minSignals int) int {
	n := 0
	for _, c := range b.Clusters {
		if c.SignalCount >= minSignals {
			n++
		}
	}
	return n
}

// OpportunityEngine runs clustering and candidate generation over a batch of signals.
// It holds only immutable configuration and may be shared between goroutines.
type OpportunityEngine struct {
	config    config.EngineConfig
	clusterer *SignalClusterer
	generator *OpportunityCandidateGenerator
}

// NewOpportunityEngine validates the configuration and creates an engine
func NewOpportunityEngine(cfg config.EngineConfig) (*OpportunityEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	return &OpportunityEngine{
		config:    cfg,
		clusterer: NewSignalClusterer(NewSignalSimilarityScorer(), cfg.SimilarityThreshold),
		generator: NewOpportunityCandidateGenerator(),
	}, nil
}

// Config returns the engine configuration
func (e *OpportunityEngine) Config() config.EngineConfig {
	return e.config
}

// Discover clusters the signals and returns the candidates that pass the signal count and
// confidence thresholds, best first, capped at the configured batch maximum
func (e *OpportunityEngine) Discover(signals []models.MarketSignal) DiscoveryBatch {
	clusters := e.clusterer.Cluster(signals)

	candidates := []models.OpportunityCandidate{}
	for _, cluster := range clusters {
		if cluster.SignalCount < e.config.MinSignalsForOpportunity {
			continue
		}
		candidate := e.generator.Generate(cluster)
		if candidate == nil || candidate.ConfidenceScore < e.config.ConfidenceThreshold {
			continue
		}
		candidates = append(candidates, *candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return CompositeScore(candidates[i]) > CompositeScore(candidates[j])
	})

	if limit := e.config.MaxOpportunitiesPerBatch; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return DiscoveryBatch{Clusters: clusters, Candidates: candidates}
}

// CompositeScore ranks candidates on a 0-100 scale
func CompositeScore(c models.OpportunityCandidate) float64 {
	return 0.4*c.ConfidenceScore*100 + 0.3*c.MarketValidationScore + 0.3*c.AIFeasibilityScore
}
