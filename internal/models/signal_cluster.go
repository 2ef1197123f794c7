package models

// SignalCluster groups market signals judged to describe the same underlying theme.
// Clusters are built once per discovery batch and never mutated afterwards.
type SignalCluster struct {
	ClusterID          string         `json:"cluster_id"`
	Signals            []MarketSignal `json:"signals"`
	DominantThemes     []string       `json:"dominant_themes"`
	PainIntensity      float64        `json:"pain_intensity"`       // 0 to 100
	MarketPotential    float64        `json:"market_potential"`     // 0 to 100
	AIOpportunityScore float64        `json:"ai_opportunity_score"` // 0 to 100
	SignalCount        int            `json:"signal_count"`
	TotalEngagement    int64          `json:"total_engagement"`
	AvgSentiment       float64        `json:"avg_sentiment"`    // -1 to 1
	ConfidenceLevel    float64        `json:"confidence_level"` // 0 to 1
}

// SignalIDs returns the ids of the clustered signals in discovery order
func (c SignalCluster) SignalIDs() []string {
	ids := make([]string, 0, len(c.Signals))
	for _, s := range c.Signals {
		ids = append(ids, s.SignalID)
	}
	return ids
}

// DistinctSources returns the distinct signal sources in first-seen order
func (c SignalCluster) DistinctSources() []string {
	seen := make(map[string]bool)
	sources := []string{}
	for _, s := range c.Signals {
		if s.Source == "" || seen[s.Source] {
			continue
		}
		seen[s.Source] = true
		sources = append(sources, s.Source)
	}
	return sources
}
