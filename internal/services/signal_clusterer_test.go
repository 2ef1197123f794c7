package services

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

func TestSignalClusterer_EmptyInput(t *testing.T) {
	clusterer := NewSignalClusterer(nil, 0.25)

	assert.Empty(t, clusterer.Cluster(nil))
	assert.NotNil(t, clusterer.Cluster([]models.MarketSignal{}))
}

func TestSignalClusterer_RelatedSignalsShareCluster(t *testing.T) {
	clusterer := NewSignalClusterer(NewSignalSimilarityScorer(), 0.25)
	clusters := clusterer.Cluster([]models.MarketSignal{
		newSignal("a", "Manual data entry from emails into CRM is killing our productivity", models.SignalTypePainPoint, "reddit"),
		newSignal("b", "Need automated email parsing for CRM integration", models.SignalTypeFeatureRequest, "github"),
	})

	require.Len(t, clusters, 1)
	assert.Equal(t, 2, clusters[0].SignalCount)
	assert.Equal(t, []string{"a", "b"}, clusters[0].SignalIDs())
}

func TestSignalClusterer_UnrelatedSignalsSeparate(t *testing.T) {
	clusterer := NewSignalClusterer(NewSignalSimilarityScorer(), 0.25)
	clusters := clusterer.Cluster([]models.MarketSignal{
		newSignal("a", "CRM email automation", models.SignalTypeOpportunity, "reddit"),
		newSignal("b", "mobile app for iOS", models.SignalTypeQuestion, "hackernews"),
	})

	require.Len(t, clusters, 2)
	assert.Equal(t, 1, clusters[0].SignalCount)
	assert.Equal(t, 1, clusters[1].SignalCount)
}

func TestSignalClusterer_TotalEngagementSaturates(t *testing.T) {
	huge := func(id string) models.MarketSignal {
		s := newSignal(id, "Manual invoice data entry from email attachments", models.SignalTypePainPoint, "reddit")
		s.EngagementMetrics = map[string]float64{"upvotes": 1e19}
		return s
	}

	clusters := NewSignalClusterer(nil, 0.25).Cluster([]models.MarketSignal{huge("a"), huge("b")})

	require.Len(t, clusters, 1)
	assert.Equal(t, int64(math.MaxInt64), clusters[0].TotalEngagement)
}

func TestSaturatedInt64(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{41.6, 42},
		{2e15, 2_000_000_000_000_000},
		{1e19, math.MaxInt64},
		{math.Inf(1), math.MaxInt64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, saturatedInt64(tt.in), "input %v", tt.in)
	}
}

func TestSignalClusterer_LowThresholdKeepsUnrelatedApart(t *testing.T) {
	clusters := NewSignalClusterer(NewSignalSimilarityScorer(), 0.05).Cluster([]models.MarketSignal{
		newSignal("a", "invoice extraction pdf", models.SignalTypePainPoint, "reddit"),
		newSignal("b", "mobile game monetization", models.SignalTypePainPoint, "hackernews"),
	})

	assert.Len(t, clusters, 2)
}

func TestSignalClusterer_SampleBatch(t *testing.T) {
	clusterer := NewSignalClusterer(NewSignalSimilarityScorer(), 0.25)
	clusters := clusterer.Cluster(sampleSignals())

	require.Len(t, clusters, 5)
	assert.Equal(t, []string{"reddit_001", "github_001", "stackoverflow_001"}, clusters[0].SignalIDs())

	invoice := clusters[0]
	assert.Equal(t, []string{"invoice", "data", "email", "attachment", "extraction"}, invoice.DominantThemes)
	assert.Equal(t, int64(103), invoice.TotalEngagement)
	assert.InDelta(t, -0.2, invoice.AvgSentiment, 1e-9)
	assert.InDelta(t, 72.0, invoice.PainIntensity, 1e-6)
	assert.InDelta(t, 49.42, invoice.MarketPotential, 0.01)
	assert.InDelta(t, 72.083, invoice.AIOpportunityScore, 0.01)
	assert.InDelta(t, 0.7317, invoice.ConfidenceLevel, 0.001)
}

func TestSignalClusterer_Completeness(t *testing.T) {
	signals := append(sampleSignals(),
		newSignal("empty", "", models.SignalTypePainPoint, "reddit"),
		newSignal("blank", "  ...  ", models.SignalTypeQuestion, "reddit"),
	)

	for _, threshold := range []float64{0, 0.1, 0.25, 0.5, 1} {
		clusters := NewSignalClusterer(nil, threshold).Cluster(signals)

		seen := map[string]int{}
		total := 0
		for _, c := range clusters {
			assert.Equal(t, len(c.Signals), c.SignalCount)
			total += c.SignalCount
			for _, id := range c.SignalIDs() {
				seen[id]++
			}
		}
		assert.Equal(t, len(signals), total, "threshold %.2f", threshold)
		for _, s := range signals {
			assert.Equal(t, 1, seen[s.SignalID], "signal %s at threshold %.2f", s.SignalID, threshold)
		}
	}
}

func TestSignalClusterer_EmptyContentFormsOwnCluster(t *testing.T) {
	clusters := NewSignalClusterer(nil, 0).Cluster([]models.MarketSignal{
		newSignal("a", "invoice automation", models.SignalTypePainPoint, "reddit"),
		newSignal("empty", "", models.SignalTypePainPoint, "reddit"),
	})

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"empty"}, clusters[1].SignalIDs())
	assert.Empty(t, clusters[1].DominantThemes)
}

func TestSignalClusterer_FirstFit(t *testing.T) {
	// "c" is similar to both seeds but must join the first cluster created
	signals := []models.MarketSignal{
		newSignal("a", "invoice extraction", models.SignalTypeDiscussion, "reddit"),
		newSignal("b", "receipt scanning", models.SignalTypeDiscussion, "github"),
		newSignal("c", "receipt scanning and invoice extraction", models.SignalTypeDiscussion, "hackernews"),
	}
	clusters := NewSignalClusterer(nil, 0.25).Cluster(signals)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "c"}, clusters[0].SignalIDs())
	assert.Equal(t, []string{"b"}, clusters[1].SignalIDs())
}

func TestSignalClusterer_Deterministic(t *testing.T) {
	clusterer := NewSignalClusterer(nil, 0.25)
	first := clusterer.Cluster(sampleSignals())
	second := clusterer.Cluster(sampleSignals())

	assert.Equal(t, first, second)
	for _, c := range first {
		_, err := uuid.Parse(c.ClusterID)
		assert.NoError(t, err)
	}
}

func TestPainIntensity(t *testing.T) {
	t.Run("baseline without pain points", func(t *testing.T) {
		signals := []models.MarketSignal{newSignal("a", "invoice tool", models.SignalTypeFeatureRequest, "github")}
		assert.Equal(t, baselinePainIntensity, painIntensity(signals))
	})

	t.Run("more negative sentiment hurts more", func(t *testing.T) {
		mild := newSignal("a", "invoice entry", models.SignalTypePainPoint, "reddit")
		mild.SentimentScore = -0.2
		severe := newSignal("b", "invoice entry", models.SignalTypePainPoint, "reddit")
		severe.SentimentScore = -0.9

		assert.Greater(t, painIntensity([]models.MarketSignal{severe}), painIntensity([]models.MarketSignal{mild}))
		assert.InDelta(t, 93.0, painIntensity([]models.MarketSignal{severe}), 1e-6)
	})

	t.Run("engagement weights the average", func(t *testing.T) {
		quiet := newSignal("a", "invoice entry", models.SignalTypePainPoint, "reddit")
		quiet.SentimentScore = 0
		loud := newSignal("b", "invoice entry", models.SignalTypePainPoint, "reddit")
		loud.SentimentScore = -1
		loud.EngagementMetrics = map[string]float64{"upvotes": 500}

		// the loud signal dominates, pushing intensity above the unweighted midpoint of 65
		assert.Greater(t, painIntensity([]models.MarketSignal{quiet, loud}), 65.0)
	})
}

func TestConfidenceLevel(t *testing.T) {
	makeBatch := func(n int) []models.MarketSignal {
		batch := make([]models.MarketSignal, n)
		for i := range batch {
			batch[i] = newSignal("s", "invoice entry", models.SignalTypePainPoint, "reddit")
		}
		return batch
	}

	t.Run("grows with signal count", func(t *testing.T) {
		prev := 0.0
		for n := 1; n <= 8; n++ {
			level := confidenceLevel(makeBatch(n))
			assert.Greater(t, level, prev)
			assert.LessOrEqual(t, level, 1.0)
			prev = level
		}
	})

	t.Run("shrinks with dispersion", func(t *testing.T) {
		agreeing := makeBatch(3)
		disagreeing := makeBatch(3)
		disagreeing[0].AIRelevanceScore = 10
		disagreeing[1].Confidence = 0.2
		disagreeing[2].SentimentScore = -1

		assert.Greater(t, confidenceLevel(agreeing), confidenceLevel(disagreeing))
	})
}

func TestMarketPotential(t *testing.T) {
	assert.Equal(t, 0.0, marketPotential(0, 0, 0))
	assert.InDelta(t, 100.0, marketPotential(10, 9999, 4), 1e-9)
	assert.Greater(t, marketPotential(3, 100, 3), marketPotential(3, 100, 1))
	assert.Greater(t, marketPotential(3, 1000, 1), marketPotential(3, 10, 1))
}
