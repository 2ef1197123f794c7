package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

const (
	maxDominantThemes      = 5
	baselinePainIntensity  = 20.0
	painIntensityFloor     = 0.3
	fullSignalCount        = 10.0
	fullEngagementLog10    = 4.0
	fullDistinctSources    = 4.0
	demandShareWeight      = 25.0
	avgAIRelevanceWeight   = 0.75
	confidenceSignalScale  = 2.0
	confidenceFloorWeight  = 0.6
	confidenceSpreadWeight = 0.4
)

// clusterNamespace seeds the name-based cluster ids so that identical batches yield identical ids
var clusterNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ai-opportunity-browser/signal-cluster"))

// SignalClusterer partitions a batch of signals with a greedy first-fit policy and
// computes aggregate statistics for every cluster.
type SignalClusterer struct {
	scorer              *SignalSimilarityScorer
	similarityThreshold float64
}

// NewSignalClusterer creates a clusterer joining signals whose similarity to a cluster seed
// is strictly greater than similarityThreshold
func NewSignalClusterer(scorer *SignalSimilarityScorer, similarityThreshold float64) *SignalClusterer {
	if scorer == nil {
		scorer = NewSignalSimilarityScorer()
	}
	return &SignalClusterer{scorer: scorer, similarityThreshold: similarityThreshold}
}

// Cluster groups signals in input order. Each signal is compared with the seed (first) signal
// of every existing cluster in creation order and joins the first one that qualifies,
// otherwise it seeds a new cluster. Every input signal lands in exactly one cluster.
func (c *SignalClusterer) Cluster(signals []models.MarketSignal) []models.SignalCluster {
	if len(signals) == 0 {
		return []models.SignalCluster{}
	}

	var groups [][]models.MarketSignal
	for _, signal := range signals {
		placed := false
		for i := range groups {
			if c.scorer.Similarity(groups[i][0], signal) > c.similarityThreshold {
				groups[i] = append(groups[i], signal)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []models.MarketSignal{signal})
		}
	}

	clusters := make([]models.SignalCluster, 0, len(groups))
	for i, group := range groups {
		clusters = append(clusters, buildCluster(i, group))
	}
	return clusters
}

func buildCluster(index int, signals []models.MarketSignal) models.SignalCluster {
	seedID := signals[0].SignalID
	clusterID := uuid.NewSHA1(clusterNamespace, []byte(fmt.Sprintf("%d:%s", index, seedID))).String()

	totalEngagement := 0.0
	sentimentSum := 0.0
	for _, s := range signals {
		totalEngagement += s.TotalEngagement()
		sentimentSum += s.SentimentScore
	}

	cluster := models.SignalCluster{
		ClusterID:       clusterID,
		Signals:         signals,
		DominantThemes:  dominantThemes(signals),
		SignalCount:     len(signals),
		TotalEngagement: saturatedInt64(totalEngagement),
		AvgSentiment:    clamp(sentimentSum/float64(len(signals)), -1, 1),
	}
	cluster.PainIntensity = painIntensity(signals)
	cluster.MarketPotential = marketPotential(cluster.SignalCount, totalEngagement, len(cluster.DistinctSources()))
	cluster.AIOpportunityScore = aiOpportunityScore(signals)
	cluster.ConfidenceLevel = confidenceLevel(signals)

	return cluster
}

// dominantThemes returns the most frequent keywords across all contents, ties broken by
// first occurrence
func dominantThemes(signals []models.MarketSignal) []string {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	position := 0
	for _, s := range signals {
		for _, token := range SignificantTokens(s.Content) {
			if _, ok := firstSeen[token]; !ok {
				firstSeen[token] = position
			}
			counts[token]++
			position++
		}
	}

	themes := make([]string, 0, len(counts))
	for token := range counts {
		themes = append(themes, token)
	}
	sort.Slice(themes, func(i, j int) bool {
		if counts[themes[i]] != counts[themes[j]] {
			return counts[themes[i]] > counts[themes[j]]
		}
		return firstSeen[themes[i]] < firstSeen[themes[j]]
	})

	if len(themes) > maxDominantThemes {
		themes = themes[:maxDominantThemes]
	}
	return themes
}

// painIntensity is the engagement-weighted negative sentiment of pain point signals mapped
// onto 30-100. Clusters without pain points get a low baseline instead of zero.
func painIntensity(signals []models.MarketSignal) float64 {
	weightSum, weighted := 0.0, 0.0
	for _, s := range signals {
		if s.SignalType != models.SignalTypePainPoint {
			continue
		}
		w := engagementWeight(s)
		weightSum += w
		weighted += w * math.Max(0, -clamp(s.SentimentScore, -1, 1))
	}
	if weightSum == 0 {
		return baselinePainIntensity
	}
	return 100 * clamp01(painIntensityFloor+(1-painIntensityFloor)*(weighted/weightSum))
}

// engagementWeight is zero for signals without content so malformed records do not
// influence aggregate scores
func engagementWeight(s models.MarketSignal) float64 {
	if NormalizeText(s.Content) == "" {
		return 0
	}
	return 1 + math.Log1p(s.TotalEngagement())
}

func marketPotential(signalCount int, totalEngagement float64, distinctSources int) float64 {
	volume := math.Min(1, float64(signalCount)/fullSignalCount)
	engagement := math.Min(1, math.Log10(1+math.Max(0, totalEngagement))/fullEngagementLog10)
	diversity := math.Min(1, float64(distinctSources)/fullDistinctSources)
	return 100 * clamp01(0.35*volume+0.40*engagement+0.25*diversity)
}

func aiOpportunityScore(signals []models.MarketSignal) float64 {
	relevanceSum := 0.0
	demand := 0
	for _, s := range signals {
		relevanceSum += clamp(s.AIRelevanceScore, 0, 100)
		if s.SignalType.IsDemand() {
			demand++
		}
	}
	n := float64(len(signals))
	score := avgAIRelevanceWeight*(relevanceSum/n) + demandShareWeight*(float64(demand)/n)
	return clamp(score, 0, 100)
}

// confidenceLevel grows with signal count with diminishing returns and shrinks as
// ai relevance, confidence and sentiment disagree across signals
func confidenceLevel(signals []models.MarketSignal) float64 {
	n := float64(len(signals))
	ai := make([]float64, 0, len(signals))
	conf := make([]float64, 0, len(signals))
	sent := make([]float64, 0, len(signals))
	for _, s := range signals {
		ai = append(ai, clamp(s.AIRelevanceScore, 0, 100)/100)
		conf = append(conf, clamp01(s.Confidence))
		sent = append(sent, clamp(s.SentimentScore, -1, 1))
	}

	dispersion := clamp01(stdDev(ai)/0.5*0.4 + stdDev(conf)/0.5*0.3 + stdDev(sent)*0.3)
	volume := 1 - math.Exp(-n/confidenceSignalScale)
	return clamp01(volume * (confidenceFloorWeight + confidenceSpreadWeight*(1-dispersion)))
}

// stdDev is the population standard deviation
// saturatedInt64 rounds v into the int64 range instead of wrapping on overflow
func saturatedInt64(v float64) int64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(math.Round(v))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}
