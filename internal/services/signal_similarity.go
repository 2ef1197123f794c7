package services

import (
	"math"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

const (
	sameTypeBonus         = 0.10
	problemSpaceTypeBonus = 0.05
	longKeywordRunes      = 6
	longKeywordWeight     = 1.5
)

// SignalSimilarityScorer computes a symmetric lexical similarity between two market signals.
// It is a stateless value and safe for concurrent use.
type SignalSimilarityScorer struct{}

// NewSignalSimilarityScorer creates a new similarity scorer
func NewSignalSimilarityScorer() *SignalSimilarityScorer {
	return &SignalSimilarityScorer{}
}

// Similarity returns a score in [0, 1]. Signals whose content is empty after normalization
// score 0 against everything; identical normalized content scores 1.
func (s *SignalSimilarityScorer) Similarity(a, b models.MarketSignal) float64 {
	normA := NormalizeText(a.Content)
	normB := NormalizeText(b.Content)
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 1
	}

	score := lexicalOverlap(uniqueTokens(SignificantTokens(normA)), uniqueTokens(SignificantTokens(normB)))
	if score == 0 {
		// type agreement alone never relates two signals
		return 0
	}
	score += typeAgreementBonus(a.SignalType, b.SignalType)

	return clamp01(score)
}

// lexicalOverlap averages the weighted Jaccard ratio and the weighted overlap coefficient
// of two keyword sets
func lexicalOverlap(tokensA, tokensB []string) float64 {
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(tokensB))
	weightB := 0.0
	for _, t := range tokensB {
		inB[t] = struct{}{}
		weightB += keywordWeight(t)
	}

	weightA, shared := 0.0, 0.0
	for _, t := range tokensA {
		w := keywordWeight(t)
		weightA += w
		if _, ok := inB[t]; ok {
			shared += w
		}
	}
	if shared == 0 {
		return 0
	}

	jaccard := shared / (weightA + weightB - shared)
	overlap := shared / math.Min(weightA, weightB)
	return 0.5*jaccard + 0.5*overlap
}

func keywordWeight(token string) float64 {
	if len([]rune(token)) >= longKeywordRunes {
		return longKeywordWeight
	}
	return 1.0
}

func typeAgreementBonus(a, b models.SignalType) float64 {
	if a == b {
		return sameTypeBonus
	}
	if a.IsProblemSpace() && b.IsProblemSpace() {
		return problemSpaceTypeBonus
	}
	return 0
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
