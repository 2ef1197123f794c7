package models

import "time"

// SignalType classifies what a market signal expresses
type SignalType string

const (
	SignalTypePainPoint      SignalType = "pain_point"
	SignalTypeFeatureRequest SignalType = "feature_request"
	SignalTypeOpportunity    SignalType = "opportunity"
	SignalTypeQuestion       SignalType = "question"
	SignalTypeDiscussion     SignalType = "discussion"
)

// IsValid reports whether the signal type is one of the known types
func (t SignalType) IsValid() bool {
	switch t {
	case SignalTypePainPoint, SignalTypeFeatureRequest, SignalTypeOpportunity, SignalTypeQuestion, SignalTypeDiscussion:
		return true
	}
	return false
}

// IsProblemSpace reports whether the type describes a problem users want solved
func (t SignalType) IsProblemSpace() bool {
	return t == SignalTypePainPoint || t == SignalTypeFeatureRequest
}

// IsDemand reports whether the type expresses explicit demand for a solution
func (t SignalType) IsDemand() bool {
	return t == SignalTypeFeatureRequest || t == SignalTypeOpportunity
}

// MarketSignal is a single observation from an external source (post, issue, thread)
type MarketSignal struct {
	SignalID          string             `json:"signal_id" db:"signal_id"`
	Content           string             `json:"content" db:"content"`
	SignalType        SignalType         `json:"signal_type" db:"signal_type"`
	Source            string             `json:"source" db:"source"`
	EngagementMetrics map[string]float64 `json:"engagement_metrics" db:"engagement_metrics"`
	AIRelevanceScore  float64            `json:"ai_relevance_score" db:"ai_relevance_score"`
	Confidence        float64            `json:"confidence" db:"confidence"`
	SentimentScore    float64            `json:"sentiment_score" db:"sentiment_score"`
	CreatedAt         time.Time          `json:"created_at,omitempty" db:"created_at"`
}

// TotalEngagement sums every engagement counter, ignoring negative values
func (s MarketSignal) TotalEngagement() float64 {
	total := 0.0
	for _, v := range s.EngagementMetrics {
		if v > 0 {
			total += v
		}
	}
	return total
}
