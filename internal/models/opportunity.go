package models

import "time"

// AISolutionType is a category of AI technique an opportunity would rely on
type AISolutionType string

const (
	AISolutionMachineLearning AISolutionType = "machine_learning"
	AISolutionNLP             AISolutionType = "nlp"
	AISolutionComputerVision  AISolutionType = "computer_vision"
	AISolutionAutomation      AISolutionType = "automation"
	AISolutionGenerativeAI    AISolutionType = "generative_ai"
)

// OpportunityStatus tracks the lifecycle of a persisted opportunity
type OpportunityStatus string

const (
	OpportunityStatusDiscovered OpportunityStatus = "discovered"
)

// OpportunityCandidate is a synthesized, not yet persisted opportunity derived from one cluster
type OpportunityCandidate struct {
	ClusterID             string           `json:"cluster_id"`
	Title                 string           `json:"title"`
	Description           string           `json:"description"`
	ProblemStatement      string           `json:"problem_statement"`
	ProposedSolution      string           `json:"proposed_solution"`
	AISolutionTypes       []AISolutionType `json:"ai_solution_types"`
	TargetIndustries      []string         `json:"target_industries"`
	ConfidenceScore       float64          `json:"confidence_score"`        // 0 to 1
	MarketValidationScore float64          `json:"market_validation_score"` // 0 to 100
	AIFeasibilityScore    float64          `json:"ai_feasibility_score"`    // 0 to 100
	MarketSignals         []string         `json:"market_signals"`
	Fingerprint           string           `json:"fingerprint,omitempty"`
}

// HasAISolutionType reports whether the candidate was tagged with the given category
func (c OpportunityCandidate) HasAISolutionType(t AISolutionType) bool {
	for _, existing := range c.AISolutionTypes {
		if existing == t {
			return true
		}
	}
	return false
}

// IndustriesOrGeneral returns the target industries, or "General" when none were detected
func (c OpportunityCandidate) IndustriesOrGeneral() []string {
	if len(c.TargetIndustries) == 0 {
		return []string{"General"}
	}
	return c.TargetIndustries
}

// Opportunity is the persisted form of a candidate
type Opportunity struct {
	ID                    string            `json:"id" db:"id"`
	ClusterID             string            `json:"cluster_id" db:"cluster_id"`
	Title                 string            `json:"title" db:"title"`
	Description           string            `json:"description" db:"description"`
	ProblemStatement      string            `json:"problem_statement" db:"problem_statement"`
	ProposedSolution      string            `json:"proposed_solution" db:"proposed_solution"`
	AISolutionTypes       []string          `json:"ai_solution_types" db:"ai_solution_types"`
	TargetIndustries      []string          `json:"target_industries" db:"target_industries"`
	ConfidenceScore       float64           `json:"confidence_score" db:"confidence_score"`
	MarketValidationScore float64           `json:"market_validation_score" db:"market_validation_score"`
	AIFeasibilityScore    float64           `json:"ai_feasibility_score" db:"ai_feasibility_score"`
	MarketSignals         []string          `json:"market_signals" db:"market_signals"`
	Fingerprint           string            `json:"fingerprint" db:"fingerprint"`
	Status                OpportunityStatus `json:"status" db:"status"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
}

// OpportunitiesResponse represents the response for the opportunity list endpoint
type OpportunitiesResponse struct {
	Opportunities []Opportunity `json:"opportunities"`
	Count         int           `json:"count"`
	Limit         int           `json:"limit"`
	Offset        int           `json:"offset"`
	Timestamp     time.Time     `json:"timestamp"`
}
