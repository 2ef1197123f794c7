package services

import (
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/utils"
)

const unknownSource = "unknown"

// maxEngagementCounter caps a single engagement counter so cluster totals stay within int64
const maxEngagementCounter = 1e15

// RejectedSignal describes a record dropped at the ingestion boundary
type RejectedSignal struct {
	Index    int    `json:"index"`
	SignalID string `json:"signal_id,omitempty"`
	Reason   string `json:"reason"`
}

// SignalIngestor turns raw scraped records into well-formed market signals: HTML is
// stripped, enums defaulted and numeric fields clamped to their documented ranges
type SignalIngestor struct {
	now func() time.Time
}

// NewSignalIngestor creates a new ingestor
func NewSignalIngestor() *SignalIngestor {
	return &SignalIngestor{now: time.Now}
}

// Normalize validates and cleans one record. Only a missing signal id is fatal; every other
// defect is repaired so one bad field does not discard the observation.
func (i *SignalIngestor) Normalize(raw models.MarketSignal) (models.MarketSignal, error) {
	signal := raw
	signal.SignalID = strings.TrimSpace(raw.SignalID)
	if signal.SignalID == "" {
		return models.MarketSignal{}, utils.NewFieldValidationError("signal_id", "is required")
	}

	signal.Content = StripHTML(raw.Content)

	signalType := models.SignalType(strings.ToLower(strings.TrimSpace(string(raw.SignalType))))
	if !signalType.IsValid() {
		signalType = models.SignalTypeDiscussion
	}
	signal.SignalType = signalType

	signal.Source = strings.ToLower(strings.TrimSpace(raw.Source))
	if signal.Source == "" {
		signal.Source = unknownSource
	}

	signal.AIRelevanceScore = clamp(raw.AIRelevanceScore, 0, 100)
	signal.Confidence = clamp01(raw.Confidence)
	signal.SentimentScore = clamp(raw.SentimentScore, -1, 1)

	engagement := make(map[string]float64, len(raw.EngagementMetrics))
	for name, value := range raw.EngagementMetrics {
		name = strings.TrimSpace(name)
		if name == "" || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		engagement[name] = math.Min(value, maxEngagementCounter)
	}
	signal.EngagementMetrics = engagement

	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = i.now().UTC()
	}

	return signal, nil
}

// NormalizeBatch normalizes every record, reporting rejected ones instead of failing the
// batch. Repeated signal ids within the batch keep the first occurrence.
func (i *SignalIngestor) NormalizeBatch(raws []models.MarketSignal) ([]models.MarketSignal, []RejectedSignal) {
	accepted := make([]models.MarketSignal, 0, len(raws))
	rejected := []RejectedSignal{}
	seen := make(map[string]bool, len(raws))

	for idx, raw := range raws {
		signal, err := i.Normalize(raw)
		if err != nil {
			rejected = append(rejected, RejectedSignal{Index: idx, SignalID: raw.SignalID, Reason: err.Error()})
			continue
		}
		if seen[signal.SignalID] {
			rejected = append(rejected, RejectedSignal{Index: idx, SignalID: signal.SignalID, Reason: "duplicate signal_id in batch"})
			continue
		}
		seen[signal.SignalID] = true
		accepted = append(accepted, signal)
	}

	return accepted, rejected
}

var blockElements = "p, div, br, li, tr, td, th, h1, h2, h3, h4, h5, h6, blockquote, pre"

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed. Plain
// text passes through with only whitespace collapsed.
func StripHTML(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return strings.Join(strings.Fields(content), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
