package services

import "github.com/justQrius/ai-opportunity-browser/internal/models"

func newSignal(id, content string, signalType models.SignalType, source string) models.MarketSignal {
	return models.MarketSignal{
		SignalID:         id,
		Content:          content,
		SignalType:       signalType,
		Source:           source,
		AIRelevanceScore: 70,
		Confidence:       0.8,
	}
}

// sampleSignals is a small batch of scraped posts about document and email automation
func sampleSignals() []models.MarketSignal {
	return []models.MarketSignal{
		{
			SignalID:          "reddit_001",
			Content:           "Spending hours on manual invoice data entry from email attachments every week",
			SignalType:        models.SignalTypePainPoint,
			Source:            "reddit",
			EngagementMetrics: map[string]float64{"upvotes": 45, "comments": 12},
			AIRelevanceScore:  85,
			Confidence:        0.8,
			SentimentScore:    -0.6,
		},
		{
			SignalID:          "github_001",
			Content:           "Automated invoice data extraction from email attachments with OCR",
			SignalType:        models.SignalTypeFeatureRequest,
			Source:            "github",
			EngagementMetrics: map[string]float64{"stars": 28},
			AIRelevanceScore:  90,
			Confidence:        0.85,
			SentimentScore:    0.1,
		},
		{
			SignalID:          "stackoverflow_001",
			Content:           "How to automate invoice data extraction from PDF email attachments?",
			SignalType:        models.SignalTypeQuestion,
			Source:            "stackoverflow",
			EngagementMetrics: map[string]float64{"votes": 15, "answers": 3},
			AIRelevanceScore:  80,
			Confidence:        0.75,
			SentimentScore:    -0.1,
		},
		{
			SignalID:          "hackernews_001",
			Content:           "Invoice processing automation for small business accounting with machine learning",
			SignalType:        models.SignalTypeOpportunity,
			Source:            "hackernews",
			EngagementMetrics: map[string]float64{"points": 60, "comments": 22},
			AIRelevanceScore:  88,
			Confidence:        0.8,
			SentimentScore:    0.3,
		},
		{
			SignalID:          "reddit_002",
			Content:           "Our sales team wastes time copying leads from email into the CRM",
			SignalType:        models.SignalTypePainPoint,
			Source:            "reddit",
			EngagementMetrics: map[string]float64{"upvotes": 30, "comments": 8},
			AIRelevanceScore:  75,
			Confidence:        0.7,
			SentimentScore:    -0.5,
		},
		{
			SignalID:          "github_002",
			Content:           "Document classification workflow to route contracts automatically",
			SignalType:        models.SignalTypeFeatureRequest,
			Source:            "github",
			EngagementMetrics: map[string]float64{"stars": 12},
			AIRelevanceScore:  82,
			Confidence:        0.7,
			SentimentScore:    0,
		},
		{
			SignalID:          "hackernews_002",
			Content:           "Mobile game monetization strategies for indie developers",
			SignalType:        models.SignalTypeDiscussion,
			Source:            "hackernews",
			EngagementMetrics: map[string]float64{"points": 5},
			AIRelevanceScore:  20,
			Confidence:        0.5,
			SentimentScore:    0.1,
		},
	}
}
