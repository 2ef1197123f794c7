package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/metrics"
	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/telemetry"
)

const maxAlertOpportunities = 3

// MessageSender is the part of the Telegram bot API used for alerts; *bot.Bot implements it
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// Notifier announces newly persisted opportunities
type Notifier interface {
	NotifyOpportunities(ctx context.Context, opportunities []models.Opportunity) (int, error)
}

type NotificationService struct {
	sender        MessageSender
	chatID        int64
	minConfidence float64
	logger        *logrus.Logger
	metrics       *metrics.Collector
	tracer        *telemetry.BusinessTracer
	breaker       *CircuitBreaker
}

// NewNotificationService creates a Telegram notifier. Without a bot token or chat id the
// service is disabled and every call is a no-op.
func NewNotificationService(cfg config.TelegramConfig, logger *logrus.Logger, collector *metrics.Collector) (*NotificationService, error) {
	var sender MessageSender
	if cfg.BotToken != "" && cfg.ChatID != 0 {
		telegramBot, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		sender = telegramBot
	}
	return NewNotificationServiceWithSender(sender, cfg, logger, collector), nil
}

// NewNotificationServiceWithSender creates a notifier around an existing sender
func NewNotificationServiceWithSender(sender MessageSender, cfg config.TelegramConfig, logger *logrus.Logger, collector *metrics.Collector) *NotificationService {
	breaker := NewCircuitBreaker("telegram", CircuitBreakerConfig{
		FailureThreshold: 3,
		Timeout:          5 * time.Minute,
	}, logger)
	return &NotificationService{
		sender:        sender,
		chatID:        cfg.ChatID,
		minConfidence: cfg.MinConfidence,
		logger:        logger,
		metrics:       collector,
		tracer:        telemetry.NewBusinessTracer(),
		breaker:       breaker,
	}
}

// Enabled reports whether alerts are actually delivered
func (ns *NotificationService) Enabled() bool {
	return ns != nil && ns.sender != nil
}

// NotifyOpportunities sends one alert listing the opportunities at or above the configured
// confidence and returns how many were announced
func (ns *NotificationService) NotifyOpportunities(ctx context.Context, opportunities []models.Opportunity) (int, error) {
	if !ns.Enabled() {
		return 0, nil
	}

	eligible := make([]models.Opportunity, 0, len(opportunities))
	for _, opp := range opportunities {
		if opp.ConfidenceScore >= ns.minConfidence {
			eligible = append(eligible, opp)
		}
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	ctx, span := ns.tracer.TraceNotification(ctx, "telegram", eligible[0].ID)
	defer span.End()

	params := &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      formatOpportunityAlert(eligible),
		ParseMode: tgmodels.ParseModeMarkdown,
	}
	err := ns.breaker.Execute(ctx, func(ctx context.Context) error {
		_, sendErr := ns.sender.SendMessage(ctx, params)
		return sendErr
	})
	ns.metrics.RecordNotification(err)
	if err != nil {
		telemetry.RecordError(span, err, "telegram send failed")
		return 0, fmt.Errorf("failed to send telegram message: %w", err)
	}

	ns.logger.WithFields(logrus.Fields{
		"chat_id":       ns.chatID,
		"opportunities": len(eligible),
	}).Info("Sent opportunity alert")

	return len(eligible), nil
}

func formatOpportunityAlert(opportunities []models.Opportunity) string {
	top := opportunities
	if len(top) > maxAlertOpportunities {
		top = top[:maxAlertOpportunities]
	}

	var b strings.Builder
	b.WriteString("🤖 *New AI Opportunities*\n\n")
	fmt.Fprintf(&b, "Discovered %d new opportunities:\n\n", len(opportunities))

	for i, opp := range top {
		industries := "General"
		if len(opp.TargetIndustries) > 0 {
			industries = strings.Join(opp.TargetIndustries, ", ")
		}
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, escapeMarkdown(opp.Title))
		fmt.Fprintf(&b, "🎯 Confidence: *%.0f%%*\n", opp.ConfidenceScore*100)
		fmt.Fprintf(&b, "📈 Validation: %.1f/100  🧠 Feasibility: %.1f/100\n", opp.MarketValidationScore, opp.AIFeasibilityScore)
		fmt.Fprintf(&b, "🏭 Industries: %s\n", escapeMarkdown(industries))
		fmt.Fprintf(&b, "🔧 AI: %s\n\n", escapeMarkdown(strings.Join(opp.AISolutionTypes, ", ")))
	}

	if len(opportunities) > maxAlertOpportunities {
		fmt.Fprintf(&b, "...and %d more opportunities\n\n", len(opportunities)-maxAlertOpportunities)
	}
	b.WriteString("Use GET /api/v1/opportunities to browse all opportunities")

	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes the characters legacy Telegram Markdown treats as markup
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
