package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/metrics"
	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

type mockMessageSender struct {
	mock.Mock
}

func (m *mockMessageSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	args := m.Called(ctx, params)
	if msg := args.Get(0); msg != nil {
		return msg.(*tgmodels.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func testOpportunity(id, title string, confidence float64) models.Opportunity {
	return models.Opportunity{
		ID:                    id,
		Title:                 title,
		ConfidenceScore:       confidence,
		MarketValidationScore: 49.7,
		AIFeasibilityScore:    70.5,
		AISolutionTypes:       []string{"computer_vision", "automation"},
		TargetIndustries:      []string{"finance"},
	}
}

func TestNewNotificationService_DisabledWithoutToken(t *testing.T) {
	ns, err := NewNotificationService(config.TelegramConfig{ChatID: 42}, quietLogger(), nil)
	require.NoError(t, err)
	assert.False(t, ns.Enabled())

	sent, err := ns.NotifyOpportunities(context.Background(), []models.Opportunity{testOpportunity("a", "Title", 0.9)})
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestNotificationService_FiltersByConfidence(t *testing.T) {
	sender := new(mockMessageSender)
	collector := metrics.NewCollector()
	ns := NewNotificationServiceWithSender(sender, config.TelegramConfig{ChatID: 42, MinConfidence: 0.7}, quietLogger(), collector)

	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *bot.SendMessageParams) bool {
		return p.ChatID == int64(42) &&
			p.ParseMode == tgmodels.ParseModeMarkdown &&
			strings.Contains(p.Text, "Discovered 1 new opportunities") &&
			!strings.Contains(p.Text, "Weak")
	})).Return(&tgmodels.Message{ID: 1}, nil).Once()

	sent, err := ns.NotifyOpportunities(context.Background(), []models.Opportunity{
		testOpportunity("a", "Strong", 0.8),
		testOpportunity("b", "Weak", 0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	sender.AssertExpectations(t)
}

func TestNotificationService_NothingEligible(t *testing.T) {
	sender := new(mockMessageSender)
	ns := NewNotificationServiceWithSender(sender, config.TelegramConfig{ChatID: 42, MinConfidence: 0.9}, quietLogger(), nil)

	sent, err := ns.NotifyOpportunities(context.Background(), []models.Opportunity{testOpportunity("a", "Weak", 0.5)})
	require.NoError(t, err)
	assert.Zero(t, sent)
	sender.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestNotificationService_SendError(t *testing.T) {
	sender := new(mockMessageSender)
	ns := NewNotificationServiceWithSender(sender, config.TelegramConfig{ChatID: 42}, quietLogger(), nil)
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("forbidden"))

	sent, err := ns.NotifyOpportunities(context.Background(), []models.Opportunity{testOpportunity("a", "T", 0.9)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Zero(t, sent)
}

func TestNotificationService_BreakerStopsRepeatedFailures(t *testing.T) {
	sender := new(mockMessageSender)
	ns := NewNotificationServiceWithSender(sender, config.TelegramConfig{ChatID: 42}, quietLogger(), nil)
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Times(3)

	opps := []models.Opportunity{testOpportunity("a", "T", 0.9)}
	for i := 0; i < 3; i++ {
		_, err := ns.NotifyOpportunities(context.Background(), opps)
		require.Error(t, err)
	}

	_, err := ns.NotifyOpportunities(context.Background(), opps)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	sender.AssertNumberOfCalls(t, "SendMessage", 3)
}

func TestFormatOpportunityAlert(t *testing.T) {
	opps := []models.Opportunity{
		testOpportunity("1", "AI-Powered Invoice_Processing", 0.69),
		testOpportunity("2", "Second", 0.8),
		testOpportunity("3", "Third", 0.8),
		testOpportunity("4", "Fourth", 0.8),
		testOpportunity("5", "Fifth", 0.8),
	}

	text := formatOpportunityAlert(opps)

	assert.Contains(t, text, "Discovered 5 new opportunities")
	assert.Contains(t, text, "*1. AI-Powered Invoice\\_Processing*")
	assert.Contains(t, text, "Confidence: *69%*")
	assert.Contains(t, text, "Validation: 49.7/100")
	assert.Contains(t, text, "AI: computer\\_vision, automation")
	assert.Contains(t, text, "*3. Third*")
	assert.NotContains(t, text, "Fourth")
	assert.Contains(t, text, "...and 2 more opportunities")
}

func TestFormatOpportunityAlert_GeneralIndustry(t *testing.T) {
	opp := testOpportunity("1", "Title", 0.7)
	opp.TargetIndustries = nil

	text := formatOpportunityAlert([]models.Opportunity{opp})
	assert.Contains(t, text, "Industries: General")
	assert.NotContains(t, text, "more opportunities")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "a\\_b\\*c\\`d\\[e", escapeMarkdown("a_b*c`d[e"))
}
