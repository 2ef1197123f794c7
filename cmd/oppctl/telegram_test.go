package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
)

func newCheckCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func TestCheckTelegram_MissingToken(t *testing.T) {
	cmd, _ := newCheckCommand()

	err := checkTelegram(cmd, config.TelegramConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestCheckTelegram_AgainstFakeAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getMe") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Opportunity Bot","username":"opp_bot"}}`)
	}))
	defer server.Close()

	cmd, out := newCheckCommand()
	err := checkTelegram(cmd, config.TelegramConfig{BotToken: "123:abc", ChatID: 99}, bot.WithServerURL(server.URL))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "telegram.chat_id is configured: 99")
	assert.Contains(t, out.String(), "Bot Username: @opp_bot")
	assert.Contains(t, out.String(), "Bot ID: 42")
}

func TestCheckTelegram_MissingChatIDWarns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"Bot","username":"b"}}`)
	}))
	defer server.Close()

	cmd, out := newCheckCommand()
	require.NoError(t, checkTelegram(cmd, config.TelegramConfig{BotToken: "1:x"}, bot.WithServerURL(server.URL)))
	assert.Contains(t, out.String(), "chat_id is not configured")
}
