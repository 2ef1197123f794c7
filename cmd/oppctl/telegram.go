package main

import (
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
)

func newTelegramCheckCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "telegram-check",
		Short: "Validate the Telegram notification settings against the Bot API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(configFile)
			if err != nil {
				return err
			}
			return checkTelegram(cmd, cfg.Telegram)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to config.yaml (defaults to ./configs/config.yaml or ./config.yaml)")
	return cmd
}

func checkTelegram(cmd *cobra.Command, cfg config.TelegramConfig, opts ...bot.Option) error {
	out := cmd.OutOrStdout()

	if cfg.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not configured")
	}
	fmt.Fprintf(out, "✅ TELEGRAM_BOT_TOKEN is configured (length: %d)\n", len(cfg.BotToken))

	if cfg.ChatID == 0 {
		fmt.Fprintln(out, "⚠️  telegram.chat_id is not configured, alerts will not be sent")
	} else {
		fmt.Fprintf(out, "✅ telegram.chat_id is configured: %d\n", cfg.ChatID)
	}

	// bot.New calls getMe unless told otherwise, so this is the API round trip
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("failed to reach Telegram Bot API: %w", err)
	}

	me, err := b.GetMe(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	fmt.Fprintln(out, "✅ Bot API connection successful")
	fmt.Fprintf(out, "   Bot Name: %s\n", me.FirstName)
	fmt.Fprintf(out, "   Bot Username: @%s\n", me.Username)
	fmt.Fprintf(out, "   Bot ID: %d\n", me.ID)
	return nil
}
