package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"documind-bot/api/internal/config"
	"documind-bot/api/internal/logger"
)

var version = "dev"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "documind",
	Short: "DocuMind: Telegram bot that reads document photos and summarizes, translates or extracts key points",
	Long: `Without a subcommand the bot starts in webhook mode when WEBHOOK_URL is set
and falls back to long polling otherwise.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.WebhookURL != "" {
			return runWebhook(cmd.Context())
		}
		return runPolling(cmd.Context())
	},
}

func setup(*cobra.Command, []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Setup(c.GetLoggerConfig()); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	cfg = c
	return nil
}

func Execute() {
	ctx, stop := signalContext()
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
