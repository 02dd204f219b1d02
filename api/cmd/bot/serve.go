package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"documind-bot/api/internal/httpserver"
	"documind-bot/api/internal/logger"
	"documind-bot/api/internal/telegram"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Register the webhook and serve updates over HTTP (requires WEBHOOK_URL)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.WebhookURL == "" {
			return errors.New("WEBHOOK_URL is required for webhook mode")
		}
		return runWebhook(cmd.Context())
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Remove any webhook and receive updates by long polling",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPolling(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(webhookCmd, pollCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWebhook(ctx context.Context) error {
	log := logger.WithComponent("webhook")
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	path := telegram.WebhookPath(cfg.TelegramBotToken)
	public, err := telegram.RegisterWebhook(a.bot, cfg.WebhookURL, path)
	if err != nil {
		return err
	}
	log.Info().Str("url", public).Msg("webhook registered")

	srv := newHTTPServer(httpserver.Options{
		WebhookPath: path,
		Handler:     a.ctrl,
		Health:      a.cache,
		Log:         log,
	})
	return serve(ctx, srv, log)
}

func runPolling(ctx context.Context) error {
	log := logger.WithComponent("polling")
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// getUpdates is refused while a webhook is set.
	if err := telegram.DeleteWebhook(a.bot); err != nil {
		log.Warn().Err(err).Msg("could not delete webhook")
	}

	srv := newHTTPServer(httpserver.Options{Health: a.cache, Log: log})
	poller := telegram.NewPoller(a.bot, func(ctx context.Context, upd tgbotapi.Update) {
		if _, err := telegram.Dispatch(ctx, a.ctrl, upd); err != nil {
			log.Error().Err(err).Int("update_id", upd.UpdateID).Msg("update failed")
		}
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(gctx, srv, log) })
	g.Go(func() error {
		log.Info().Str("bot", a.bot.Self.UserName).Msg("polling started")
		if err := poller.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func newHTTPServer(o httpserver.Options) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.NewRouter(o),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
