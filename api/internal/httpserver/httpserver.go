// Package httpserver exposes the webhook endpoint and the health check.
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"documind-bot/api/internal/logger"
	"documind-bot/api/internal/telegram"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// WebhookPath is where Telegram delivers updates; empty disables the route.
	WebhookPath string
	Handler     telegram.EventHandler
	Health      Pinger
	Log         zerolog.Logger
	// UpdateTimeout bounds the processing of a single delivery.
	UpdateTimeout time.Duration
}

func NewRouter(o Options) http.Handler {
	if o.UpdateTimeout <= 0 {
		o.UpdateTimeout = 3 * time.Minute
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz(o.Health))
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "documind bot")
	})
	if o.WebhookPath != "" && o.Handler != nil {
		r.HandleFunc(o.WebhookPath, webhook(o))
	}
	return r
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeText(w, http.StatusServiceUnavailable, "cache: not ok\n"+err.Error())
				return
			}
		}
		writeText(w, http.StatusOK, "ok")
	}
}

// webhook answers 200 for anything Telegram should not redeliver and 500 when
// the delivery could not be decoded or processing failed.
func webhook(o Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeText(w, http.StatusOK, "OK")
			return
		}
		log := logger.WithRequestID(o.Log, uuid.NewString())

		var upd tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			log.Error().Err(err).Msg("webhook: bad update")
			writeText(w, http.StatusInternalServerError, "Error")
			return
		}

		// Processing outlives a dropped connection; Telegram will retry otherwise.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), o.UpdateTimeout)
		defer cancel()
		ctx = log.WithContext(ctx)

		handled, err := telegram.Dispatch(ctx, o.Handler, upd)
		if err != nil {
			log.Error().Err(err).Int("update_id", upd.UpdateID).Msg("webhook: update failed")
			writeText(w, http.StatusInternalServerError, "Error")
			return
		}
		log.Debug().Int("update_id", upd.UpdateID).Bool("handled", handled).Msg("webhook: update done")
		writeText(w, http.StatusOK, "OK")
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
