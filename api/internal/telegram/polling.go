package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// UpdateSource is satisfied by *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type Poller struct {
	src    UpdateSource
	handle func(context.Context, tgbotapi.Update)
	log    zerolog.Logger

	Timeout   int // long polling timeout, seconds
	BaseDelay time.Duration
	MaxDelay  time.Duration
	IdleDelay time.Duration
}

func NewPoller(src UpdateSource, handle func(context.Context, tgbotapi.Update), log zerolog.Logger) *Poller {
	return &Poller{
		src:       src,
		handle:    handle,
		log:       log.With().Str("component", "polling").Logger(),
		Timeout:   30,
		BaseDelay: 1 * time.Second,
		MaxDelay:  15 * time.Second,
		IdleDelay: 200 * time.Millisecond,
	}
}

// Run polls until ctx is cancelled. Updates are handled one at a time, in order.
// Telegram errors never stop the loop; they are retried after a delay.
func (p *Poller) Run(ctx context.Context) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			p.log.Info().Msg("polling stopped")
			return err
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = p.Timeout

		updates, err := p.src.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < p.BaseDelay {
				d = p.BaseDelay
			}
			if d > p.MaxDelay {
				d = p.MaxDelay
			}
			p.log.Warn().Err(err).Dur("retry_in", d).Msg("polling error")
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.handle(ctx, upd)
		}

		if len(updates) == 0 {
			sleep(ctx, p.IdleDelay)
		}
	}
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// sleep waits for d or until ctx is done; it reports whether the full delay passed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
