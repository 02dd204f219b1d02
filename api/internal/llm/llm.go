// Package llm runs document text through a text-generation backend using
// per-action instruction profiles.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"documind-bot/api/internal/util"
)

// FallbackText replaces any generation result the backend failed to produce.
const FallbackText = "⚠️ *AI error.* The model could not process the text, please try again later."

// Generator is a single generation backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, system, text string) (string, error)
}

// Service is the generation adapter used by the session controller. It never
// fails: errors are logged and turned into FallbackText.
type Service struct {
	gen     Generator
	log     zerolog.Logger
	timeout time.Duration
}

func NewService(gen Generator, log zerolog.Logger, timeout time.Duration) *Service {
	return &Service{
		gen:     gen,
		log:     log.With().Str("component", "llm").Str("provider", gen.Name()).Logger(),
		timeout: timeout,
	}
}

func (s *Service) Generate(ctx context.Context, text string, p Profile) string {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := s.gen.Generate(ctx, p.Instruction, text)
	if err != nil {
		s.log.Error().Err(err).Str("profile", p.Action).Dur("took", time.Since(start)).Msg("generation failed")
		return FallbackText
	}
	out = strings.TrimSpace(util.StripCodeFences(out))
	if out == "" {
		s.log.Warn().Str("profile", p.Action).Msg("generation returned empty text")
		return FallbackText
	}
	s.log.Debug().Str("profile", p.Action).Int("out_len", len(out)).Dur("took", time.Since(start)).Msg("generation done")
	return out
}
