// Package ocr turns document photos into plain text.
//
// Engines talk to a concrete OCR backend and report errors; Extractor wraps an
// engine so that callers only ever see "text" or "no text".
package ocr

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrNoText = errors.New("no text detected")

// Engine is a single OCR backend.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Options shared by engine constructors.
type Options struct {
	Langs []string // language hints, e.g. ["uk","en"]
	Model string   // backend specific model name, optional
}

// Extractor is the OCR adapter used by the session controller.
type Extractor struct {
	engine  Engine
	log     zerolog.Logger
	timeout time.Duration
}

func NewExtractor(engine Engine, log zerolog.Logger, timeout time.Duration) *Extractor {
	return &Extractor{
		engine:  engine,
		log:     log.With().Str("component", "ocr").Str("engine", engine.Name()).Logger(),
		timeout: timeout,
	}
}

// ExtractText returns the recognized text, or false when the engine failed or
// found nothing. Failures are logged here and never returned.
func (x *Extractor) ExtractText(ctx context.Context, image []byte) (string, bool) {
	if len(image) == 0 {
		x.log.Warn().Msg("empty image")
		return "", false
	}
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	start := time.Now()
	txt, err := x.engine.Recognize(ctx, image)
	if err != nil {
		ev := x.log.Error()
		if errors.Is(err, ErrNoText) {
			ev = x.log.Info()
		}
		ev.Err(err).Int("image_bytes", len(image)).Dur("took", time.Since(start)).Msg("ocr failed")
		return "", false
	}
	txt = strings.TrimSpace(txt)
	if txt == "" {
		x.log.Info().Int("image_bytes", len(image)).Msg("ocr returned no text")
		return "", false
	}
	x.log.Debug().Int("text_len", len(txt)).Dur("took", time.Since(start)).Msg("ocr done")
	return txt, true
}
