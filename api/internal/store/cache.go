// Package store keeps the extracted document text keyed by the menu message
// it was shown in.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("document text not found")
	ErrEmptyText = errors.New("refusing to cache empty text")
)

type Entry struct {
	Text      string
	CreatedAt time.Time
}

// TextCache maps (chat, message) to the document text. Get returns ErrNotFound
// for keys that were never written or have expired; it never returns an empty
// Entry with a nil error.
type TextCache interface {
	Put(ctx context.Context, chatID int64, messageID int, text string) error
	Get(ctx context.Context, chatID int64, messageID int) (Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

type Clock func() time.Time
