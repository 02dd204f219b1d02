package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memKey struct {
	chat int64
	msg  int
}

// MemoryCache is a process-local TextCache for polling mode, the CLI and tests.
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[memKey]Entry
	ttl time.Duration
	now Clock
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{m: make(map[memKey]Entry), ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Put(_ context.Context, chatID int64, messageID int, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	c.mu.Lock()
	c.m[memKey{chatID, messageID}] = Entry{Text: text, CreatedAt: c.now()}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, chatID int64, messageID int) (Entry, error) {
	c.mu.RLock()
	e, ok := c.m[memKey{chatID, messageID}]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, ErrNotFound
	}
	if c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl {
		c.mu.Lock()
		delete(c.m, memKey{chatID, messageID})
		c.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *MemoryCache) Ping(context.Context) error { return nil }
func (c *MemoryCache) Close() error               { return nil }
