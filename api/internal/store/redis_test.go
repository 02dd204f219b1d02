package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisKey(t *testing.T) {
	if got := redisKey(-100123, 42); got != "documind:doc:-100123:42" {
		t.Fatalf("redisKey() = %q", got)
	}
}

func TestDecodeRedisValue(t *testing.T) {
	e, err := decodeRedisValue([]byte(`{"text":"INVOICE #1","created_at":"2026-01-02T03:04:05Z"}`))
	if err != nil || e.Text != "INVOICE #1" || e.CreatedAt.Year() != 2026 {
		t.Fatalf("decodeRedisValue() = %+v, %v", e, err)
	}
	for _, raw := range []string{`not json`, `{"text":""}`} {
		if _, err := decodeRedisValue([]byte(raw)); !errors.Is(err, ErrNotFound) {
			t.Errorf("decodeRedisValue(%q) error = %v, want ErrNotFound", raw, err)
		}
	}
}

func TestRedisCache_RejectsEmptyBeforeNetwork(t *testing.T) {
	c := newRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond}), time.Hour)
	defer c.Close()
	if err := c.Put(context.Background(), 1, 1, ""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("Put(empty) error = %v", err)
	}
}

func TestRedisCache_UnreachableIsNotNotFound(t *testing.T) {
	c := newRedisCache(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}), time.Hour)
	defer c.Close()
	_, err := c.Get(context.Background(), 1, 1)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want transport error", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("Ping() must fail")
	}
}

func TestNewRedisCache_BadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatal("expected url error")
	}
}
