package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "documind:doc:"

type RedisConfig struct {
	URL          string
	TTL          time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// RedisCache stores entries as JSON with the configured TTL as expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    Clock
}

func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	c := newRedisCache(redis.NewClient(opts), cfg.TTL)
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func newRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, now: time.Now}
}

type redisValue struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func redisKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%s%d:%d", redisKeyPrefix, chatID, messageID)
}

func (c *RedisCache) Put(ctx context.Context, chatID int64, messageID int, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	b, err := json.Marshal(redisValue{Text: text, CreatedAt: c.now().UTC()})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, redisKey(chatID, messageID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, chatID int64, messageID int) (Entry, error) {
	b, err := c.client.Get(ctx, redisKey(chatID, messageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeRedisValue(b)
}

func decodeRedisValue(b []byte) (Entry, error) {
	var v redisValue
	if err := json.Unmarshal(b, &v); err != nil || strings.TrimSpace(v.Text) == "" {
		// a broken value is as good as no value
		return Entry{}, ErrNotFound
	}
	return Entry{Text: v.Text, CreatedAt: v.CreatedAt}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error { return c.client.Close() }
