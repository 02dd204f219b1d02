package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"             // sqlite driver
)

const schema = `
create table if not exists document_texts (
  chat_id      bigint not null,
  message_id   bigint not null,
  text         text   not null,
  created_unix bigint not null,
  primary key (chat_id, message_id)
);
create index if not exists document_texts_created_idx on document_texts (created_unix);`

// SQLCache is a TextCache over database/sql. The same queries run on
// Postgres (pgx) and SQLite (modernc).
type SQLCache struct {
	DB     *sql.DB
	maxAge time.Duration
	now    Clock
}

func NewSQLCache(db *sql.DB, maxAge time.Duration) *SQLCache {
	return &SQLCache{DB: db, maxAge: maxAge, now: time.Now}
}

func OpenPostgres(ctx context.Context, dsn string, maxAge time.Duration) (*SQLCache, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)
	return initSQLCache(ctx, db, maxAge)
}

func OpenSQLite(ctx context.Context, path string, maxAge time.Duration) (*SQLCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// one writer; also keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)
	return initSQLCache(ctx, db, maxAge)
}

func initSQLCache(ctx context.Context, db *sql.DB, maxAge time.Duration) (*SQLCache, error) {
	c := NewSQLCache(db, maxAge)
	if err := c.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLCache) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Put upserts the text; PK is (chat_id, message_id).
func (c *SQLCache) Put(ctx context.Context, chatID int64, messageID int, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	const q = `
insert into document_texts (chat_id, message_id, text, created_unix)
values ($1, $2, $3, $4)
on conflict (chat_id, message_id)
do update set text = excluded.text, created_unix = excluded.created_unix`
	_, err := c.DB.ExecContext(ctx, q, chatID, int64(messageID), text, c.now().Unix())
	return err
}

// Get returns ErrNotFound for missing rows and rows older than maxAge.
func (c *SQLCache) Get(ctx context.Context, chatID int64, messageID int) (Entry, error) {
	const q = `select text, created_unix from document_texts where chat_id = $1 and message_id = $2`
	var (
		text string
		ts   int64
	)
	err := c.DB.QueryRowContext(ctx, q, chatID, int64(messageID)).Scan(&text, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	created := time.Unix(ts, 0)
	if c.maxAge > 0 && c.now().Sub(created) > c.maxAge {
		return Entry{}, ErrNotFound
	}
	return Entry{Text: text, CreatedAt: created}, nil
}

// PurgeOlderThan deletes stale rows so the table does not grow forever.
func (c *SQLCache) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := c.now().Add(-olderThan).Unix()
	res, err := c.DB.ExecContext(ctx, `delete from document_texts where created_unix < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

func (c *SQLCache) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}

func (c *SQLCache) Close() error { return c.DB.Close() }
