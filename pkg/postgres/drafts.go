package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zoobzio/formz"
)

// DefaultDraftTable holds shared drafts keyed by name.
const DefaultDraftTable = "catalog_drafts"

// DefaultDraftChannel is the LISTEN/NOTIFY channel PublishDraft notifies on.
const DefaultDraftChannel = "formz_drafts"

// DraftWatcher emits a stored draft each time PublishDraft (or anything
// else calling pg_notify with the draft key) announces a change.
type DraftWatcher struct {
	pool    *pgxpool.Pool
	key     string
	table   string
	channel string
}

var _ formz.Watcher = (*DraftWatcher)(nil)

// DraftOption configures draft storage for DraftWatcher and PublishDraft.
type DraftOption func(*draftConfig)

type draftConfig struct {
	table   string
	channel string
}

// WithDraftTable sets the draft table. Defaults to DefaultDraftTable.
func WithDraftTable(table string) DraftOption {
	return func(c *draftConfig) {
		c.table = table
	}
}

// WithDraftChannel sets the notification channel. Defaults to DefaultDraftChannel.
func WithDraftChannel(channel string) DraftOption {
	return func(c *draftConfig) {
		c.channel = channel
	}
}

func newDraftConfig(opts []DraftOption) draftConfig {
	c := draftConfig{table: DefaultDraftTable, channel: DefaultDraftChannel}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewDraftWatcher creates a watcher for the draft stored under key.
func NewDraftWatcher(pool *pgxpool.Pool, key string, opts ...DraftOption) *DraftWatcher {
	c := newDraftConfig(opts)
	return &DraftWatcher{pool: pool, key: key, table: c.table, channel: c.channel}
}

// MigrateDrafts creates the draft table if it does not exist.
func MigrateDrafts(ctx context.Context, pool *pgxpool.Pool, opts ...DraftOption) error {
	c := newDraftConfig(opts)
	_, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, pgx.Identifier{c.table}.Sanitize()))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.table, err)
	}
	return nil
}

// PublishDraft upserts the draft under key and notifies watchers in the
// same transaction.
func PublishDraft(ctx context.Context, pool *pgxpool.Pool, key string, data []byte, opts ...DraftOption) error {
	c := newDraftConfig(opts)
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			pgx.Identifier{c.table}.Sanitize()), key, string(data))
		if err != nil {
			return fmt.Errorf("postgres publish draft %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", c.channel, key); err != nil {
			return fmt.Errorf("postgres notify draft %s: %w", key, err)
		}
		return nil
	})
}

// Watch holds one pooled connection listening on the channel until ctx
// ends. The current draft is emitted first when one is stored.
func (w *DraftWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer conn.Release()

		emit := func() bool {
			value, err := w.fetch(ctx)
			if err != nil || value == nil {
				return ctx.Err() == nil
			}
			select {
			case out <- value:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if n.Payload != w.key {
				continue
			}
			if !emit() {
				return
			}
		}
	}()
	return out, nil
}

func (w *DraftWatcher) fetch(ctx context.Context) ([]byte, error) {
	var value string
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", pgx.Identifier{w.table}.Sanitize())
	err := w.pool.QueryRow(ctx, query, w.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}
