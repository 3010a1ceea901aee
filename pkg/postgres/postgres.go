// Package postgres provides a formz.Catalog backed by a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zoobzio/formz"
)

// DefaultTable is the table used when WithTable is not given.
const DefaultTable = "catalog_items"

// Catalog stores one row per item. Dates are kept as text so that the
// stored value round-trips exactly as entered.
//
// Schema:
//
//	CREATE TABLE catalog_items (
//	    id            TEXT PRIMARY KEY,
//	    name          TEXT NOT NULL,
//	    description   TEXT NOT NULL,
//	    logo          TEXT NOT NULL,
//	    date_release  TEXT NOT NULL,
//	    date_revision TEXT NOT NULL
//	);
type Catalog struct {
	pool  *pgxpool.Pool
	table string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTable sets the table name. Defaults to "catalog_items".
func WithTable(table string) Option {
	return func(c *Catalog) {
		c.table = table
	}
}

// New creates a Catalog over pool.
func New(pool *pgxpool.Pool, opts ...Option) *Catalog {
	c := &Catalog{
		pool:  pool,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ formz.Catalog = (*Catalog)(nil)

// Migrate creates the table if it does not exist.
func (c *Catalog) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL,
			logo          TEXT NOT NULL,
			date_release  TEXT NOT NULL,
			date_revision TEXT NOT NULL
		)`, c.ident()))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.table, err)
	}
	return nil
}

func (c *Catalog) ident() string {
	return pgx.Identifier{c.table}.Sanitize()
}

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", c.ident())
	if err := c.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres exists %s: %w", id, err)
	}
	return exists, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	query := fmt.Sprintf(
		"SELECT id, name, description, logo, date_release, date_revision FROM %s WHERE id = $1",
		c.ident(),
	)
	var item formz.Item
	err := c.pool.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Logo, &item.DateRelease, &item.DateRevision,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("postgres get %s: %w", id, err)
	}
	return item, nil
}

// List returns every item ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	query := fmt.Sprintf(
		"SELECT id, name, description, logo, date_release, date_revision FROM %s ORDER BY id",
		c.ident(),
	)
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (formz.Item, error) {
		var item formz.Item
		err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Logo, &item.DateRelease, &item.DateRevision)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	return items, nil
}

// Create inserts a new item.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, logo, date_release, date_revision)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`, c.ident())
	tag, err := c.pool.Exec(ctx, query,
		item.ID, item.Name, item.Description, item.Logo, item.DateRelease, item.DateRevision,
	)
	if err != nil {
		return fmt.Errorf("postgres create %s: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return formz.ErrExists
	}
	return nil
}

// Update replaces the item stored under id.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, description = $3, logo = $4, date_release = $5, date_revision = $6
		WHERE id = $1`, c.ident())
	tag, err := c.pool.Exec(ctx, query,
		id, item.Name, item.Description, item.Logo, item.DateRelease, item.DateRevision,
	)
	if err != nil {
		return fmt.Errorf("postgres update %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return formz.ErrNotFound
	}
	return nil
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.ident()), id)
	if err != nil {
		return fmt.Errorf("postgres delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return formz.ErrNotFound
	}
	return nil
}
