// Package sqlite provides a formz.Catalog backed by a SQLite database.
// The schema is managed with embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zoobzio/formz"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type row struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Logo         string `db:"logo"`
	DateRelease  string `db:"date_release"`
	DateRevision string `db:"date_revision"`
}

func (r row) item() formz.Item {
	return formz.Item{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Logo:         r.Logo,
		DateRelease:  r.DateRelease,
		DateRevision: r.DateRevision,
	}
}

func fromItem(id string, item formz.Item) row {
	return row{
		ID:           id,
		Name:         item.Name,
		Description:  item.Description,
		Logo:         item.Logo,
		DateRelease:  item.DateRelease,
		DateRevision: item.DateRevision,
	}
}

// Catalog stores items in the catalog_items table.
type Catalog struct {
	db *sqlx.DB
}

var _ formz.Catalog = (*Catalog)(nil)

// Open opens the database at dsn and applies pending migrations.
// Use ":memory:" or "file::memory:?cache=shared" for a throwaway database.
func Open(dsn string) (*Catalog, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps in-memory databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Catalog{db: db}, nil
}

func migrateUp(db *sqlx.DB) error {
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{NoTxWrap: true})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Exists reports whether id is assigned.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := c.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM catalog_items WHERE id = ?)`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite exists %s: %w", id, err)
	}
	return exists, nil
}

// Get returns the item stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (formz.Item, error) {
	var r row
	err := c.db.GetContext(ctx, &r, `SELECT * FROM catalog_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return formz.Item{}, formz.ErrNotFound
	}
	if err != nil {
		return formz.Item{}, fmt.Errorf("sqlite get %s: %w", id, err)
	}
	return r.item(), nil
}

// List returns every item ordered by id.
func (c *Catalog) List(ctx context.Context) ([]formz.Item, error) {
	var rows []row
	if err := c.db.SelectContext(ctx, &rows, `SELECT * FROM catalog_items ORDER BY id`); err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	items := make([]formz.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	return items, nil
}

// Create inserts a new item.
func (c *Catalog) Create(ctx context.Context, item formz.Item) error {
	res, err := c.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO catalog_items (id, name, description, logo, date_release, date_revision)
		VALUES (:id, :name, :description, :logo, :date_release, :date_revision)`,
		fromItem(item.ID, item))
	if err != nil {
		return fmt.Errorf("sqlite create %s: %w", item.ID, err)
	}
	return affected(res, formz.ErrExists)
}

// Update replaces the item stored under id.
func (c *Catalog) Update(ctx context.Context, id string, item formz.Item) error {
	res, err := c.db.NamedExecContext(ctx, `
		UPDATE catalog_items
		SET name = :name, description = :description, logo = :logo,
		    date_release = :date_release, date_revision = :date_revision
		WHERE id = :id`,
		fromItem(id, item))
	if err != nil {
		return fmt.Errorf("sqlite update %s: %w", id, err)
	}
	return affected(res, formz.ErrNotFound)
}

// Delete removes the item stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite delete %s: %w", id, err)
	}
	return affected(res, formz.ErrNotFound)
}

func affected(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}
