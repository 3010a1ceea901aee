package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/pkg/memory"
	"github.com/zoobzio/formz/pkg/postgres"
	"github.com/zoobzio/formz/pkg/redis"
	"github.com/zoobzio/formz/pkg/sqlite"
)

// openCatalog builds the configured backend. The returned close function
// releases its connections.
func openCatalog(ctx context.Context, cfg CatalogConfig) (formz.Catalog, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case BackendMemory:
		return memory.New(), noop, nil

	case BackendSQLite:
		c, err := sqlite.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	case BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return redis.New(client, redis.WithPrefix(cfg.Redis.Prefix)), client.Close, nil

	case BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		c := postgres.New(pool, postgres.WithTable(cfg.Postgres.Table))
		if err := c.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return c, func() error { pool.Close(); return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
}
