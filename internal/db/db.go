// Package db opens the task persister selected by configuration.
package db

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"todolist/internal/config"
	"todolist/pkg/task"
)

// Connect opens a PostgreSQL pool and checks it is reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Open returns the Persister for cfg.Backend.
func Open(ctx context.Context, cfg *config.Config) (task.Persister, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return task.NewFileStore(cfg.File), nil
	case config.BackendSQLite:
		return task.OpenSQLStore(ctx, task.DialectSQLite, cfg.DSN)
	case config.BackendMySQL:
		return task.OpenSQLStore(ctx, task.DialectMySQL, cfg.DSN)
	case config.BackendPostgres:
		pool, err := Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		store := task.NewPgStore(pool)
		if err := store.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure tasks table: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// OpenStore opens the configured persister and loads the task list from
// it. The persister is closed again if loading fails.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*task.Store, error) {
	p, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := task.Open(ctx, p, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}
