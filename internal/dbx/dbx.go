// Package dbx wraps a pgxpool.Pool and provides transaction support shared by
// every store in internal/store.
package dbx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool.Pool and provides transaction support. It is the main
// entry point for database operations for both cmd/server and cmd/worker.
type DB struct {
	pool *pgxpool.Pool
}

type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// New creates a new DB instance with the given configuration and verifies
// connectivity with a ping.
func New(ctx context.Context, cfg Config) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying pgxpool.Pool for non-transactional queries.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting stores
// accept either a pooled connection or an in-flight transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx executes fn within a database transaction, committing on success and
// rolling back if fn returns an error or panics.
//
// Usage:
//
//	err := db.WithTx(ctx, func(tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "update ...")
//	    return err
//	})
func (db *DB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
