// Package db wires the pgx connection pool and schema migrations for the
// training-corpus store.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Corpus access is bursty: the generate command inserts thousands of rows
// back to back, then the pool sits idle until the next training run. A short
// connect timeout surfaces an unreachable database before a batch starts,
// and the health check reaps connections that died while the pool was idle.
const (
	connectTimeout    = 5 * time.Second
	healthCheckPeriod = time.Minute
)

// PoolConfig sizes the corpus store connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPool opens a pool against the corpus store and verifies the database
// is reachable before handing it out.
func NewPool(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.HealthCheckPeriod = healthCheckPeriod
	pc.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
