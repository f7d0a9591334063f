package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stwalsh4118/recordbook/internal/config"
)

// Postgres wraps the pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// postgresSchema creates the records table and its indexes.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		phone       TEXT NOT NULL,
		email       TEXT NOT NULL,
		address     TEXT NOT NULL,
		state       TEXT NOT NULL,
		district    TEXT NOT NULL,
		city        TEXT NOT NULL,
		zipcode     TEXT NOT NULL,
		record_date TIMESTAMPTZ NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_name ON records (name)`,
	`CREATE INDEX IF NOT EXISTS idx_records_email ON records (email)`,
	`CREATE INDEX IF NOT EXISTS idx_records_location ON records (state, district, city)`,
	`CREATE INDEX IF NOT EXISTS idx_records_record_date ON records (record_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records (created_at DESC)`,
}

// NewPostgresPool creates a PostgreSQL connection pool from cfg.URI,
// tests the connection and makes sure the records schema exists.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)

	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &Postgres{Pool: pool}
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the records table and indexes when missing.
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks if the database connection is alive.
func (db *Postgres) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close gracefully closes the connection pool.
func (db *Postgres) Close(_ context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	return nil
}

// Stats returns statistics about the connection pool.
func (db *Postgres) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}
