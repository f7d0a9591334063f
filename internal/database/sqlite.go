package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/stwalsh4118/recordbook/internal/config"
)

// SQLite wraps a sqlx handle on a SQLite file.
type SQLite struct {
	DB *sqlx.DB
}

// Record timestamps are stored as Unix nanoseconds so ordering is numeric.
var sqliteSchema = []string{
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
		record_date INTEGER NOT NULL,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_name ON records (name)`,
	`CREATE INDEX IF NOT EXISTS idx_records_email ON records (email)`,
	`CREATE INDEX IF NOT EXISTS idx_records_location ON records (state, district, city)`,
	`CREATE INDEX IF NOT EXISTS idx_records_record_date ON records (record_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records (created_at DESC)`,
}

// NewSQLite opens the SQLite database at cfg.URI (":memory:" is allowed)
// and applies the records schema.
func NewSQLite(ctx context.Context, cfg config.DatabaseConfig) (*SQLite, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &SQLite{DB: db}, nil
}

// Ping checks that the database file is usable.
func (db *SQLite) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// Close closes the database handle.
func (db *SQLite) Close(_ context.Context) error {
	if db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
