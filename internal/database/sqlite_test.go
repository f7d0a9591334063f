package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/recordbook/internal/config"
)

func sqliteConfig(uri string) config.DatabaseConfig {
	return config.DatabaseConfig{Driver: config.DriverSQLite, URI: uri, PoolMax: 1, Timeout: time.Second}
}

func TestNewSQLite_InMemory(t *testing.T) {
	ctx := context.Background()

	db, err := NewSQLite(ctx, sqliteConfig(":memory:"))
	require.NoError(t, err)
	defer db.Close(ctx)

	assert.NoError(t, db.Ping(ctx))

	var count int
	require.NoError(t, db.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM records`))
	assert.Zero(t, count)
}

func TestNewSQLite_FileSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	first, err := NewSQLite(ctx, sqliteConfig(path))
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := NewSQLite(ctx, sqliteConfig(path))
	require.NoError(t, err)
	defer second.Close(ctx)

	var indexes int
	require.NoError(t, second.DB.GetContext(ctx, &indexes,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_records_%'`))
	assert.Equal(t, 5, indexes)
}

func TestSQLite_PingAfterClose(t *testing.T) {
	ctx := context.Background()

	db, err := NewSQLite(ctx, sqliteConfig(":memory:"))
	require.NoError(t, err)
	require.NoError(t, db.Close(ctx))

	assert.Error(t, db.Ping(ctx))
}

func TestConnectionsSatisfyInterface(t *testing.T) {
	var _ Connection = (*Postgres)(nil)
	var _ Connection = (*Mongo)(nil)
	var _ Connection = (*SQLite)(nil)
}
