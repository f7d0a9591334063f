package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/recordbook/internal/config"
	"github.com/stwalsh4118/recordbook/internal/database"
)

// Store is an open record repository together with its connection.
type Store struct {
	Driver  string
	Records RecordRepository
	Conn    database.Connection
}

// Ping checks the backing connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.Conn.Ping(ctx)
}

// Close releases the backing connection.
func (s *Store) Close(ctx context.Context) error {
	return s.Conn.Close(ctx)
}

// memoryConn is the connection of the in-memory driver; it is always up.
type memoryConn struct{}

func (memoryConn) Ping(context.Context) error  { return nil }
func (memoryConn) Close(context.Context) error { return nil }

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := database.NewMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{Driver: cfg.Driver, Records: NewMongoRecordRepository(db), Conn: db}, nil

	case config.DriverPostgres:
		db, err := database.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{Driver: cfg.Driver, Records: NewPostgresRecordRepository(db), Conn: db}, nil

	case config.DriverSQLite:
		db, err := database.NewSQLite(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{Driver: cfg.Driver, Records: NewSQLiteRecordRepository(db), Conn: db}, nil

	case config.DriverMemory:
		return &Store{Driver: cfg.Driver, Records: NewMemoryRecordRepository(), Conn: memoryConn{}}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
