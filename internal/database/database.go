// Package database opens the connections backing the record store.
package database

import "context"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connection is an open backing store.
type Connection interface {
	Pinger
	Close(ctx context.Context) error
}
