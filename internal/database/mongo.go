package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/stwalsh4118/recordbook/internal/config"
)

// RecordsCollection is the collection holding records.
const RecordsCollection = "records"

// Mongo wraps a MongoDB client bound to one database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongo connects to cfg.URI, pings the primary and ensures the records
// indexes exist.
func NewMongo(ctx context.Context, cfg config.DatabaseConfig) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMinPoolSize(uint64(cfg.PoolMin)).
		SetMaxPoolSize(uint64(cfg.PoolMax)).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := &Mongo{Client: client, DB: client.Database(cfg.Name)}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return db, nil
}

// Records returns the records collection.
func (db *Mongo) Records() *mongo.Collection {
	return db.DB.Collection(RecordsCollection)
}

// EnsureIndexes creates the indexes used by listing and lookups.
func (db *Mongo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "district", Value: 1}, {Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "recordDate", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Records().Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func (db *Mongo) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (db *Mongo) Close(ctx context.Context) error {
	if db.Client == nil {
		return nil
	}
	return db.Client.Disconnect(ctx)
}
