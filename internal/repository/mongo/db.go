package mongo

import (
	"context"
	"fmt"

	"github.com/Rrens/stackbot/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

// DB wraps the mongo client and the application database
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewDB connects to MongoDB and verifies the connection
func NewDB(ctx context.Context, cfg config.MongoConfig) (*DB, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return &DB{client: client, db: client.Database(cfg.Database)}, nil
}

// EnsureIndexes creates the createdAt indexes used by the list queries
func (d *DB) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}

	for _, name := range []string{conversationsCollection, messagesCollection} {
		if _, err := d.db.Collection(name).Indexes().CreateOne(ctx, index); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client
func (d *DB) Close(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	return d.client.Disconnect(ctx)
}

// Ping verifies connectivity
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

func (d *DB) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Drop removes the whole database. Used by integration tests.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}
