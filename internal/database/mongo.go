// Package database manages the process-scoped MongoDB client and collection handles.
package database

import (
	"context"
	"fmt"
	"time"

	"tastebook/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Store wraps the shared MongoDB client. It is created once at startup,
// injected into repositories, and closed through Shutdown.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
	}, nil
}

// Users returns the handle for the users collection.
func (s *Store) Users() *mongo.Collection {
	return s.db.Collection("users")
}

// Recipes returns the handle for the recipes collection.
func (s *Store) Recipes() *mongo.Collection {
	return s.db.Collection("recipes")
}

// EnsureIndexes creates the indexes the application relies on. The unique
// email index is what turns a concurrent duplicate registration into a
// storage-level conflict instead of a lost race.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	_, err := s.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	_, err = s.Recipes().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ratings.userId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create recipes indexes: %w", err)
	}

	return nil
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Shutdown disconnects the client.
func (s *Store) Shutdown(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
