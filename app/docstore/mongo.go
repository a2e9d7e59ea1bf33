package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used by the assistant.
const (
	SearchResultsCollection = "search_results"
	SavedPlacesCollection   = "saved_places"
	ChatLogsCollection      = "chat_logs"
)

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	logger.Info("Connecting to MongoDB...")
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		logger.Error("Failed to connect to MongoDB", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Error("MongoDB ping failed", slog.Any("error", err))
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("MongoDB connection established")
	return client, nil
}

// EnsureIndexes creates the unique (userId, tripId) index on every per-trip collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	for _, name := range []string{SearchResultsCollection, SavedPlacesCollection, ChatLogsCollection} {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "tripId", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			logger.Error("Failed to create index", slog.String("collection", name), slog.Any("error", err))
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}
