package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	dialTimeout     = 10 * time.Second
	selectionWindow = 5 * time.Second
	poolSize        = 50
)

// ConnectMongoDB dials the cluster, verifies a primary answers, and hands
// back the storefront database handle. Retryable writes keep the single-write
// repository operations safe across a primary step-down.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(selectionWindow).
		SetMaxPoolSize(poolSize).
		SetRetryWrites(true)

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client.Database(database), nil
}
