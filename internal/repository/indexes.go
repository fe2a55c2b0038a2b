package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates every index the storefront relies on. Called once at
// startup; CreateMany is a no-op for indexes that already exist.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	carts := &mongoCartRepository{collection: db.Collection("carts")}
	if err := carts.CreateIndexes(ctx); err != nil {
		return err
	}

	txs := &mongoTransactionRepository{collection: db.Collection("transactions")}
	if err := txs.CreateIndexes(ctx); err != nil {
		return err
	}

	return nil
}
