package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tokobuah/storefront/internal/domain"
)

type mongoTransactionRepository struct {
	collection *mongo.Collection
}

func NewMongoTransactionRepository(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepository{
		collection: db.Collection("transactions"),
	}
}

func (m *mongoTransactionRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	now := time.Now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, tx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (m *mongoTransactionRepository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (m *mongoTransactionRepository) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	var tx domain.Transaction

	err := m.collection.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return &tx, nil
}

func (m *mongoTransactionRepository) SetToken(ctx context.Context, id, token string) error {
	return m.setFields(ctx, id, bson.M{"token": token})
}

func (m *mongoTransactionRepository) SetStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	return m.setFields(ctx, id, bson.M{"status": status})
}

func (m *mongoTransactionRepository) SetEventEmitted(ctx context.Context, id string) error {
	return m.setFields(ctx, id, bson.M{"event_emitted": true})
}

func (m *mongoTransactionRepository) SetCartCleared(ctx context.Context, id string) error {
	return m.setFields(ctx, id, bson.M{"cart_cleared": true})
}

func (m *mongoTransactionRepository) setFields(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (m *mongoTransactionRepository) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return m.list(ctx, bson.M{"user_id": userID}, 0)
}

func (m *mongoTransactionRepository) ListAllTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	return m.list(ctx, bson.M{}, 0)
}

// ListPaidWithoutEvent finds paid transactions whose order.paid event was
// never appended to the outbox, so the poller can recover them.
func (m *mongoTransactionRepository) ListPaidWithoutEvent(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	filter := bson.M{
		"status":        domain.StatusPaid,
		"event_emitted": false,
	}
	return m.list(ctx, filter, int64(limit))
}

func (m *mongoTransactionRepository) list(ctx context.Context, filter bson.M, limit int64) ([]*domain.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []*domain.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return txs, nil
}

func (m *mongoTransactionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "event_emitted", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
