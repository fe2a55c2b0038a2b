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

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (m *mongoUserRepository) GetUser(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var user domain.UserProfile

	err := m.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (m *mongoUserRepository) UpsertUser(ctx context.Context, u *domain.UserProfile) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	// Contact fields are owned by UpdateProfile; a repeated sign-in must not
	// blank them out.
	update := bson.M{
		"$set": bson.M{
			"email":        u.Email,
			"display_name": u.DisplayName,
		},
		"$setOnInsert": bson.M{
			"role":       u.Role,
			"phone":      u.Phone,
			"address":    u.Address,
			"created_at": u.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": u.UID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdateProfile changes only the fields that are non-nil. The role is never
// touched through this path.
func (m *mongoUserRepository) UpdateProfile(ctx context.Context, uid string, displayName, phone, address *string) error {
	fields := bson.M{}
	if displayName != nil {
		fields["display_name"] = *displayName
	}
	if phone != nil {
		fields["phone"] = *phone
	}
	if address != nil {
		fields["address"] = *address
	}
	if len(fields) == 0 {
		return nil
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
