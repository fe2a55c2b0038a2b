package repository

import (
	"context"
	"errors"

	"github.com/tokobuah/storefront/internal/domain"
)

var (
	ErrCartNotFound        = errors.New("cart not found")
	ErrItemNotFound        = errors.New("item not found in cart")
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateKey        = errors.New("duplicate idempotency key")
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type ProductRepository interface {
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	SetToken(ctx context.Context, id, token string) error
	SetStatus(ctx context.Context, id string, status domain.TransactionStatus) error
	SetEventEmitted(ctx context.Context, id string) error
	SetCartCleared(ctx context.Context, id string) error
	ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]*domain.Transaction, error)
	ListPaidWithoutEvent(ctx context.Context, limit int) ([]*domain.Transaction, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, uid string) (*domain.UserProfile, error)
	UpsertUser(ctx context.Context, u *domain.UserProfile) error
	UpdateProfile(ctx context.Context, uid string, displayName, phone, address *string) error
}

type OutboxRepository interface {
	Append(ctx context.Context, ev *domain.OutboxEvent) error
	FetchUnprocessed(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id string) error
}
