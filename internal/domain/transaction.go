package domain

import "time"

// Transaction is an order created at checkout time. The cart contents are
// snapshotted into Items; the document is immutable after creation except for
// Status and the paid-transition bookkeeping flags.
type Transaction struct {
	ID             string            `bson:"_id" json:"orderId"`
	UserID         string            `bson:"user_id" json:"userId"`
	Email          string            `bson:"email" json:"email"`
	Address        string            `bson:"address" json:"address"`
	Phone          string            `bson:"phone" json:"phone"`
	DisplayName    string            `bson:"display_name" json:"displayName"`
	Items          []CartItem        `bson:"items" json:"cartItems"`
	Subtotal       int64             `bson:"subtotal" json:"subtotal"`
	Shipping       ShippingSelection `bson:"shipping" json:"shipping"`
	Total          int64             `bson:"total" json:"total"`
	Status         TransactionStatus `bson:"status" json:"status"`
	Token          string            `bson:"token,omitempty" json:"-"`
	IdempotencyKey string            `bson:"idempotency_key,omitempty" json:"-"`
	EventEmitted   bool              `bson:"event_emitted" json:"-"`
	CartCleared    bool              `bson:"cart_cleared" json:"-"`
	CreatedAt      time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"-"`
}

// OutboxEvent is a pending integration event, published to the broker by the
// outbox poller after the transaction write that produced it.
type OutboxEvent struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregate_id"` // transaction id, used as the message key
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

const EventOrderPaid = "order.paid"
