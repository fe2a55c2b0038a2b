// Package checkout orchestrates the cart-to-order flow: snapshot the cart,
// create the transaction, obtain a payment token, and settle the order from
// gateway callbacks.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/identity"
	"github.com/tokobuah/storefront/internal/payment"
	"github.com/tokobuah/storefront/internal/repository"
)

// CartService is the slice of the cart manager the flow needs.
type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	carts    CartService
	txs      repository.TransactionRepository
	outbox   repository.OutboxRepository
	payments payment.Gateway
	logger   *logrus.Logger
	now      func() time.Time
}

func NewService(
	carts CartService,
	txs repository.TransactionRepository,
	outbox repository.OutboxRepository,
	payments payment.Gateway,
	logger *logrus.Logger,
) *Service {
	return &Service{
		carts:    carts,
		txs:      txs,
		outbox:   outbox,
		payments: payments,
		logger:   logger,
		now:      time.Now,
	}
}

// InitiateRequest is the checkout submission. ShippingOption takes the option
// key or its display label. ClientTotal, when present, is the subtotal the
// client displayed and must match the server-side computation. IdempotencyKey
// makes resubmissions return the original order.
type InitiateRequest struct {
	Address        string
	Phone          string
	ShippingOption string
	ClientTotal    *int64
	IdempotencyKey string
}

type InitiateResult struct {
	OrderID     string
	Token       string
	RedirectURL string
	Status      domain.TransactionStatus
}

// Initiate runs the Idle→OrderRequested transition: it refuses
// unauthenticated or empty-cart checkouts, snapshots the cart, persists the
// transaction, and obtains the payment token. Any failure aborts without
// touching the cart.
func (s *Service) Initiate(ctx context.Context, sess *identity.Session, req *InitiateRequest) (*InitiateResult, error) {
	if sess == nil || sess.UID == "" {
		return nil, ErrNotAuthenticated
	}
	if req.Address == "" || req.Phone == "" {
		return nil, ErrMissingProfileContact
	}

	if req.IdempotencyKey != "" {
		existing, err := s.txs.GetTransactionByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			// A failed attempt is not replayable: handing back the dead
			// order would strand the caller without a payment token.
			if existing.Status == domain.StatusFailed {
				return nil, fmt.Errorf("%w: %q", ErrStaleIdempotencyKey, req.IdempotencyKey)
			}
			s.logger.WithFields(logrus.Fields{
				"idempotency_key": req.IdempotencyKey,
				"order_id":        existing.ID,
				"status":          existing.Status,
			}).Info("duplicate checkout request, returning existing order")
			return &InitiateResult{
				OrderID: existing.ID,
				Token:   existing.Token,
				Status:  existing.Status,
			}, nil
		}
	}

	shippingKey, shipping, ok := domain.ResolveShipping(req.ShippingOption)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShipping, req.ShippingOption)
	}

	cart, err := s.carts.Get(ctx, sess.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	subtotal := cart.Subtotal()
	if req.ClientTotal != nil && *req.ClientTotal != subtotal {
		return nil, fmt.Errorf("%w: client %d, server %d", ErrTotalMismatch, *req.ClientTotal, subtotal)
	}
	total := subtotal + shipping.Cost

	now := s.now()
	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      sess.UID,
		Email:       sess.Email,
		Address:     req.Address,
		Phone:       req.Phone,
		DisplayName: sess.DisplayName,
		Items:       append([]domain.CartItem(nil), cart.Items...),
		Subtotal:    subtotal,
		Shipping: domain.ShippingSelection{
			Option: shippingKey,
			Name:   shipping.Name,
			Cost:   shipping.Cost,
		},
		Total:          total,
		Status:         domain.StatusCreated,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}

	if err := s.txs.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost the race against a concurrent submission with the same key.
			return s.replayIdempotent(ctx, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	token, err := s.payments.IssueToken(ctx, &payment.TokenRequest{
		OrderID:     tx.ID,
		GrossAmount: total,
		Items:       tx.Items,
		Shipping:    tx.Shipping,
		Customer: payment.Customer{
			Name:  sess.DisplayName,
			Email: sess.Email,
			Phone: req.Phone,
		},
	})
	if err != nil {
		if markErr := s.txs.SetStatus(ctx, tx.ID, domain.StatusFailed); markErr != nil {
			s.logger.WithError(markErr).WithField("order_id", tx.ID).
				Error("failed to mark transaction after token failure")
		}
		return nil, fmt.Errorf("failed to obtain payment token: %w", err)
	}

	if err := s.txs.SetToken(ctx, tx.ID, token.Token); err != nil {
		return nil, fmt.Errorf("failed to persist payment token: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": tx.ID,
		"user_id":  sess.UID,
		"subtotal": subtotal,
		"total":    total,
		"items":    len(tx.Items),
	}).Info("checkout initiated")

	return &InitiateResult{
		OrderID:     tx.ID,
		Token:       token.Token,
		RedirectURL: token.RedirectURL,
		Status:      domain.StatusCreated,
	}, nil
}

func (s *Service) replayIdempotent(ctx context.Context, key string) (*InitiateResult, error) {
	existing, err := s.txs.GetTransactionByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate transaction: %w", err)
	}
	if existing.Status == domain.StatusFailed {
		return nil, fmt.Errorf("%w: %q", ErrStaleIdempotencyKey, key)
	}
	return &InitiateResult{
		OrderID: existing.ID,
		Token:   existing.Token,
		Status:  existing.Status,
	}, nil
}

// orderPaidPayload is the outbox event body for order.paid.
type orderPaidPayload struct {
	OrderID  string                   `json:"order_id"`
	UserID   string                   `json:"user_id"`
	Items    []domain.CartItem        `json:"items"`
	Subtotal int64                    `json:"subtotal"`
	Shipping domain.ShippingSelection `json:"shipping"`
	Total    int64                    `json:"total"`
	PaidAt   time.Time                `json:"paid_at"`
}

// BuildOrderPaidEvent serializes the order.paid payload for a transaction.
// Shared with the outbox recovery poller.
func BuildOrderPaidEvent(tx *domain.Transaction, paidAt time.Time) (*domain.OutboxEvent, error) {
	payload, err := json.Marshal(orderPaidPayload{
		OrderID:  tx.ID,
		UserID:   tx.UserID,
		Items:    tx.Items,
		Subtotal: tx.Subtotal,
		Shipping: tx.Shipping,
		Total:    tx.Total,
		PaidAt:   paidAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order.paid payload: %w", err)
	}

	return &domain.OutboxEvent{
		AggregateID: tx.ID,
		EventType:   domain.EventOrderPaid,
		Payload:     payload,
	}, nil
}
