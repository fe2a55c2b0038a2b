package checkout

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/identity"
	"github.com/tokobuah/storefront/internal/payment"
)

// HandleGatewayNotification settles an order from the gateway's
// server-to-server callback. The signature is verified before any state is
// touched.
func (s *Service) HandleGatewayNotification(ctx context.Context, n *payment.Notification) error {
	if err := s.payments.VerifyNotification(n); err != nil {
		s.logger.WithField("order_id", n.OrderID).Warn("rejected notification with bad signature")
		return err
	}

	status, err := payment.MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if err != nil {
		return err
	}

	return s.applyStatus(ctx, n.OrderID, status)
}

// FinalizeByCustomer handles the widget's client-side success callback
// (POST {orderId, status:"paid"}). Only the order's owner may finalize, and
// only to the paid status; the authoritative path remains the gateway
// webhook.
func (s *Service) FinalizeByCustomer(ctx context.Context, sess *identity.Session, orderID, status string) error {
	if sess == nil || sess.UID == "" {
		return ErrNotAuthenticated
	}
	if status != "paid" && status != "settlement" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFinalize, status)
	}

	tx, err := s.txs.GetTransaction(ctx, orderID)
	if err != nil {
		return err
	}
	if tx.UserID != sess.UID {
		return ErrNotOwner
	}

	return s.applyStatus(ctx, orderID, domain.StatusPaid)
}

// applyStatus performs one guarded transition of the order status machine.
// Re-reporting the current status is an idempotent no-op, which absorbs
// webhook retries and the webhook-vs-client-callback race. On the transition
// into paid the cart is cleared exactly once and the order.paid event is
// appended.
func (s *Service) applyStatus(ctx context.Context, orderID string, status domain.TransactionStatus) error {
	tx, err := s.txs.GetTransaction(ctx, orderID)
	if err != nil {
		return err
	}

	if tx.Status == status {
		// A retry after a partial paid transition still owes the cart
		// clear; the poller owns recovery of the event leg.
		if status == domain.StatusPaid && !tx.CartCleared {
			return s.clearPaidCart(ctx, tx)
		}
		return nil
	}
	if !domain.CanTransitionTo(tx.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, tx.Status, status)
	}

	if err := s.txs.SetStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     tx.Status,
		"to":       status,
	}).Info("transaction status changed")

	if status != domain.StatusPaid {
		return nil
	}

	// The status write above is the paid transition's point of no return:
	// a concurrent caller now sees paid and takes the idempotent path.
	// Status write, cart clear, and event append are not atomic with each
	// other; the cart_cleared flag lets a retry finish the clear, and the
	// poller recovers the event leg.
	if err := s.clearPaidCart(ctx, tx); err != nil {
		return err
	}

	ev, err := BuildOrderPaidEvent(tx, s.now())
	if err != nil {
		return err
	}
	if err := s.outbox.Append(ctx, ev); err != nil {
		return fmt.Errorf("failed to append order.paid event: %w", err)
	}
	if err := s.txs.SetEventEmitted(ctx, orderID); err != nil {
		return fmt.Errorf("failed to flag emitted event: %w", err)
	}

	return nil
}

// clearPaidCart empties the order's cart and records that it happened, so a
// paid order never resurfaces its items no matter how the callbacks interleave.
func (s *Service) clearPaidCart(ctx context.Context, tx *domain.Transaction) error {
	if err := s.carts.Clear(ctx, tx.UserID); err != nil {
		return fmt.Errorf("order %s is paid but the cart could not be cleared: %w", tx.ID, err)
	}
	if err := s.txs.SetCartCleared(ctx, tx.ID); err != nil {
		return fmt.Errorf("failed to flag cleared cart: %w", err)
	}
	return nil
}
