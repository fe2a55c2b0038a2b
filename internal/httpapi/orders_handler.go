package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/identity"
	"github.com/tokobuah/storefront/internal/repository"
)

type OrdersHandler struct {
	txs     repository.TransactionRepository
	timeout time.Duration
}

func NewOrdersHandler(txs repository.TransactionRepository, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		txs:     txs,
		timeout: timeout,
	}
}

// GET /api/v1/orders — the caller's own orders, newest first.
func (h *OrdersHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.txs.ListTransactionsByUser(ctx, sess.UID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Transaction{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{order_id} — owner or admin only.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	order, err := h.txs.GetTransaction(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if order.UserID != sess.UID && !sess.IsAdmin() {
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to another user")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders — every order, newest first, for the back office.
func (h *OrdersHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.txs.ListAllTransactions(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Transaction{}
	}

	respondJSON(w, http.StatusOK, orders)
}
