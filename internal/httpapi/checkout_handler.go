package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tokobuah/storefront/internal/checkout"
	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/identity"
	"github.com/tokobuah/storefront/internal/payment"
)

// CheckoutService is the checkout flow surface the handlers use.
type CheckoutService interface {
	Initiate(ctx context.Context, sess *identity.Session, req *checkout.InitiateRequest) (*checkout.InitiateResult, error)
	HandleGatewayNotification(ctx context.Context, n *payment.Notification) error
	FinalizeByCustomer(ctx context.Context, sess *identity.Session, orderID, status string) error
}

type CheckoutHandler struct {
	flow    CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(flow CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		flow:    flow,
		timeout: timeout,
	}
}

// CreateTransactionRequestDTO is the original storefront checkout body. The
// identity fields are taken from the verified session; userId, when present,
// is cross-checked against it. cartItems is accepted for compatibility but
// the server-side cart is authoritative.
type CreateTransactionRequestDTO struct {
	UserID         string            `json:"userId"`
	Email          string            `json:"email"`
	Address        string            `json:"address"`
	Phone          string            `json:"phone"`
	CartItems      []domain.CartItem `json:"cartItems"`
	Total          *int64            `json:"total"`
	DisplayName    string            `json:"displayName"`
	Shipping       ShippingDTO       `json:"shipping"`
	IdempotencyKey string            `json:"idempotencyKey"`
}

type ShippingDTO struct {
	Option string `json:"option"`
	Cost   int64  `json:"cost"`
}

type CreateTransactionResponseDTO struct {
	Token       string `json:"token"`
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Status      string `json:"status"`
}

// POST /api/create-transaction
func (h *CheckoutHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CreateTransactionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.UserID != "" && req.UserID != sess.UID {
		respondError(w, http.StatusForbidden, "forbidden", "userId does not match the authenticated user")
		return
	}

	idempotencyKey := req.IdempotencyKey
	if headerKey := r.Header.Get("Idempotency-Key"); headerKey != "" {
		idempotencyKey = headerKey
	}

	result, err := h.flow.Initiate(ctx, sess, &checkout.InitiateRequest{
		Address:        req.Address,
		Phone:          req.Phone,
		ShippingOption: req.Shipping.Option,
		ClientTotal:    req.Total,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateTransactionResponseDTO{
		Token:       result.Token,
		OrderID:     result.OrderID,
		RedirectURL: result.RedirectURL,
		Status:      result.Status.String(),
	})
}

// NotificationRequestDTO is the simple client-side finalize body. The full
// gateway webhook body is decoded separately.
type NotificationRequestDTO struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// POST /api/midtrans-notification
//
// Two callers share this route: the gateway's webhook (authenticated by its
// signature_key) and the signed-in customer's success callback. Bodies with a
// signature take the webhook path.
func (h *CheckoutHandler) Notification(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var gw payment.Notification
	if err := json.Unmarshal(raw, &gw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid notification body")
		return
	}

	if gw.SignatureKey != "" {
		if err := h.flow.HandleGatewayNotification(ctx, &gw); err != nil {
			handleServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	sess, ok := identity.SessionFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req NotificationRequestDTO
	if err := json.Unmarshal(raw, &req); err != nil || req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "orderId is required")
		return
	}

	if err := h.flow.FinalizeByCustomer(ctx, sess, req.OrderID, req.Status); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/shipping-options
func (h *CheckoutHandler) ShippingOptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.ShippingOptions())
}
