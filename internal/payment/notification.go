package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tokobuah/storefront/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrUnknownStatus    = errors.New("unknown gateway transaction status")
)

// Notification is the payment gateway's server-to-server callback body.
// Amounts arrive as strings ("33000.00") straight from the gateway.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
}

// VerifyNotification checks the SHA-512 signature the gateway computes over
// order_id + status_code + gross_amount + server key.
func (c *SnapClient) VerifyNotification(n *Notification) error {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + c.serverKey))
	expected := hex.EncodeToString(sum[:])

	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// MapGatewayStatus translates Midtrans transaction/fraud statuses into the
// domain status machine. "settlement" and an accepted "capture" both mean
// paid.
func MapGatewayStatus(transactionStatus, fraudStatus string) (domain.TransactionStatus, error) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" {
			return domain.StatusPending, nil
		}
		return domain.StatusPaid, nil
	case "settlement", "paid":
		return domain.StatusPaid, nil
	case "pending":
		return domain.StatusPending, nil
	case "deny":
		return domain.StatusFailed, nil
	case "cancel":
		return domain.StatusCancelled, nil
	case "expire":
		return domain.StatusExpired, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, transactionStatus)
	}
}
