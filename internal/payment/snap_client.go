// Package payment wraps the Midtrans Snap gateway: token issuance for the
// hosted payment widget and verification of its server-to-server
// notifications.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/tokobuah/storefront/internal/domain"
)

// TokenRequest carries the order snapshot sent to the gateway. GrossAmount
// must equal the sum of item subtotals plus the shipping line.
type TokenRequest struct {
	OrderID     string
	GrossAmount int64
	Items       []domain.CartItem
	Shipping    domain.ShippingSelection
	Customer    Customer
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type SnapToken struct {
	Token       string
	RedirectURL string
}

// Gateway issues payment tokens and authenticates gateway callbacks.
type Gateway interface {
	IssueToken(ctx context.Context, req *TokenRequest) (*SnapToken, error)
	VerifyNotification(n *Notification) error
}

type SnapClient struct {
	client    snap.Client
	serverKey string
	breaker   *gobreaker.CircuitBreaker[*snap.Response]
	logger    *logrus.Logger
}

func NewSnapClient(serverKey string, production bool, logger *logrus.Logger) *SnapClient {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var client snap.Client
	client.New(serverKey, env)

	breaker := gobreaker.NewCircuitBreaker[*snap.Response](gobreaker.Settings{
		Name:    "midtrans-snap",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("payment gateway breaker state changed")
		},
	})

	return &SnapClient{
		client:    client,
		serverKey: serverKey,
		breaker:   breaker,
		logger:    logger,
	}
}

// IssueToken requests a Snap token for the hosted payment widget. The
// shipping cost is passed as an extra item line so the gateway's gross amount
// check holds.
func (c *SnapClient) IssueToken(ctx context.Context, req *TokenRequest) (*SnapToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]midtrans.ItemDetails, 0, len(req.Items)+1)
	for _, item := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    item.ProductID,
			Name:  item.Name,
			Price: item.Price,
			Qty:   int32(item.Quantity),
		})
	}
	items = append(items, midtrans.ItemDetails{
		ID:    "SHIPPING",
		Name:  req.Shipping.Name,
		Price: req.Shipping.Cost,
		Qty:   1,
	})

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
		Items: &items,
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	}

	resp, err := c.breaker.Execute(func() (*snap.Response, error) {
		r, snapErr := c.client.CreateTransaction(snapReq)
		if snapErr != nil {
			return nil, snapErr
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("snap token request failed: %w", err)
	}

	c.logger.WithField("order_id", req.OrderID).Info("snap token issued")

	return &SnapToken{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}
