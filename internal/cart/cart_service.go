// Package cart owns the per-user cart: line-item mutations, totals, and the
// read-through cache in front of the document store.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/tokobuah/storefront/internal/cache"
	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/repository"
)

type Service struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	logger *logrus.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cache cache.CartCache, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Get returns the user's cart, reading through the cache. A user without a
// cart document gets an empty cart, never an error.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("cart cache read failed, falling back to repository")
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				s.logger.WithError(errSet).Warn("cart cache set failed")
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem appends a line item, or increments the quantity when the product is
// already in the cart.
func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	if err := s.repo.AddItem(ctx, userID, item); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"product_id": item.ProductID,
		}).Error("failed to add cart item")
		return err
	}

	s.invalidate(userID)
	return nil
}

// SetQuantity overwrites a line item's quantity. Quantities below one are a
// silent no-op, as is a product that is not in the cart.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	err := s.repo.SetItemQuantity(ctx, userID, productID, quantity)
	if errors.Is(err, repository.ErrItemNotFound) || errors.Is(err, repository.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"product_id": productID,
		}).Error("failed to set cart item quantity")
		return err
	}

	s.invalidate(userID)
	return nil
}

// RemoveItem deletes a line item; removing an absent item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	err := s.repo.RemoveItem(ctx, userID, productID)
	if errors.Is(err, repository.ErrItemNotFound) || errors.Is(err, repository.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"product_id": productID,
		}).Error("failed to remove cart item")
		return err
	}

	s.invalidate(userID)
	return nil
}

// Clear empties the cart and persists the empty state. Called after a
// successful checkout.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to clear cart")
		return err
	}

	s.invalidate(userID)
	return nil
}

// Total is the cart subtotal in rupiah, excluding shipping.
func (s *Service) Total(ctx context.Context, userID string) (int64, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.Subtotal(), nil
}

// ItemCount is the sum of quantities across line items.
func (s *Service) ItemCount(ctx context.Context, userID string) (int, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.ItemCount(), nil
}

func (s *Service) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("cart cache invalidation failed")
	}
}
