package cart

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokobuah/storefront/internal/cache"
	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/repository"
)

type mockRepository struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockRepository) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == item.ProductID {
			m.cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	m.cart.Items = append(m.cart.Items, item)
	return nil
}

func (m *mockRepository) SetItemQuantity(_ context.Context, _, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) RemoveItem(_ context.Context, _, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	for i, item := range m.cart.Items {
		if item.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart = &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	return nil
}

func (m *mockRepository) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestGet_Success(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "apel", Name: "Apel Fuji", Price: 25000, Quantity: 2},
				{ProductID: "jeruk", Name: "Jeruk Medan", Price: 15000, Quantity: 1},
			},
		},
	}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	ret, err := sut.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, ret.Items, 2)
	assert.Equal(t, int64(65000), ret.Subtotal())
	assert.Equal(t, 3, ret.ItemCount())

	require.Eventually(t, func() bool {
		return mockC.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGet_CacheHit_SkipsRepository(t *testing.T) {
	cached := &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{{ProductID: "apel", Quantity: 3}},
	}
	mockRepo := &mockRepository{err: fmt.Errorf("repo must not be called")}
	mockC := &mockCache{cart: cached}

	sut := NewService(mockRepo, mockC, testLogger())
	ret, err := sut.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, ret.ItemCount())
}

func TestGet_NoCart_ReturnsEmptyCart(t *testing.T) {
	mockRepo := &mockRepository{}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	ret, err := sut.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", ret.UserID)
	assert.Empty(t, ret.Items)
	assert.True(t, ret.IsEmpty())
	assert.Equal(t, int64(0), ret.Subtotal())
}

func TestGet_RepoError(t *testing.T) {
	mockRepo := &mockRepository{err: fmt.Errorf("database error")}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	ret, err := sut.Get(context.Background(), "user-1")
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, ret)
}

func TestGet_CacheReadErrorFallsBackToRepo(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items:  []domain.CartItem{{ProductID: "apel", Quantity: 1}},
		},
	}
	mockC := &mockCache{err: fmt.Errorf("redis down")}

	sut := NewService(mockRepo, mockC, testLogger())
	ret, err := sut.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, ret.ItemCount())
}

func TestAddItem_NewProduct(t *testing.T) {
	mockRepo := &mockRepository{}
	mockC := &mockCache{cart: &domain.Cart{UserID: "user-1"}}

	sut := NewService(mockRepo, mockC, testLogger())
	err := sut.AddItem(context.Background(), "user-1", domain.CartItem{
		ProductID: "apel", Name: "Apel Fuji", Price: 25000, Quantity: 1,
	})
	require.NoError(t, err)

	cart := mockRepo.getCart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Nil(t, mockC.getCart(), "cache was not invalidated")
}

func TestAddItem_DuplicateIncrementsQuantity(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items:  []domain.CartItem{{ProductID: "apel", Price: 25000, Quantity: 2}},
		},
	}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	err := sut.AddItem(context.Background(), "user-1", domain.CartItem{
		ProductID: "apel", Price: 25000, Quantity: 1,
	})
	require.NoError(t, err)

	cart := mockRepo.getCart()
	require.Len(t, cart.Items, 1, "duplicate add must not create a second line")
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddItem_ZeroQuantityNormalizedToOne(t *testing.T) {
	mockRepo := &mockRepository{}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	err := sut.AddItem(context.Background(), "user-1", domain.CartItem{ProductID: "apel"})
	require.NoError(t, err)
	assert.Equal(t, 1, mockRepo.getCart().Items[0].Quantity)
}

func TestSetQuantity_Success(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items:  []domain.CartItem{{ProductID: "apel", Quantity: 2}},
		},
	}
	mockC := &mockCache{cart: mockRepo.cart}

	sut := NewService(mockRepo, mockC, testLogger())
	err := sut.SetQuantity(context.Background(), "user-1", "apel", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, mockRepo.getCart().Items[0].Quantity)
	assert.Nil(t, mockC.getCart(), "cache was not invalidated")
}

func TestSetQuantity_BelowOneIsNoOp(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items:  []domain.CartItem{{ProductID: "apel", Quantity: 2}},
		},
	}
	mockC := &mockCache{cart: mockRepo.cart}

	sut := NewService(mockRepo, mockC, testLogger())
	require.NoError(t, sut.SetQuantity(context.Background(), "user-1", "apel", 0))
	require.NoError(t, sut.SetQuantity(context.Background(), "user-1", "apel", -5))

	assert.Equal(t, 2, mockRepo.getCart().Items[0].Quantity, "quantity must be untouched")
	assert.NotNil(t, mockC.getCart(), "cache must not be invalidated on a no-op")
}

func TestSetQuantity_UnknownProductIsNoOp(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{UserID: "user-1", Items: []domain.CartItem{{ProductID: "apel", Quantity: 2}}},
	}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	require.NoError(t, sut.SetQuantity(context.Background(), "user-1", "durian", 3))
	assert.Equal(t, 2, mockRepo.getCart().Items[0].Quantity)
}

func TestRemoveItem_Success(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "apel", Quantity: 2},
				{ProductID: "jeruk", Quantity: 1},
			},
		},
	}
	mockC := &mockCache{cart: mockRepo.cart}

	sut := NewService(mockRepo, mockC, testLogger())
	require.NoError(t, sut.RemoveItem(context.Background(), "user-1", "apel"))

	cart := mockRepo.getCart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "jeruk", cart.Items[0].ProductID)
	assert.Nil(t, mockC.getCart(), "cache was not invalidated")
}

func TestRemoveItem_AbsentProductIsNoOp(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{UserID: "user-1", Items: []domain.CartItem{{ProductID: "apel", Quantity: 2}}},
	}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	require.NoError(t, sut.RemoveItem(context.Background(), "user-1", "durian"))
	require.Len(t, mockRepo.getCart().Items, 1)
}

func TestClear_PersistsEmptyCart(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items:  []domain.CartItem{{ProductID: "apel", Quantity: 2}},
		},
	}
	mockC := &mockCache{cart: mockRepo.cart}

	sut := NewService(mockRepo, mockC, testLogger())
	require.NoError(t, sut.Clear(context.Background(), "user-1"))

	cart := mockRepo.getCart()
	require.NotNil(t, cart, "clear must persist an empty cart, not delete it")
	assert.Empty(t, cart.Items)
	assert.Nil(t, mockC.getCart(), "cache was not invalidated")
}

func TestTotal_SumsPriceTimesQuantity(t *testing.T) {
	mockRepo := &mockRepository{
		cart: &domain.Cart{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ProductID: "apel", Price: 25000, Quantity: 2},
				{ProductID: "jeruk", Price: 15000, Quantity: 3},
			},
		},
	}
	mockC := &mockCache{}

	sut := NewService(mockRepo, mockC, testLogger())
	total, err := sut.Total(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(95000), total)

	count, err := sut.ItemCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
