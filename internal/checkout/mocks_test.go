package checkout

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/payment"
	"github.com/tokobuah/storefront/internal/repository"
)

type mockCarts struct {
	m          sync.RWMutex
	cart       *domain.Cart
	getErr     error
	clearErr   error
	clearCalls int
}

func (m *mockCarts) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cart == nil {
		return &domain.Cart{UserID: userID}, nil
	}
	return m.cart, nil
}

func (m *mockCarts) Clear(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.clearCalls++
	m.cart = &domain.Cart{Items: []domain.CartItem{}}
	return nil
}

func (m *mockCarts) setClearErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.clearErr = err
}

func (m *mockCarts) clearCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.clearCalls
}

type mockTxRepo struct {
	m           sync.RWMutex
	txs         map[string]*domain.Transaction
	createErr   error
	statusErr   error
	setStatuses []domain.TransactionStatus
}

func newMockTxRepo() *mockTxRepo {
	return &mockTxRepo{txs: map[string]*domain.Transaction{}}
}

func (m *mockTxRepo) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if tx.IdempotencyKey != "" {
		for _, existing := range m.txs {
			if existing.IdempotencyKey == tx.IdempotencyKey {
				return repository.ErrDuplicateKey
			}
		}
	}
	cp := *tx
	m.txs[tx.ID] = &cp
	return nil
}

func (m *mockTxRepo) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *mockTxRepo) GetTransactionByIdempotencyKey(_ context.Context, key string) (*domain.Transaction, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, tx := range m.txs {
		if tx.IdempotencyKey == key {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (m *mockTxRepo) SetToken(_ context.Context, id, token string) error {
	m.m.Lock()
	defer m.m.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	tx.Token = token
	return nil
}

func (m *mockTxRepo) SetStatus(_ context.Context, id string, status domain.TransactionStatus) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.statusErr != nil {
		return m.statusErr
	}
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	tx.Status = status
	m.setStatuses = append(m.setStatuses, status)
	return nil
}

func (m *mockTxRepo) SetEventEmitted(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	tx.EventEmitted = true
	return nil
}

func (m *mockTxRepo) SetCartCleared(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	tx.CartCleared = true
	return nil
}

func (m *mockTxRepo) ListTransactionsByUser(_ context.Context, userID string) ([]*domain.Transaction, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Transaction
	for _, tx := range m.txs {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockTxRepo) ListAllTransactions(context.Context) ([]*domain.Transaction, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Transaction
	for _, tx := range m.txs {
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockTxRepo) ListPaidWithoutEvent(context.Context, int) ([]*domain.Transaction, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Transaction
	for _, tx := range m.txs {
		if tx.Status == domain.StatusPaid && !tx.EventEmitted {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockTxRepo) get(id string) *domain.Transaction {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.txs[id]
}

func (m *mockTxRepo) put(tx *domain.Transaction) {
	m.m.Lock()
	defer m.m.Unlock()
	m.txs[tx.ID] = tx
}

type mockOutbox struct {
	m      sync.RWMutex
	events []*domain.OutboxEvent
	err    error
}

func (m *mockOutbox) Append(_ context.Context, ev *domain.OutboxEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockOutbox) FetchUnprocessed(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.OutboxEvent
	for _, ev := range m.events {
		if ev.ProcessedAt == nil {
			out = append(out, ev)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutbox) MarkProcessed(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	return m.err
}

func (m *mockOutbox) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.events)
}

type mockGateway struct {
	m         sync.RWMutex
	token     *payment.SnapToken
	issueErr  error
	verifyErr error
	lastReq   *payment.TokenRequest
}

func (m *mockGateway) IssueToken(_ context.Context, req *payment.TokenRequest) (*payment.SnapToken, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastReq = req
	if m.issueErr != nil {
		return nil, m.issueErr
	}
	if m.token != nil {
		return m.token, nil
	}
	return &payment.SnapToken{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

func (m *mockGateway) VerifyNotification(*payment.Notification) error {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.verifyErr
}

func (m *mockGateway) lastRequest() *payment.TokenRequest {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.lastReq
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
