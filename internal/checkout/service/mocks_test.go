package service

import (
	"context"
	"errors"
	"sync"

	cart "github.com/joinsangha/storefront/internal/cart/domain"
	d "github.com/joinsangha/storefront/internal/checkout/domain"
	r "github.com/joinsangha/storefront/internal/checkout/repository"
	orders "github.com/joinsangha/storefront/internal/orders/domain"
	"github.com/joinsangha/storefront/internal/payment"
	"github.com/shopspring/decimal"
)

// MockCartStore keeps one live cart per client, like the real store.
type MockCartStore struct {
	mu       sync.Mutex
	carts    map[string]*cart.Cart
	GetErr   error
	ClearErr error
	Cleared  int
}

func NewMockCartStore() *MockCartStore {
	return &MockCartStore{carts: make(map[string]*cart.Cart)}
}

func (m *MockCartStore) Put(c *cart.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.ClientID] = c
}

func (m *MockCartStore) FreshCart(_ context.Context, clientID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	c, ok := m.carts[clientID]
	if !ok {
		return &cart.Cart{ClientID: clientID}, nil
	}
	return c, nil
}

func (m *MockCartStore) ClearCart(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Cleared++
	delete(m.carts, clientID)
	return nil
}

// MockGateway approves with Reference unless ConfirmErr is set.
type MockGateway struct {
	Reference      string
	IntentErr      error
	ConfirmErr     error
	IntentAmounts  []decimal.Decimal
	IntentMetadata map[string]string
	Billing        payment.BillingDetails
}

func (m *MockGateway) CreateIntent(_ context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (payment.Intent, error) {
	if m.IntentErr != nil {
		return payment.Intent{}, m.IntentErr
	}
	m.IntentAmounts = append(m.IntentAmounts, amount)
	m.IntentMetadata = metadata
	return payment.Intent{ID: m.Reference, ClientSecret: m.Reference + "_secret", Amount: amount, Currency: currency}, nil
}

func (m *MockGateway) ConfirmPayment(_ context.Context, intent payment.Intent, billing payment.BillingDetails) (payment.Result, error) {
	m.Billing = billing
	if m.ConfirmErr != nil {
		return payment.Result{}, m.ConfirmErr
	}
	return payment.Result{Reference: intent.ID}, nil
}

type MockRecorder struct {
	mu     sync.Mutex
	Orders []*orders.Order
}

func (m *MockRecorder) RecordOrder(_ context.Context, order *orders.Order) orders.Ack {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders = append(m.Orders, order)
	return orders.Ack{OrderID: order.PaymentReference, LedgerQueued: true, NotificationsQueued: true}
}

var errStoreUnavailable = errors.New("session store unavailable")

// FlakySessionStore fails saves of sessions in FailStage. FailTimes < 0 fails
// every such save.
type FlakySessionStore struct {
	*r.MemoryStore

	mu        sync.Mutex
	FailStage d.Stage
	FailTimes int
	Failed    int
}

func (s *FlakySessionStore) Save(ctx context.Context, sess *d.Session) error {
	s.mu.Lock()
	fail := sess.Stage == s.FailStage && (s.FailTimes < 0 || s.Failed < s.FailTimes)
	if fail {
		s.Failed++
	}
	s.mu.Unlock()

	if fail {
		return errStoreUnavailable
	}
	return s.MemoryStore.Save(ctx, sess)
}
