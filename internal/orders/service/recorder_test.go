package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joinsangha/storefront/internal/orders/domain"
	r "github.com/joinsangha/storefront/internal/orders/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockRepository struct {
	mu       sync.Mutex
	Err      error
	Hang     bool
	Appended []*domain.Order
}

func (m *MockRepository) AppendOrder(ctx context.Context, order *domain.Order) error {
	if m.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Appended = append(m.Appended, order)
	return nil
}

func (m *MockRepository) GetOrderByReference(context.Context, string) (*domain.Order, error) {
	return nil, r.ErrOrderNotFound
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventAsProcessed(context.Context, uuid.UUID) error { return nil }

type MockRetryQueue struct {
	mu     sync.Mutex
	Pushed []*domain.Order
}

func (q *MockRetryQueue) Push(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Pushed = append(q.Pushed, order)
	return nil
}

func (q *MockRetryQueue) Pop(context.Context) (*domain.Order, error) { return nil, r.ErrQueueEmpty }

type MockNotifier struct {
	mu       sync.Mutex
	Err      error
	Block    chan struct{}
	Notified []string
}

func (n *MockNotifier) NotifyOrder(ctx context.Context, order *domain.Order) error {
	if n.Block != nil {
		select {
		case <-n.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notified = append(n.Notified, order.PaymentReference)
	return n.Err
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:               uuid.New(),
		PaymentReference: "pi_abc123",
		Amount:           decimal.RequireFromString("69.00"),
		Currency:         "usd",
		Customer:         domain.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Items: []domain.Item{
			{Name: "Meditation Cushion", Price: "$45", Quantity: decimal.NewFromInt(1), LineTotal: decimal.NewFromInt(45)},
		},
		TransactionDate: time.Now(),
	}
}

func wait(t *testing.T, rec *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rec.Wait(ctx))
}

func TestRecordOrder_RunsBothSideEffects(t *testing.T) {
	repo, queue, notifier := &MockRepository{}, &MockRetryQueue{}, &MockNotifier{}
	rec := NewRecorder(repo, queue, notifier, zap.NewNop())

	ack := rec.RecordOrder(context.Background(), testOrder())
	wait(t, rec)

	assert.Equal(t, domain.Ack{OrderID: "i_abc123", LedgerQueued: true, NotificationsQueued: true}, ack)
	assert.Len(t, repo.Appended, 1)
	assert.Equal(t, []string{"pi_abc123"}, notifier.Notified)
	assert.Empty(t, queue.Pushed)
}

func TestRecordOrder_SurvivesRequestCancellation(t *testing.T) {
	repo, notifier := &MockRepository{}, &MockNotifier{Block: make(chan struct{})}
	rec := NewRecorder(repo, nil, notifier, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	rec.RecordOrder(ctx, testOrder())
	cancel()
	close(notifier.Block)
	wait(t, rec)

	assert.Equal(t, []string{"pi_abc123"}, notifier.Notified)
}

func TestRecordOrder_LedgerFailureQueuesRetry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := &MockRepository{Err: errors.New("connection refused")}
	queue, notifier := &MockRetryQueue{}, &MockNotifier{}
	rec := NewRecorder(repo, queue, notifier, zap.New(core))

	ack := rec.RecordOrder(context.Background(), testOrder())
	wait(t, rec)

	assert.True(t, ack.LedgerQueued)
	require.Len(t, queue.Pushed, 1)
	assert.Equal(t, "pi_abc123", queue.Pushed[0].PaymentReference)
	assert.Equal(t, []string{"pi_abc123"}, notifier.Notified, "notifications are independent of the ledger")
	assert.Equal(t, 1, logs.FilterMessage("ledger append failed").Len())
}

func TestRecordOrder_LedgerTimeoutStillQueuesRetry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo, queue := &MockRepository{Hang: true}, &MockRetryQueue{}
	rec := NewRecorder(repo, queue, &MockNotifier{}, zap.New(core))
	rec.timeout = 50 * time.Millisecond

	rec.RecordOrder(context.Background(), testOrder())
	wait(t, rec)

	require.Len(t, queue.Pushed, 1)
	assert.Equal(t, "pi_abc123", queue.Pushed[0].PaymentReference)
	assert.Zero(t, logs.FilterMessage("failed to queue ledger retry, order only in logs").Len())
}

func TestRecordOrder_DuplicateIsNotRetried(t *testing.T) {
	repo, queue := &MockRepository{Err: r.ErrDuplicateOrder}, &MockRetryQueue{}
	rec := NewRecorder(repo, queue, &MockNotifier{}, zap.NewNop())

	rec.RecordOrder(context.Background(), testOrder())
	wait(t, rec)

	assert.Empty(t, queue.Pushed)
}

func TestRecordOrder_NotificationFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := &MockRepository{}
	rec := NewRecorder(repo, nil, &MockNotifier{Err: errors.New("smtp down")}, zap.New(core))

	ack := rec.RecordOrder(context.Background(), testOrder())
	wait(t, rec)

	assert.True(t, ack.NotificationsQueued)
	assert.Len(t, repo.Appended, 1)
	assert.Equal(t, 1, logs.FilterMessage("order notification failed").Len())
}

func TestRecordOrder_InvalidOrderDispatchesNothing(t *testing.T) {
	repo, notifier := &MockRepository{}, &MockNotifier{}
	rec := NewRecorder(repo, nil, notifier, zap.NewNop())

	o := testOrder()
	o.Customer.Email = ""
	ack := rec.RecordOrder(context.Background(), o)
	wait(t, rec)

	assert.False(t, ack.LedgerQueued)
	assert.False(t, ack.NotificationsQueued)
	assert.Empty(t, repo.Appended)
	assert.Empty(t, notifier.Notified)
}
