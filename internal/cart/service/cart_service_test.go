package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joinsangha/storefront/internal/cart/cache"
	"github.com/joinsangha/storefront/internal/cart/domain"
	"github.com/joinsangha/storefront/internal/cart/repository"
	"github.com/joinsangha/storefront/pkg/price"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	m       sync.RWMutex
	carts   map[string]*domain.Cart
	err     error
	reads   atomic.Int32
	deletes atomic.Int32
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockRepository) GetCart(_ context.Context, clientID string) (*domain.Cart, error) {
	m.reads.Add(1)
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[clientID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.LineItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockRepository) UpsertCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[c.ClientID] = c
	return nil
}

func (m *mockRepository) DeleteCart(_ context.Context, clientID string) error {
	m.deletes.Add(1)
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[clientID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, clientID)
	return nil
}

type mockCache struct {
	m       sync.RWMutex
	data    map[string]*domain.Cart
	getErr  error
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]*domain.Cart)}
}

func (c *mockCache) Get(_ context.Context, clientID string) (*domain.Cart, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	cart, ok := c.data[clientID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (c *mockCache) Set(_ context.Context, clientID string, cart *domain.Cart) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.data[clientID] = cart
	return nil
}

func (c *mockCache) Delete(_ context.Context, clientID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.data, clientID)
	c.deleted = append(c.deleted, clientID)
	return nil
}

func (c *mockCache) has(clientID string) bool {
	c.m.RLock()
	defer c.m.RUnlock()
	_, ok := c.data[clientID]
	return ok
}

func newTestService() (*CartService, *mockRepository, *mockCache) {
	repo := newMockRepository()
	c := newMockCache()
	return NewCartService(repo, c, zap.NewNop()), repo, c
}

func cushion(q string) domain.LineItem {
	return domain.LineItem{Name: "Meditation Cushion", Price: price.FromString("$45"), Quantity: decimal.RequireFromString(q)}
}

func TestGetCart_EmptyWhenNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	cart, err := svc.GetCart(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", cart.ClientID)
	assert.True(t, cart.IsEmpty())
}

func TestGetCart_FromCache(t *testing.T) {
	svc, repo, c := newTestService()
	cached := domain.NewCart("client-1", time.Now())
	require.NoError(t, cached.Add(cushion("1")))
	require.NoError(t, c.Set(context.Background(), "client-1", cached))

	cart, err := svc.GetCart(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Same(t, cached, cart)
	assert.Equal(t, int32(0), repo.reads.Load())
}

func TestGetCart_PopulatesCacheOnMiss(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", cushion("1"))
	require.NoError(t, err)

	_, err = svc.GetCart(ctx, "client-1")
	require.NoError(t, err)

	assert.True(t, c.has("client-1"))
}

func TestGetCart_FillDoesNotOutliveLaterMutation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", cushion("1"))
	require.NoError(t, err)

	_, err = svc.GetCart(ctx, "client-1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "client-1", domain.LineItem{Name: "Incense Set", Price: price.FromString("$12"), Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "69.00", cart.Subtotal().StringFixed(2))
}

func TestFreshCart_IgnoresStaleCache(t *testing.T) {
	svc, repo, c := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", cushion("1"))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "client-1", domain.LineItem{Name: "Incense Set", Price: price.FromString("$12"), Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)

	stale := domain.NewCart("client-1", time.Now())
	require.NoError(t, stale.Add(cushion("1")))
	require.NoError(t, c.Set(ctx, "client-1", stale))

	cart, err := svc.FreshCart(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "69.00", cart.Subtotal().StringFixed(2))
	assert.Equal(t, int32(3), repo.reads.Load())
}

func TestFreshCart_EmptyWhenNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	cart, err := svc.FreshCart(context.Background(), "client-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestGetCart_CacheErrorFallsBackToRepo(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", cushion("2"))
	require.NoError(t, err)
	c.getErr = errors.New("redis down")

	cart, err := svc.GetCart(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
}

func TestGetCart_RepoError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = errors.New("mongo down")

	_, err := svc.GetCart(context.Background(), "client-1")
	assert.EqualError(t, err, "mongo down")
}

func TestAddItem_MergesAndInvalidates(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "client-1", cushion("2"))
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "client-1", cushion("3"))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "5", cart.Items[0].Quantity.String())
	assert.Equal(t, []string{"client-1", "client-1"}, c.deleted)
}

func TestAddItem_InvalidItemNotPersisted(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.AddItem(context.Background(), "client-1", domain.LineItem{Name: "", Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrMissingName)
	assert.Empty(t, repo.carts)
}

func TestAdjustQuantity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", cushion("1"))
	require.NoError(t, err)

	cart, err := svc.AdjustQuantity(ctx, "client-1", 0, decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, "67.50", cart.Subtotal().StringFixed(2))

	cart, err = svc.AdjustQuantity(ctx, "client-1", 0, decimal.RequireFromString("-2"))
	require.NoError(t, err)
	assert.Equal(t, "1", cart.Items[0].Quantity.String())

	_, err = svc.AdjustQuantity(ctx, "client-1", 4, decimal.RequireFromString("0.5"))
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", cushion("1"))
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "client-1", 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestClearCart_AbsentCartIsNotAnError(t *testing.T) {
	svc, repo, c := newTestService()

	require.NoError(t, svc.ClearCart(context.Background(), "client-1"))
	assert.Equal(t, int32(1), repo.deletes.Load())
	assert.Equal(t, []string{"client-1"}, c.deleted)
}

func TestClearCart_RepoError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = errors.New("mongo down")

	assert.Error(t, svc.ClearCart(context.Background(), "client-1"))
}

func TestGetCart_SingleflightCollapsesMisses(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetCart(ctx, "client-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, repo.reads.Load(), int32(20))
	assert.GreaterOrEqual(t, repo.reads.Load(), int32(1))
}
