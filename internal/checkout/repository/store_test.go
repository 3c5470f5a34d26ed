package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joinsangha/storefront/internal/checkout/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentSession() *domain.Session {
	s := domain.NewSession("client-1", time.Now().UTC())
	s.Stage = domain.StagePayment
	s.CheckoutAmount = decimal.RequireFromString("69.00")
	s.Snapshot = &domain.CartSnapshot{
		Items: []domain.SnapshotItem{
			{Name: "Meditation Cushion", Price: "$45", UnitPrice: decimal.NewFromInt(45), Quantity: decimal.NewFromInt(1), LineTotal: decimal.NewFromInt(45)},
		},
		Amount:   decimal.RequireFromString("69.00"),
		Currency: "usd",
	}
	s.Shipping.Email = "ada@example.com"
	return s
}

func storeContract(t *testing.T, store SessionStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, "client-1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, paymentSession()))

	got, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StagePayment, got.Stage)
	assert.Equal(t, "69.00", got.CheckoutAmount.StringFixed(2))
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, "Meditation Cushion", got.Snapshot.Items[0].Name)
	assert.Equal(t, "ada@example.com", got.Shipping.Email)

	got.Stage = domain.StageShipping
	stored, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StagePayment, stored.Stage, "callers get a copy")

	require.NoError(t, store.Delete(ctx, "client-1"))
	_, err = store.Get(ctx, "client-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	storeContract(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, paymentSession()))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "client-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
