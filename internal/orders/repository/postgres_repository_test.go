package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joinsangha/storefront/internal/orders/domain"
	"github.com/joinsangha/storefront/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.OpenPostgres(&database.Credentials{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.RunMigrations())

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return repo, cleanup
}

func newTestOrder(reference string) *domain.Order {
	return &domain.Order{
		ID:               uuid.New(),
		PaymentReference: reference,
		Amount:           decimal.RequireFromString("69.00"),
		Currency:         "usd",
		Customer:         domain.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Items: []domain.Item{
			{Name: "Meditation Cushion", Price: "$45", Quantity: decimal.NewFromInt(1), LineTotal: decimal.NewFromInt(45)},
			{Name: "Incense Set", Price: "$12", Quantity: decimal.NewFromInt(2), LineTotal: decimal.NewFromInt(24)},
		},
		TransactionDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAppendOrder_AndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AppendOrder(ctx, newTestOrder("pi_abc123")))

	got, err := repo.GetOrderByReference(ctx, "pi_abc123")
	require.NoError(t, err)
	assert.Equal(t, "69.00", got.Amount.StringFixed(2))
	assert.Equal(t, "ada@example.com", got.Customer.Email)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Incense Set", got.Items[1].Name)
	assert.True(t, got.TransactionDate.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestAppendOrder_DuplicateReference(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AppendOrder(ctx, newTestOrder("pi_abc123")))
	err := repo.AppendOrder(ctx, newTestOrder("pi_abc123"))
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1, "rolled back duplicate writes no outbox row")
}

func TestGetOrderByReference_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByReference(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOutbox_Lifecycle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AppendOrder(ctx, newTestOrder("pi_1")))
	require.NoError(t, repo.AppendOrder(ctx, newTestOrder("pi_2")))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventOrderRecorded, events[0].EventType)
	assert.Equal(t, "pi_1", events[0].AggregateID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "69.00", payload["amount"])
	assert.Equal(t, "ada@example.com", payload["customer_email"])

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "pi_2", events[0].AggregateID)
}
