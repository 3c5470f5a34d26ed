package repository

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/joinsangha/storefront/internal/orders/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order for this payment already recorded")
)

const EventOrderRecorded = "order.recorded"

type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OrderRepository interface {
	AppendOrder(ctx context.Context, order *domain.Order) error
	GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}
