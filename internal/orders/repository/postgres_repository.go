package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joinsangha/storefront/internal/orders/domain"
	"github.com/joinsangha/storefront/pkg/database"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RunMigrations() error {
	return database.MigratePostgres(r.db, database.Migration{
		FS:    migrationsFS,
		Dir:   "migrations",
		Table: "orders_schema_migrations",
	})
}

type orderRecordedPayload struct {
	OrderID          uuid.UUID     `json:"order_id"`
	PaymentReference string        `json:"payment_reference"`
	Amount           string        `json:"amount"`
	Currency         string        `json:"currency"`
	CustomerEmail    string        `json:"customer_email"`
	Items            []domain.Item `json:"items"`
	TransactionDate  time.Time     `json:"transaction_date"`
}

// AppendOrder inserts the order and its outbox event in one transaction. A
// second order for the same payment reference returns ErrDuplicateOrder.
func (r *Repository) AppendOrder(ctx context.Context, order *domain.Order) error {
	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	payloadJSON, err := json.Marshal(orderRecordedPayload{
		OrderID:          order.ID,
		PaymentReference: order.PaymentReference,
		Amount:           order.Amount.StringFixed(2),
		Currency:         order.Currency,
		CustomerEmail:    order.Customer.Email,
		Items:            order.Items,
		TransactionDate:  order.TransactionDate.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, payment_reference, amount, currency, customer, items, transaction_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		order.ID,
		order.PaymentReference,
		order.Amount,
		order.Currency,
		customerJSON,
		itemsJSON,
		order.TransactionDate)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (id, aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(),
		order.PaymentReference,
		EventOrderRecorded,
		payloadJSON)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	query := `SELECT id, payment_reference, amount, currency, customer, items, transaction_date, created_at
	          FROM orders WHERE payment_reference = $1`

	var order domain.Order
	var customerJSON, itemsJSON []byte
	err := r.db.QueryRowContext(ctx, query, reference).Scan(
		&order.ID,
		&order.PaymentReference,
		&order.Amount,
		&order.Currency,
		&customerJSON,
		&itemsJSON,
		&order.TransactionDate,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by reference: %w", err)
	}

	if err := json.Unmarshal(customerJSON, &order.Customer); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM order_outbox
		 WHERE processed_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
