package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joinsangha/storefront/internal/orders/domain"
	"github.com/redis/go-redis/v9"
)

var ErrQueueEmpty = errors.New("retry queue is empty")

// RetryQueue holds orders whose ledger write failed so they can be appended later.
type RetryQueue interface {
	Push(ctx context.Context, order *domain.Order) error
	Pop(ctx context.Context) (*domain.Order, error)
}

type RedisRetryQueue struct {
	client redis.UniversalClient
	key    string
}

func NewRedisRetryQueue(client redis.UniversalClient) *RedisRetryQueue {
	return &RedisRetryQueue{client: client, key: "orders:ledger-retry"}
}

func (q *RedisRetryQueue) Push(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

// Pop returns the oldest queued order.
func (q *RedisRetryQueue) Pop(ctx context.Context) (*domain.Order, error) {
	data, err := q.client.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis rpop: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &order, nil
}
