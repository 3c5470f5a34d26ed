package cache

import (
	"context"
	"errors"

	"github.com/joinsangha/storefront/internal/cart/domain"
)

type CartCache interface {
	Get(ctx context.Context, clientID string) (*domain.Cart, error)
	Set(ctx context.Context, clientID string, cart *domain.Cart) error
	Delete(ctx context.Context, clientID string) error
}

var ErrCacheMiss = errors.New("cache miss")
