package repository

import (
	"context"
	"errors"

	"github.com/joinsangha/storefront/internal/cart/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository is the durable per-client cart store.
type CartRepository interface {
	GetCart(ctx context.Context, clientID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, clientID string) error
}
