package repository

import (
	"context"
	"errors"

	"github.com/joinsangha/storefront/internal/checkout/domain"
)

var ErrSessionNotFound = errors.New("checkout session not found")

type SessionStore interface {
	Get(ctx context.Context, clientID string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, clientID string) error
}
