package service

import (
	"context"
	"errors"
	"time"

	"github.com/joinsangha/storefront/internal/cart/cache"
	"github.com/joinsangha/storefront/internal/cart/domain"
	"github.com/joinsangha/storefront/internal/cart/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // collapses concurrent cache misses per client
	log   *zap.Logger
	now   func() time.Time
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, log *zap.Logger) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

func (s *CartService) GetCart(ctx context.Context, clientID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(clientID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, clientID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get failed", zap.String("client_id", clientID), zap.Error(err))
		}

		cart, err = s.repo.GetCart(ctx, clientID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.NewCart(clientID, s.now()), nil
		}
		if err != nil {
			return nil, err
		}

		// Filled before returning, so a mutation that follows this read
		// always invalidates after the fill.
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.cache.Set(setCtx, clientID, cart); err != nil {
			s.log.Warn("cache set failed", zap.String("client_id", clientID), zap.Error(err))
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// FreshCart reads the durable copy and never the cache. Checkout prices from it.
func (s *CartService) FreshCart(ctx context.Context, clientID string) (*domain.Cart, error) {
	return s.load(ctx, clientID)
}

func (s *CartService) AddItem(ctx context.Context, clientID string, item domain.LineItem) (*domain.Cart, error) {
	return s.mutate(ctx, clientID, func(c *domain.Cart) error {
		return c.Add(item)
	})
}

func (s *CartService) AdjustQuantity(ctx context.Context, clientID string, index int, delta decimal.Decimal) (*domain.Cart, error) {
	return s.mutate(ctx, clientID, func(c *domain.Cart) error {
		return c.AdjustQuantity(index, delta)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, clientID string, index int) (*domain.Cart, error) {
	return s.mutate(ctx, clientID, func(c *domain.Cart) error {
		return c.Remove(index)
	})
}

// ClearCart deletes the stored cart. Clearing an absent cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, clientID string) error {
	err := s.repo.DeleteCart(ctx, clientID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.Error("repo delete cart failed", zap.String("client_id", clientID), zap.Error(err))
		return err
	}

	s.invalidateCache(clientID)
	return nil
}

// mutate reads the durable copy, never the cache, before applying fn.
func (s *CartService) mutate(ctx context.Context, clientID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		s.log.Error("repo upsert cart failed", zap.String("client_id", clientID), zap.Error(err))
		return nil, err
	}

	s.invalidateCache(clientID)
	return cart, nil
}

func (s *CartService) load(ctx context.Context, clientID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, clientID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCart(clientID, s.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) invalidateCache(clientID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, clientID); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("client_id", clientID), zap.Error(err))
	}
}
