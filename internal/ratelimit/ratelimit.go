// Package ratelimit throttles requests per client key over a sliding window.
package ratelimit

import (
	"context"
	"time"
)

const Window = 60 * time.Second

type Limiter interface {
	// Allow records a request for key and reports whether it fits the window.
	// A denied request is not recorded.
	Allow(ctx context.Context, key string) (bool, error)
}

// Policy is the request budget of one endpoint.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

var (
	TrackView     = Policy{Name: "track-view", Max: 10, Window: Window}
	TrackLike     = Policy{Name: "track-like", Max: 20, Window: Window}
	SaveOrder     = Policy{Name: "save-order", Max: 10, Window: Window}
	PaymentIntent = Policy{Name: "payment-intent", Max: 10, Window: Window}
	Support       = Policy{Name: "support", Max: 10, Window: Window}
	Partnership   = Policy{Name: "partnership", Max: 5, Window: Window}
	Application   = Policy{Name: "application", Max: 5, Window: Window}
	Checkout      = Policy{Name: "checkout", Max: 20, Window: Window}
)

// Factory builds the limiter for a policy.
type Factory func(Policy) Limiter
