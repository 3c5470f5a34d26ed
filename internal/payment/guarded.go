package payment

import (
	"context"
	"errors"
	"time"

	"github.com/joinsangha/storefront/pkg/apperr"
	"github.com/joinsangha/storefront/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// GuardedGateway bounds every call with a timeout and a circuit breaker and
// turns any failure into an apperr.GatewayError. Declines do not trip the breaker.
type GuardedGateway struct {
	next     Gateway
	timeout  time.Duration
	intents  *gobreaker.CircuitBreaker[Intent]
	confirms *gobreaker.CircuitBreaker[Result]
	log      *zap.Logger
}

func NewGuardedGateway(next Gateway, timeout time.Duration, log *zap.Logger) *GuardedGateway {
	opts := circuitbreaker.DefaultOptions("payment-gateway", log)
	opts.IsSuccessful = func(err error) bool {
		var decline *DeclineError
		return err == nil || errors.As(err, &decline)
	}

	intentOpts := opts
	intentOpts.Name = "payment-gateway-intents"
	confirmOpts := opts
	confirmOpts.Name = "payment-gateway-confirms"

	return &GuardedGateway{
		next:     next,
		timeout:  timeout,
		intents:  circuitbreaker.New[Intent](intentOpts),
		confirms: circuitbreaker.New[Result](confirmOpts),
		log:      log,
	}
}

func (g *GuardedGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	intent, err := g.intents.Execute(func() (Intent, error) {
		return g.next.CreateIntent(ctx, amount, currency, metadata)
	})
	if err != nil {
		return Intent{}, g.translate("create intent", err)
	}
	return intent, nil
}

func (g *GuardedGateway) ConfirmPayment(ctx context.Context, intent Intent, billing BillingDetails) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.confirms.Execute(func() (Result, error) {
		return g.next.ConfirmPayment(ctx, intent, billing)
	})
	if err != nil {
		return Result{}, g.translate("confirm payment", err)
	}
	return res, nil
}

func (g *GuardedGateway) translate(op string, err error) error {
	var decline *DeclineError
	switch {
	case errors.As(err, &decline):
		g.log.Info("payment declined", zap.String("op", op), zap.String("reason", decline.Reason))
		return apperr.Gateway("Payment failed: "+decline.Reason, err)
	case circuitbreaker.IsOpen(err):
		g.log.Warn("payment gateway unavailable", zap.String("op", op), zap.Error(err))
		return apperr.Gateway("Payment service is temporarily unavailable. Please try again shortly.", err)
	case errors.Is(err, context.DeadlineExceeded):
		g.log.Warn("payment gateway timed out", zap.String("op", op), zap.Error(err))
		return apperr.Gateway("Payment service timed out. Please try again.", err)
	default:
		g.log.Error("payment gateway error", zap.String("op", op), zap.Error(err))
		return apperr.Gateway("Payment could not be processed. Please try again.", err)
	}
}
