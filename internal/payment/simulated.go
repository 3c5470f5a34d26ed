package payment

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome decides whether a simulated confirmation succeeds.
type Outcome func() (ok bool, reason string)

var refusalReasons = []string{
	"insufficient funds",
	"card expired",
	"card declined",
	"incorrect cvc",
	"processing error",
}

// RandomOutcome approves about 95% of payments.
func RandomOutcome() (bool, string) {
	return calcOutcome(rand.Intn(101))
}

func calcOutcome(n int) (bool, string) {
	if n < 95 {
		return true, ""
	}
	idx := n - 95
	if idx == 0 || idx > len(refusalReasons) {
		return false, "unknown reason"
	}
	return false, refusalReasons[idx-1]
}

// SimulatedGateway stands in for Stripe when no secret key is configured.
type SimulatedGateway struct {
	outcome Outcome

	mu        sync.Mutex
	confirmed map[string]Result
}

func NewSimulatedGateway(outcome Outcome) *SimulatedGateway {
	if outcome == nil {
		outcome = RandomOutcome
	}
	return &SimulatedGateway{outcome: outcome, confirmed: make(map[string]Result)}
}

func (g *SimulatedGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, _ map[string]string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}

	id := "pi_sim_" + uuid.NewString()
	return Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *SimulatedGateway) ConfirmPayment(ctx context.Context, intent Intent, _ BillingDetails) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if res, ok := g.confirmed[intent.ID]; ok {
		return res, nil
	}

	ok, reason := g.outcome()
	if !ok {
		return Result{}, &DeclineError{Reason: reason}
	}
	res := Result{Reference: intent.ID}
	g.confirmed[intent.ID] = res
	return res, nil
}
