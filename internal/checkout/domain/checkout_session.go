package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Session is one client's walk through checkout. It owns its cart snapshot, so
// Confirmation never depends on the live cart.
type Session struct {
	ClientID         string          `json:"client_id"`
	Stage            Stage           `json:"stage"`
	Shipping         ShippingInfo    `json:"shipping"`
	Snapshot         *CartSnapshot   `json:"snapshot,omitempty"`
	CheckoutAmount   decimal.Decimal `json:"checkout_amount"`
	IntentID         string          `json:"intent_id,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewSession(clientID string, now time.Time) *Session {
	return &Session{
		ClientID:  clientID,
		Stage:     StageCart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start moves Cart to Shipping. The cart must hold at least one item.
func (s *Session) Start(cartEmpty bool, now time.Time) error {
	if err := s.guard(StageShipping); err != nil {
		return err
	}
	if cartEmpty {
		return ErrEmptyCart
	}

	s.moveTo(StageShipping, now)
	return nil
}

// SubmitShipping validates the address and moves Shipping to Payment, freezing
// the charge amount from snapshot.
func (s *Session) SubmitShipping(info ShippingInfo, snapshot CartSnapshot, now time.Time) error {
	if err := s.guard(StagePayment); err != nil {
		return err
	}
	if err := info.Validate(); err != nil {
		return err
	}
	if snapshot.IsEmpty() {
		return ErrEmptyCart
	}

	s.Shipping = info
	s.Snapshot = &snapshot
	s.CheckoutAmount = snapshot.Amount
	s.IntentID = ""
	s.moveTo(StagePayment, now)
	return nil
}

// Back steps Payment to Shipping or Shipping to Cart without touching other fields.
func (s *Session) Back(now time.Time) error {
	var prev Stage
	switch s.Stage {
	case StagePayment:
		prev = StageShipping
	case StageShipping:
		prev = StageCart
	default:
		return fmt.Errorf("%w: no step back from %s", ErrIllegalTransition, s.Stage)
	}

	s.moveTo(prev, now)
	return nil
}

// CompletePayment records the gateway reference and enters Confirmation.
func (s *Session) CompletePayment(reference string, now time.Time) error {
	if err := s.guard(StageConfirmation); err != nil {
		return err
	}
	if reference == "" {
		return ErrMissingReference
	}

	s.PaymentReference = reference
	s.moveTo(StageConfirmation, now)
	return nil
}

// Reset is "back to shop": only valid from Confirmation. The caller clears the cart.
func (s *Session) Reset(now time.Time) error {
	if s.Stage != StageConfirmation {
		return fmt.Errorf("%w: reset from %s", ErrIllegalTransition, s.Stage)
	}

	s.Shipping = ShippingInfo{}
	s.clearPayment()
	s.moveTo(StageCart, now)
	return nil
}

// Dismiss closes checkout from any stage and returns to Cart. It reports
// whether the cart must be cleared, which only happens when leaving Confirmation.
// Shipping details entered so far are kept for the next attempt.
func (s *Session) Dismiss(now time.Time) (clearCart bool) {
	if s.Stage == StageConfirmation {
		_ = s.Reset(now)
		return true
	}

	s.clearPayment()
	s.moveTo(StageCart, now)
	return false
}

// DisplayAmount is what Confirmation shows: the frozen amount, never a recomputation.
func (s *Session) DisplayAmount() string {
	return "$" + s.CheckoutAmount.StringFixed(2)
}

func (s *Session) guard(next Stage) error {
	if !s.Stage.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Stage, next)
	}
	return nil
}

func (s *Session) clearPayment() {
	s.Snapshot = nil
	s.CheckoutAmount = decimal.Zero
	s.IntentID = ""
	s.PaymentReference = ""
}

func (s *Session) moveTo(stage Stage, now time.Time) {
	s.Stage = stage
	s.UpdatedAt = now
}
