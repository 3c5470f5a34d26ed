package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type Intent struct {
	ID           string          `json:"paymentIntentId"`
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"-"`
	Currency     string          `json:"-"`
}

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type BillingDetails struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
	// PaymentMethod is the tokenised method collected by the payment widget.
	PaymentMethod string `json:"payment_method"`
}

type Result struct {
	Reference string
}

// Gateway is the external payment processor. Card data never reaches it from here.
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (Intent, error)
	ConfirmPayment(ctx context.Context, intent Intent, billing BillingDetails) (Result, error)
}

// DeclineError means the gateway answered and refused the payment.
type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// ToMinorUnits converts a decimal amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
