package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, classifyStripeError(err)
	}

	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *StripeGateway) ConfirmPayment(ctx context.Context, intent Intent, billing BillingDetails) (Result, error) {
	if billing.PaymentMethod == "" {
		return Result{}, &DeclineError{Reason: "payment method is required"}
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(billing.PaymentMethod),
		ReceiptEmail:  stripe.String(billing.Email),
		Shipping: &stripe.ShippingDetailsParams{
			Name:  stripe.String(billing.Name),
			Phone: optional(billing.Phone),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(billing.Address.Line1),
				City:       optional(billing.Address.City),
				State:      optional(billing.Address.State),
				PostalCode: optional(billing.Address.PostalCode),
				Country:    optional(billing.Address.Country),
			},
		},
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Confirm(intent.ID, params)
	if isUnexpectedState(err) {
		// Already confirmed by an earlier attempt; report its outcome without charging again.
		getParams := &stripe.PaymentIntentParams{}
		getParams.Context = ctx
		pi, err = g.api.PaymentIntents.Get(intent.ID, getParams)
	}
	if err != nil {
		return Result{}, classifyStripeError(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return Result{Reference: pi.ID}, nil
	case stripe.PaymentIntentStatusRequiresAction:
		return Result{}, &DeclineError{Reason: "additional authentication is required"}
	default:
		return Result{}, &DeclineError{Reason: fmt.Sprintf("payment is %s", pi.Status)}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

func isUnexpectedState(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Code == stripe.ErrorCodePaymentIntentUnexpectedState
}

// classifyStripeError separates card refusals from transport and API failures.
func classifyStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		return &DeclineError{Reason: se.Msg}
	}
	return fmt.Errorf("stripe: %w", err)
}
