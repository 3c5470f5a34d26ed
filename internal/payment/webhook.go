package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

var ErrInvalidSignature = errors.New("webhook signature verification failed")

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
	Amount   int64
	Currency string
	Message  string
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify checks the Stripe-Signature header and decodes payment intent events.
func (v *WebhookVerifier) Verify(payload []byte, signature string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, v.secret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventPaymentSucceeded && out.Type != EventPaymentFailed {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return out, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	out.Amount = pi.Amount
	out.Currency = string(pi.Currency)
	if pi.LastPaymentError != nil {
		out.Message = pi.LastPaymentError.Msg
	}
	return out, nil
}
