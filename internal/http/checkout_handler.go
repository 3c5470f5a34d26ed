package http

import (
	"context"
	"net/http"
	"time"

	d "github.com/joinsangha/storefront/internal/checkout/domain"
	"github.com/joinsangha/storefront/internal/payment"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Current(ctx context.Context, clientID string) (*d.Session, error)
	Start(ctx context.Context, clientID string) (*d.Session, error)
	SubmitShipping(ctx context.Context, clientID string, info d.ShippingInfo) (*d.Session, error)
	Back(ctx context.Context, clientID string) (*d.Session, error)
	ConfirmPayment(ctx context.Context, clientID string, billing payment.BillingDetails) (*d.Session, error)
	Reset(ctx context.Context, clientID string) (*d.Session, error)
	Dismiss(ctx context.Context, clientID string) (*d.Session, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
	maxBody  int64
	log      *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration, maxBody int64, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, timeout: timeout, maxBody: maxBody, log: log}
}

type CheckoutResponseDTO struct {
	Stage            d.Stage          `json:"stage"`
	Shipping         *d.ShippingInfo  `json:"shipping,omitempty"`
	Items            []d.SnapshotItem `json:"items,omitempty"`
	Amount           string           `json:"amount,omitempty"`
	DisplayAmount    string           `json:"displayAmount,omitempty"`
	Currency         string           `json:"currency,omitempty"`
	PaymentReference string           `json:"paymentReference,omitempty"`
}

func toCheckoutResponse(s *d.Session) CheckoutResponseDTO {
	resp := CheckoutResponseDTO{
		Stage:            s.Stage,
		PaymentReference: s.PaymentReference,
	}
	if s.Stage != d.StageCart {
		shipping := s.Shipping
		resp.Shipping = &shipping
	}
	if s.Snapshot != nil {
		resp.Items = s.Snapshot.Items
		resp.Currency = s.Snapshot.Currency
		resp.Amount = s.CheckoutAmount.StringFixed(2)
		resp.DisplayAmount = s.DisplayAmount()
	}
	return resp
}

type sessionStep func(ctx context.Context, clientID string) (*d.Session, error)

func (h *CheckoutHandler) run(w http.ResponseWriter, r *http.Request, step sessionStep) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := step(ctx, clientIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutResponse(sess))
}

func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Current)
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Start)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Back)
}

func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Reset)
}

func (h *CheckoutHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.checkout.Dismiss)
}

func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	var info d.ShippingInfo
	if err := decodeJSON(w, r, h.maxBody, &info); err != nil {
		handleServiceError(r.Context(), w, h.log, err)
		return
	}

	h.run(w, r, func(ctx context.Context, clientID string) (*d.Session, error) {
		return h.checkout.SubmitShipping(ctx, clientID, info)
	})
}

// ConfirmPayment takes billing details from the payment widget. Fields left
// empty are filled from the shipping address.
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var billing payment.BillingDetails
	if err := decodeJSON(w, r, h.maxBody, &billing); err != nil {
		handleServiceError(r.Context(), w, h.log, err)
		return
	}

	h.run(w, r, func(ctx context.Context, clientID string) (*d.Session, error) {
		return h.checkout.ConfirmPayment(ctx, clientID, billing)
	})
}
