package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	orders "github.com/joinsangha/storefront/internal/orders/domain"
	"github.com/joinsangha/storefront/internal/payment"
	"github.com/joinsangha/storefront/pkg/apperr"
	"github.com/joinsangha/storefront/pkg/logger"
	"github.com/joinsangha/storefront/pkg/price"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type IntentCreator interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (payment.Intent, error)
}

type OrderRecorder interface {
	RecordOrder(ctx context.Context, order *orders.Order) orders.Ack
}

type WebhookVerifier interface {
	Verify(payload []byte, signature string) (payment.WebhookEvent, error)
}

type PaymentHandler struct {
	gateway  IntentCreator
	recorder OrderRecorder
	webhooks WebhookVerifier
	currency string
	timeout  time.Duration
	maxBody  int64
	log      *zap.Logger
}

func NewPaymentHandler(
	gateway IntentCreator,
	recorder OrderRecorder,
	webhooks WebhookVerifier,
	currency string,
	timeout time.Duration,
	maxBody int64,
	log *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		gateway:  gateway,
		recorder: recorder,
		webhooks: webhooks,
		currency: currency,
		timeout:  timeout,
		maxBody:  maxBody,
		log:      log,
	}
}

type CreateIntentRequestDTO struct {
	Amount   decimal.Decimal   `json:"amount"`
	Metadata map[string]string `json:"metadata"`
}

func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateIntentRequestDTO
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}
	if !req.Amount.IsPositive() {
		handleServiceError(ctx, w, h.log, apperr.Validation("amount", "amount must be greater than zero"))
		return
	}

	intent, err := h.gateway.CreateIntent(ctx, req.Amount, h.currency, req.Metadata)
	if err != nil {
		handleServiceError(ctx, w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, intent)
}

type SaveOrderItemDTO struct {
	Name     string          `json:"name"`
	Price    price.Value     `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type SaveOrderRequestDTO struct {
	PaymentIntentID string             `json:"paymentIntentId"`
	Amount          decimal.Decimal    `json:"amount"`
	CustomerInfo    orders.Customer    `json:"customerInfo"`
	Items           []SaveOrderItemDTO `json:"items"`
	TransactionDate string             `json:"transactionDate"`
}

func (req SaveOrderRequestDTO) toOrder() *orders.Order {
	o := &orders.Order{
		ID:               uuid.New(),
		PaymentReference: req.PaymentIntentID,
		Amount:           req.Amount,
		Customer:         req.CustomerInfo,
	}
	if t, err := time.Parse(time.RFC3339, req.TransactionDate); err == nil {
		o.TransactionDate = t
	}
	for _, it := range req.Items {
		o.Items = append(o.Items, orders.Item{
			Name:      it.Name,
			Price:     it.Price.String(),
			Quantity:  it.Quantity,
			LineTotal: it.Price.Amount().Mul(it.Quantity),
		})
	}
	return o
}

// SaveOrder records a paid order. The ledger and emails run after the
// response; their failures are logged, never returned.
func (h *PaymentHandler) SaveOrder(w http.ResponseWriter, r *http.Request) {
	var req SaveOrderRequestDTO
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Missing required order information")
		return
	}

	order := req.toOrder()
	order.Currency = h.currency
	if err := order.Validate(); err != nil {
		respondMessage(w, http.StatusBadRequest, userMessage(err))
		return
	}

	ack := h.recorder.RecordOrder(r.Context(), order)
	logger.FromContext(r.Context(), h.log).Info("order accepted",
		zap.String("payment_reference", order.PaymentReference),
		zap.Bool("ledger_queued", ack.LedgerQueued),
		zap.Bool("notifications_queued", ack.NotificationsQueued))

	respondJSON(w, http.StatusOK, MessageResponse{
		Message: "Order processed successfully",
		OrderID: order.PaymentReference,
	})
}

func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Webhook Error: could not read body", http.StatusBadRequest)
		return
	}

	event, err := h.webhooks.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn("webhook rejected", zap.Error(err))
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		log.Info("payment intent succeeded", zap.String("intent_id", event.IntentID), zap.Int64("amount", event.Amount))
	case payment.EventPaymentFailed:
		log.Warn("payment intent failed", zap.String("intent_id", event.IntentID), zap.String("reason", event.Message))
	default:
		log.Debug("unhandled webhook event", zap.String("type", event.Type))
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
