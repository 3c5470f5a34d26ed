package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	cart "github.com/joinsangha/storefront/internal/cart/domain"
	d "github.com/joinsangha/storefront/internal/checkout/domain"
	r "github.com/joinsangha/storefront/internal/checkout/repository"
	orders "github.com/joinsangha/storefront/internal/orders/domain"
	"github.com/joinsangha/storefront/internal/payment"
	"go.uber.org/zap"
)

const (
	saveAttempts = 3
	saveTimeout  = 2 * time.Second
	saveBackoff  = 50 * time.Millisecond
)

// CartStore must read the durable cart; the amount frozen at shipping is charged.
type CartStore interface {
	FreshCart(ctx context.Context, clientID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, clientID string) error
}

type OrderRecorder interface {
	RecordOrder(ctx context.Context, order *orders.Order) orders.Ack
}

type CheckoutService struct {
	sessions r.SessionStore
	carts    CartStore
	gateway  payment.Gateway
	recorder OrderRecorder
	currency string
	log      *zap.Logger
	now      func() time.Time
}

func NewCheckoutService(
	sessions r.SessionStore,
	carts CartStore,
	gateway payment.Gateway,
	recorder OrderRecorder,
	currency string,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		sessions: sessions,
		carts:    carts,
		gateway:  gateway,
		recorder: recorder,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

// Current returns the client's session, starting a fresh one at Cart if none is stored.
func (s *CheckoutService) Current(ctx context.Context, clientID string) (*d.Session, error) {
	sess, err := s.sessions.Get(ctx, clientID)
	if errors.Is(err, r.ErrSessionNotFound) {
		return d.NewSession(clientID, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	return sess, nil
}

func (s *CheckoutService) Start(ctx context.Context, clientID string) (*d.Session, error) {
	sess, err := s.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.FreshCart(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if err := sess.Start(c.IsEmpty(), s.now()); err != nil {
		return nil, err
	}
	return sess, s.save(ctx, sess)
}

// SubmitShipping validates the address, snapshots the cart and moves to Payment.
func (s *CheckoutService) SubmitShipping(ctx context.Context, clientID string, info d.ShippingInfo) (*d.Session, error) {
	sess, err := s.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.FreshCart(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	now := s.now()
	if err := sess.SubmitShipping(info, d.SnapshotCart(c, s.currency, now), now); err != nil {
		return nil, err
	}
	return sess, s.save(ctx, sess)
}

func (s *CheckoutService) Back(ctx context.Context, clientID string) (*d.Session, error) {
	sess, err := s.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := sess.Back(s.now()); err != nil {
		return nil, err
	}
	return sess, s.save(ctx, sess)
}

// ConfirmPayment charges the frozen amount. The intent is persisted on the
// session before it is confirmed, so a repeated confirm reuses it instead of
// opening a second charge. A gateway failure leaves the session in Payment.
// After success the session is in Confirmation and the order is handed to the
// recorder.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, clientID string, billing payment.BillingDetails) (*d.Session, error) {
	sess, err := s.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !sess.Stage.CanTransitionTo(d.StageConfirmation) {
		return nil, fmt.Errorf("%w: %s -> %s", d.ErrIllegalTransition, sess.Stage, d.StageConfirmation)
	}

	intent, err := s.paymentIntent(ctx, sess)
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.ConfirmPayment(ctx, intent, billingFromShipping(sess.Shipping, billing))
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := sess.CompletePayment(res.Reference, now); err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("client_id", clientID), zap.String("payment_reference", res.Reference))
	if err := s.saveAfterCharge(ctx, sess); err != nil {
		log.Error("payment succeeded but checkout session was not saved", zap.Error(err))
	}

	ack := s.recorder.RecordOrder(ctx, orderFromSession(sess, now))
	log.Info("payment confirmed",
		zap.String("amount", sess.CheckoutAmount.StringFixed(2)),
		zap.Bool("ledger_queued", ack.LedgerQueued),
		zap.Bool("notifications_queued", ack.NotificationsQueued))

	return sess, nil
}

// paymentIntent returns the intent already attached to the session, or opens
// one and saves the session before any charge is attempted.
func (s *CheckoutService) paymentIntent(ctx context.Context, sess *d.Session) (payment.Intent, error) {
	if sess.IntentID != "" {
		return payment.Intent{ID: sess.IntentID, Amount: sess.CheckoutAmount, Currency: s.currency}, nil
	}

	intent, err := s.gateway.CreateIntent(ctx, sess.CheckoutAmount, s.currency, intentMetadata(sess))
	if err != nil {
		return payment.Intent{}, err
	}

	sess.IntentID = intent.ID
	if err := s.save(ctx, sess); err != nil {
		return payment.Intent{}, err
	}
	return intent, nil
}

// saveAfterCharge persists a paid session. The request context may already be
// gone by now, so it is detached and the write is retried.
func (s *CheckoutService) saveAfterCharge(ctx context.Context, sess *d.Session) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		err = s.save(saveCtx, sess)
		cancel()
		if err == nil {
			return nil
		}
		s.log.Warn("checkout session save attempt failed",
			zap.String("client_id", sess.ClientID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < saveAttempts {
			time.Sleep(time.Duration(attempt) * saveBackoff)
		}
	}
	return err
}

// Reset is "back to shop" from Confirmation: the cart is emptied and the session starts over.
func (s *CheckoutService) Reset(ctx context.Context, clientID string) (*d.Session, error) {
	sess, err := s.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := sess.Reset(s.now()); err != nil {
		return nil, err
	}
	if err := s.carts.ClearCart(ctx, clientID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return sess, s.save(ctx, sess)
}

// Dismiss closes checkout. The cart survives unless the session was in Confirmation.
func (s *CheckoutService) Dismiss(ctx context.Context, clientID string) (*d.Session, error) {
	sess, err := s.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if clearCart := sess.Dismiss(s.now()); clearCart {
		if err := s.carts.ClearCart(ctx, clientID); err != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
	}
	return sess, s.save(ctx, sess)
}

func (s *CheckoutService) save(ctx context.Context, sess *d.Session) error {
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func intentMetadata(sess *d.Session) map[string]string {
	items := make([]string, 0)
	if sess.Snapshot != nil {
		for _, it := range sess.Snapshot.Items {
			items = append(items, fmt.Sprintf("%s x%s", it.Name, it.Quantity.String()))
		}
	}

	return map[string]string{
		"customer_name":  sess.Shipping.FullName(),
		"customer_email": sess.Shipping.Email,
		"items":          strings.Join(items, ", "),
	}
}

// billingFromShipping fills billing fields the payment form left blank from the shipping address.
func billingFromShipping(info d.ShippingInfo, billing payment.BillingDetails) payment.BillingDetails {
	if billing.Name == "" {
		billing.Name = info.FullName()
	}
	if billing.Email == "" {
		billing.Email = info.Email
	}
	if billing.Phone == "" {
		billing.Phone = info.Phone
	}
	if billing.Address == (payment.Address{}) {
		billing.Address = payment.Address{
			Line1:      info.Address,
			City:       info.City,
			State:      info.State,
			PostalCode: info.PostalCode,
			Country:    info.Country,
		}
	}
	return billing
}

func orderFromSession(sess *d.Session, now time.Time) *orders.Order {
	o := &orders.Order{
		ID:               uuid.New(),
		PaymentReference: sess.PaymentReference,
		Amount:           sess.CheckoutAmount,
		Customer: orders.Customer{
			FirstName:  sess.Shipping.FirstName,
			LastName:   sess.Shipping.LastName,
			Email:      sess.Shipping.Email,
			Phone:      sess.Shipping.Phone,
			Address:    sess.Shipping.Address,
			City:       sess.Shipping.City,
			State:      sess.Shipping.State,
			PostalCode: sess.Shipping.PostalCode,
			Country:    sess.Shipping.Country,
		},
		TransactionDate: now,
		CreatedAt:       now,
	}

	if sess.Snapshot != nil {
		o.Currency = sess.Snapshot.Currency
		for _, it := range sess.Snapshot.Items {
			o.Items = append(o.Items, orders.Item{
				Name:      it.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
				LineTotal: it.LineTotal,
			})
		}
	}
	return o
}
