package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joinsangha/storefront/internal/orders/domain"
	r "github.com/joinsangha/storefront/internal/orders/repository"
	"go.uber.org/zap"
)

type OrderNotifier interface {
	NotifyOrder(ctx context.Context, order *domain.Order) error
}

// Recorder runs the two post-payment side effects: the ledger append and the
// customer/admin notifications. Each runs in its own goroutine, detached from
// the request, and neither can fail the caller.
type Recorder struct {
	repo     r.OrderRepository
	retry    r.RetryQueue
	notifier OrderNotifier
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewRecorder(repo r.OrderRepository, retry r.RetryQueue, notifier OrderNotifier, log *zap.Logger) *Recorder {
	return &Recorder{
		repo:     repo,
		retry:    retry,
		notifier: notifier,
		timeout:  30 * time.Second,
		log:      log,
	}
}

func (rec *Recorder) RecordOrder(ctx context.Context, order *domain.Order) domain.Ack {
	ack := domain.Ack{OrderID: order.ShortID()}
	log := rec.log.With(zap.String("payment_reference", order.PaymentReference), zap.String("order_id", ack.OrderID))

	if err := order.Validate(); err != nil {
		log.Warn("order not recorded", zap.Error(err))
		return ack
	}

	bg := context.WithoutCancel(ctx)

	rec.wg.Add(2)
	go func() {
		defer rec.wg.Done()
		rec.appendLedger(bg, order, log)
	}()
	go func() {
		defer rec.wg.Done()
		rec.notify(bg, order, log)
	}()

	ack.LedgerQueued = true
	ack.NotificationsQueued = true
	return ack
}

func (rec *Recorder) appendLedger(ctx context.Context, order *domain.Order, log *zap.Logger) {
	appendCtx, cancel := context.WithTimeout(ctx, rec.timeout)
	err := rec.repo.AppendOrder(appendCtx, order)
	cancel()

	switch {
	case err == nil:
		log.Info("order appended to ledger")
		return
	case errors.Is(err, r.ErrDuplicateOrder):
		log.Info("order already in ledger")
		return
	}

	log.Error("ledger append failed", zap.Error(err))
	if rec.retry == nil {
		return
	}

	// The append deadline may be spent; the retry push gets its own.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rec.timeout)
	defer cancel()
	if err := rec.retry.Push(pushCtx, order); err != nil {
		log.Error("failed to queue ledger retry, order only in logs", zap.Error(err), zap.Any("order", order))
	}
}

func (rec *Recorder) notify(ctx context.Context, order *domain.Order, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, rec.timeout)
	defer cancel()

	if err := rec.notifier.NotifyOrder(ctx, order); err != nil {
		log.Error("order notification failed", zap.Error(err))
		return
	}
	log.Info("order notifications sent")
}

// Wait blocks until in-flight side effects finish or ctx is done.
func (rec *Recorder) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		rec.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
