package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/joinsangha/storefront/internal/orders/domain"
	r "github.com/joinsangha/storefront/internal/orders/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller publishes recorded orders to Kafka and replays ledger writes
// that failed on the request path.
type OutboxPoller struct {
	timeout      time.Duration
	eventTick    time.Duration
	recoveryTick time.Duration
	batchSize    int
	repo         r.OrderRepository
	retry        r.RetryQueue
	writer       MessageWriter
	log          *zap.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOutboxPoller(repo r.OrderRepository, retry r.RetryQueue, writer MessageWriter, log *zap.Logger) *OutboxPoller {
	return &OutboxPoller{
		timeout:      5 * time.Second,
		eventTick:    time.Second,
		recoveryTick: 10 * time.Second,
		batchSize:    100,
		repo:         repo,
		retry:        retry,
		writer:       writer,
		log:          log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()

	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.retryFailedOrders(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Warn("failed to publish outbox event", zap.Stringer("event_id", event.ID), zap.Error(err))
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Warn("failed to mark outbox event as processed", zap.Stringer("event_id", event.ID), zap.Error(err))
		}
	}
}

// retryFailedOrders drains the retry queue until it is empty or the ledger fails again.
func (p *OutboxPoller) retryFailedOrders(ctx context.Context) {
	if p.retry == nil {
		return
	}

	for i := 0; i < p.batchSize; i++ {
		order, err := p.retry.Pop(ctx)
		if errors.Is(err, r.ErrQueueEmpty) {
			return
		}
		if err != nil {
			p.log.Error("failed to pop ledger retry", zap.Error(err))
			return
		}

		log := p.log.With(zap.String("payment_reference", order.PaymentReference))
		appendCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err = p.repo.AppendOrder(appendCtx, order)
		cancel()
		switch {
		case err == nil:
			log.Info("ledger retry succeeded")
		case errors.Is(err, r.ErrDuplicateOrder):
			log.Info("ledger retry skipped, order already recorded")
		default:
			log.Warn("ledger retry failed, requeueing", zap.Error(err))
			p.requeue(ctx, order, log)
			return
		}
	}
}

// requeue survives a cancelled poll; the popped order exists nowhere else.
func (p *OutboxPoller) requeue(ctx context.Context, order *domain.Order, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.retry.Push(ctx, order); err != nil {
		log.Error("order dropped from ledger retry", zap.Error(err))
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // payment reference keeps one order on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
