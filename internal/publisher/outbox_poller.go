package publisher

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/tokobuah/storefront/internal/checkout"
	"github.com/tokobuah/storefront/internal/repository"
)

// KafkaWriter is the slice of kafka.Writer the poller needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains pending outbox events to the broker and repairs paid
// transactions whose event write was lost before it reached the outbox.
type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	batchSize    int
	outbox       repository.OutboxRepository
	txs          repository.TransactionRepository
	writer       KafkaWriter
	logger       *logrus.Logger
}

func NewOutboxPoller(outbox repository.OutboxRepository, txs repository.TransactionRepository, logger *logrus.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: 5 * time.Second,
		batchSize:    100,
		outbox:       outbox,
		txs:          txs,
		writer:       w,
		logger:       logger,
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
			p.recoverStuckTransactions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.outbox.FetchUnprocessed(ctx, p.batchSize)
	if err != nil {
		p.logger.WithError(err).Error("failed to fetch outbox events")
		return
	}

	for _, event := range events {
		msg := kafka.Message{
			Key:   []byte(event.AggregateID), // order id, preserves per-order ordering
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.WithError(err).WithField("event_id", event.ID).Error("failed to publish outbox event")
			continue
		}

		if err := p.outbox.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.WithError(err).WithField("event_id", event.ID).Error("failed to mark outbox event as processed")
		}
	}
}

// recoverStuckTransactions re-appends the order.paid event for transactions
// that reached paid but never got their outbox row, e.g. when the process
// died between the status write and the outbox write.
func (p *OutboxPoller) recoverStuckTransactions(ctx context.Context) {
	stuck, err := p.txs.ListPaidWithoutEvent(ctx, p.batchSize)
	if err != nil {
		p.logger.WithError(err).Error("failed to list paid transactions without event")
		return
	}

	for _, tx := range stuck {
		log := p.logger.WithField("order_id", tx.ID)
		log.Warn("recovering paid transaction with missing event")

		event, err := checkout.BuildOrderPaidEvent(tx, tx.UpdatedAt)
		if err != nil {
			log.WithError(err).Error("failed to rebuild order.paid event")
			continue
		}
		if err := p.outbox.Append(ctx, event); err != nil {
			log.WithError(err).Error("failed to append recovered event")
			continue
		}
		if err := p.txs.SetEventEmitted(ctx, tx.ID); err != nil {
			log.WithError(err).Error("failed to flag recovered transaction")
			continue
		}

		log.Info("transaction event recovered")
	}
}
