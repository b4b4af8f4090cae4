package events

import (
	"context"
	"encoding/json"
	"time"

	"vietcart-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type paymentEvent struct {
	TxnRef      string    `json:"txn_ref"`
	Status      string    `json:"status"`
	AmountMinor int64     `json:"amount_minor"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits payment status events to Kafka. Delivery is best
// effort: downstream consumers (fulfilment, notifications) re-read
// order state anyway, so a lost event is only a delay.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns nil when no brokers or topic are configured;
// callers treat a nil publisher as "events disabled".
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PaymentStatusChanged(ctx context.Context, txnRef string, status string, amountMinor int64) {
	if p == nil {
		return
	}

	value, err := json.Marshal(paymentEvent{
		TxnRef:      txnRef,
		Status:      status,
		AmountMinor: amountMinor,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(txnRef), Value: value}); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish payment event",
			zap.String("txn_ref", txnRef),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
