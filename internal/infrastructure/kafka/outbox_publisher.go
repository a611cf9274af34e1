package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/collections-service/pkg/events"
	pkgkafka "github.com/bibbank/collections-service/pkg/kafka"
)

// Producer is the publishing side of pkg/kafka.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// OutboxPublisher implements events.EntryPublisher by writing stored outbox
// entries to one Kafka topic, keyed by aggregate id.
type OutboxPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

var _ events.EntryPublisher = (*OutboxPublisher)(nil)

func NewOutboxPublisher(producer Producer, topic string, logger *slog.Logger) *OutboxPublisher {
	return &OutboxPublisher{producer: producer, topic: topic, logger: logger}
}

// PublishEntries sends the batch in one write.
func (p *OutboxPublisher) PublishEntries(ctx context.Context, entries []events.OutboxEntry) error {
	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, e := range entries {
		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", e.EventType,
			"aggregate_id", e.AggregateID,
			"tenant_id", e.TenantID,
			"topic", p.topic,
			"payload_size", len(e.Payload),
		)
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Time:  e.CreatedAt,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"event_id":       e.ID,
				"tenant_id":      e.TenantID,
				"aggregate_type": e.AggregateType,
			},
		})
	}
	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("publish %d outbox entries to %s: %w", len(entries), p.topic, err)
	}
	return nil
}
