package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Handler processes a consumed Kafka message.
type Handler func(ctx context.Context, msg Message) error

// ErrSkip tells the consumer a message can never succeed. It is committed
// without further attempts.
var ErrSkip = errors.New("kafka: skip message")

// reader is the subset of *kafkago.Reader the consumer uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ConsumerOptions tunes redelivery of failing messages.
type ConsumerOptions struct {
	// MaxAttempts is how often a message is handed to the handler before
	// it is committed and dropped. Defaults to 5.
	MaxAttempts int
	// Backoff is the wait before the first retry; it doubles per attempt.
	// Defaults to 200ms.
	Backoff time.Duration
}

// Consumer reads one topic in a consumer group and commits each message
// after the handler accepts it.
type Consumer struct {
	reader  reader
	topic   string
	group   string
	handler Handler
	opts    ConsumerOptions
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for topic.
func NewConsumer(cfg Config, topic string, handler Handler, opts ConsumerOptions, logger *slog.Logger) (*Consumer, error) {
	dialer, err := cfg.dialer()
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024, // 10 MB
		Dialer:   dialer,
	})
	return newConsumer(r, topic, cfg.ConsumerGroup, handler, opts, logger), nil
}

func newConsumer(r reader, topic, group string, handler Handler, opts ConsumerOptions, logger *slog.Logger) *Consumer {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &Consumer{reader: r, topic: topic, group: group, handler: handler, opts: opts, logger: logger}
}

// Start consumes until ctx is cancelled. A message whose handler keeps
// failing is logged and committed once MaxAttempts is reached so one bad
// record cannot stall the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting", "topic", c.topic, "group", c.group)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("consumer stopping", "topic", c.topic)
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("dropping message",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit error",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	msg := fromKafka(m)
	wait := c.opts.Backoff

	var err error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err = c.handler(ctx, msg); err == nil || errors.Is(err, ErrSkip) {
			return err
		}
		if attempt == c.opts.MaxAttempts {
			break
		}
		c.logger.Warn("handler failed, retrying",
			"topic", m.Topic, "offset", m.Offset, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("after %d attempts: %w", c.opts.MaxAttempts, err)
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
