package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RelayConfig controls how often and how much the relay drains.
type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Relay moves unpublished outbox entries to the broker and marks them
// published. Delivery is at-least-once: a crash between publish and mark
// re-sends the batch.
type Relay struct {
	repo      OutboxRepository
	publisher EntryPublisher
	cfg       RelayConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewRelay creates a relay. Zero config values fall back to 1s / 100.
func NewRelay(repo OutboxRepository, publisher EntryPublisher, cfg RelayConfig, logger *slog.Logger) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Flush publishes one batch and returns how many entries were relayed.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	entries, err := r.repo.FetchUnpublished(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.PublishEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("publish outbox batch: %w", err)
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.repo.MarkPublished(ctx, ids, r.now()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	return len(entries), nil
}

// Run flushes on every tick until ctx is cancelled. A full batch triggers an
// immediate follow-up flush instead of waiting for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay starting", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return nil
		case <-ticker.C:
		}

		for {
			n, err := r.Flush(ctx)
			if err != nil {
				r.logger.Error("outbox relay flush failed", "error", err)
				break
			}
			if n < r.cfg.BatchSize {
				break
			}
		}
	}
}
