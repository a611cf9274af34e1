package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/collections-service/pkg/events"
	pgutil "github.com/bibbank/collections-service/pkg/postgres"
)

// OutboxRepository is the relay's view of the outbox table.
type OutboxRepository struct {
	db pgutil.Querier
}

func NewOutboxRepository(db pgutil.Querier) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Store(ctx context.Context, entries []events.OutboxEntry) error {
	return insertOutbox(ctx, r.db, entries)
}

// FetchUnpublished returns up to batchSize pending entries, oldest first.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, tenant_id, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`,
		batchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.TenantID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.Exec(ctx, `UPDATE outbox SET published_at = $2 WHERE id = ANY($1)`, ids, at); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func insertOutbox(ctx context.Context, db pgutil.Querier, entries []events.OutboxEntry) error {
	for _, e := range entries {
		_, err := db.Exec(ctx, `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, tenant_id, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.AggregateID, e.AggregateType, e.EventType, e.TenantID, e.Payload, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox %s: %w", e.EventType, err)
		}
	}
	return nil
}
