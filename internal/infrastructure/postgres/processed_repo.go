package postgres

import (
	"context"
	"fmt"
	"time"

	pgutil "github.com/bibbank/collections-service/pkg/postgres"
)

// ProcessedEventRepository implements port.ProcessedEventRepository on the
// processed_ledger_events table.
type ProcessedEventRepository struct {
	db pgutil.Querier
}

func NewProcessedEventRepository(db pgutil.Querier) *ProcessedEventRepository {
	return &ProcessedEventRepository{db: db}
}

func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, tenantID, eventID string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO processed_ledger_events (tenant_id, event_id, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, event_id) DO NOTHING`,
		tenantID, eventID, at,
	)
	if err != nil {
		return false, fmt.Errorf("insert processed ledger event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
