package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/pkg/events"
	pgutil "github.com/bibbank/collections-service/pkg/postgres"
)

var (
	_ port.UnitOfWork                   = (*UnitOfWork)(nil)
	_ port.CollectionCaseRepository     = (*CaseRepository)(nil)
	_ port.CollectionStrategyRepository = (*StrategyRepository)(nil)
	_ port.StrategyExecutionRepository  = (*ExecutionRepository)(nil)
	_ port.DebtSettlementRepository     = (*SettlementRepository)(nil)
	_ port.LegalActionRepository        = (*LegalRepository)(nil)
	_ port.LoanWriteOffRepository       = (*WriteOffRepository)(nil)
	_ port.ProcessedEventRepository     = (*ProcessedEventRepository)(nil)
	_ events.OutboxRepository           = (*OutboxRepository)(nil)
)

// UnitOfWork runs each unit in one database transaction. Events recorded on
// the collector are written to the outbox before commit.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return pgutil.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		collector := &events.EventCollector{}
		repos := port.Repositories{
			Cases:        NewCaseRepository(tx),
			Strategies:   NewStrategyRepository(tx),
			Executions:   NewExecutionRepository(tx),
			Settlements:  NewSettlementRepository(tx),
			LegalActions: NewLegalRepository(tx),
			WriteOffs:    NewWriteOffRepository(tx),
			Processed:    NewProcessedEventRepository(tx),
			Events:       collector,
		}
		if err := fn(ctx, repos); err != nil {
			return err
		}
		entries, err := events.NewOutboxEntries(collector.Events())
		if err != nil {
			return fmt.Errorf("build outbox entries: %w", err)
		}
		return insertOutbox(ctx, tx, entries)
	})
}
