package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
	pgutil "github.com/bibbank/collections-service/pkg/postgres"
)

const strategyColumns = `
	id, tenant_id, code, name, description, loan_product_id, trigger_days_past_due,
	max_days_past_due, min_outstanding_amount, max_outstanding_amount, action_type,
	message_template, priority, repeat_interval_days, max_repetitions, escalate_on_failure,
	requires_approval, active, effective_from, effective_to, version, created_at, updated_at`

// StrategyRepository implements port.CollectionStrategyRepository.
type StrategyRepository struct {
	db pgutil.Querier
}

func NewStrategyRepository(db pgutil.Querier) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// Save inserts or version-checks and updates a strategy.
func (r *StrategyRepository) Save(ctx context.Context, s model.CollectionStrategy) error {
	st := s.State()
	if st.Version == 0 {
		_, err := r.db.Exec(ctx, `
			INSERT INTO collection_strategies (`+strategyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			        $17, $18, $19, $20, 1, $21, $22)`,
			st.ID, st.TenantID, st.Code, st.Name, st.Description, st.LoanProductID, st.TriggerDaysPastDue,
			st.MaxDaysPastDue, st.MinOutstandingAmount, st.MaxOutstandingAmount, st.ActionType.String(),
			st.MessageTemplate, st.Priority, st.RepeatIntervalDays, st.MaxRepetitions, st.EscalateOnFailure,
			st.RequiresApproval, st.Active, nullTime(st.EffectiveFrom), nullTime(st.EffectiveTo),
			st.CreatedAt, st.UpdatedAt,
		)
		if name, ok := violatedConstraint(err); ok && name == "collection_strategies_code_key" {
			return valueobject.NewValidation("code", "is already in use")
		}
		if err != nil {
			return fmt.Errorf("insert collection strategy: %w", err)
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE collection_strategies SET
			name = $3, description = $4, loan_product_id = $5, trigger_days_past_due = $6,
			max_days_past_due = $7, min_outstanding_amount = $8, max_outstanding_amount = $9,
			action_type = $10, message_template = $11, priority = $12, repeat_interval_days = $13,
			max_repetitions = $14, escalate_on_failure = $15, requires_approval = $16, active = $17,
			effective_from = $18, effective_to = $19, version = version + 1, updated_at = $20
		WHERE tenant_id = $1 AND id = $2 AND version = $21`,
		st.TenantID, st.ID, st.Name, st.Description, st.LoanProductID, st.TriggerDaysPastDue,
		st.MaxDaysPastDue, st.MinOutstandingAmount, st.MaxOutstandingAmount,
		st.ActionType.String(), st.MessageTemplate, st.Priority, st.RepeatIntervalDays,
		st.MaxRepetitions, st.EscalateOnFailure, st.RequiresApproval, st.Active,
		nullTime(st.EffectiveFrom), nullTime(st.EffectiveTo), st.UpdatedAt, st.Version,
	)
	if err != nil {
		return fmt.Errorf("update collection strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return conflict("collection strategy", st.ID)
	}
	return nil
}

func (r *StrategyRepository) FindByID(ctx context.Context, tenantID, id string) (model.CollectionStrategy, error) {
	row := r.db.QueryRow(ctx, `SELECT `+strategyColumns+` FROM collection_strategies WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	s, err := scanStrategy(row)
	if err != nil {
		return model.CollectionStrategy{}, notFound(err, "collection strategy", id)
	}
	return s, nil
}

func (r *StrategyRepository) FindByCode(ctx context.Context, tenantID, code string) (model.CollectionStrategy, error) {
	row := r.db.QueryRow(ctx, `SELECT `+strategyColumns+` FROM collection_strategies WHERE tenant_id = $1 AND code = $2`, tenantID, code)
	s, err := scanStrategy(row)
	if err != nil {
		return model.CollectionStrategy{}, notFound(err, "collection strategy", code)
	}
	return s, nil
}

// ListActive returns active strategies in evaluation order.
func (r *StrategyRepository) ListActive(ctx context.Context, tenantID string) ([]model.CollectionStrategy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+strategyColumns+` FROM collection_strategies
		WHERE tenant_id = $1 AND active
		ORDER BY priority, created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query collection strategies: %w", err)
	}
	defer rows.Close()

	var out []model.CollectionStrategy
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection strategy: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type strategyRow struct {
	id, tenantID, code, name, description string
	loanProductID                         string
	trigger                               int
	maxDPD                                *int
	minOutstanding, maxOutstanding        decimal.NullDecimal
	actionType, messageTemplate           string
	priority, repeatInterval, maxRepeats  int
	escalate, requiresApproval, active    bool
	effectiveFrom, effectiveTo            *time.Time
	version                               int
	createdAt, updatedAt                  time.Time
}

func (r strategyRow) state() (model.CollectionStrategyState, error) {
	actionType, err := valueobject.NewActionType(r.actionType)
	if err != nil {
		return model.CollectionStrategyState{}, fmt.Errorf("strategy %s: %w", r.code, err)
	}
	return model.CollectionStrategyState{
		ID:                   r.id,
		TenantID:             r.tenantID,
		Code:                 r.code,
		Name:                 r.name,
		Description:          r.description,
		LoanProductID:        r.loanProductID,
		TriggerDaysPastDue:   r.trigger,
		MaxDaysPastDue:       r.maxDPD,
		MinOutstandingAmount: r.minOutstanding,
		MaxOutstandingAmount: r.maxOutstanding,
		ActionType:           actionType,
		MessageTemplate:      r.messageTemplate,
		Priority:             r.priority,
		RepeatIntervalDays:   r.repeatInterval,
		MaxRepetitions:       r.maxRepeats,
		EscalateOnFailure:    r.escalate,
		RequiresApproval:     r.requiresApproval,
		Active:               r.active,
		EffectiveFrom:        timeOf(r.effectiveFrom),
		EffectiveTo:          timeOf(r.effectiveTo),
		Version:              r.version,
		CreatedAt:            r.createdAt.UTC(),
		UpdatedAt:            r.updatedAt.UTC(),
	}, nil
}

func scanStrategy(s scannable) (model.CollectionStrategy, error) {
	var r strategyRow
	if err := s.Scan(
		&r.id, &r.tenantID, &r.code, &r.name, &r.description, &r.loanProductID, &r.trigger,
		&r.maxDPD, &r.minOutstanding, &r.maxOutstanding, &r.actionType,
		&r.messageTemplate, &r.priority, &r.repeatInterval, &r.maxRepeats, &r.escalate,
		&r.requiresApproval, &r.active, &r.effectiveFrom, &r.effectiveTo, &r.version, &r.createdAt, &r.updatedAt,
	); err != nil {
		return model.CollectionStrategy{}, err
	}
	st, err := r.state()
	if err != nil {
		return model.CollectionStrategy{}, err
	}
	return model.ReconstructCollectionStrategy(st), nil
}

// ExecutionRepository implements port.StrategyExecutionRepository.
type ExecutionRepository struct {
	db pgutil.Querier
}

func NewExecutionRepository(db pgutil.Querier) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Save appends an execution record. Records are never updated.
func (r *ExecutionRepository) Save(ctx context.Context, e model.StrategyExecution) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO strategy_executions (id, tenant_id, case_id, strategy_id, action_id, executed_on, succeeded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID(), e.TenantID(), e.CaseID(), e.StrategyID(), e.ActionID(), e.ExecutedOn(), e.Succeeded(), e.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert strategy execution: %w", err)
	}
	return nil
}

// ListByCase returns a case's execution history, oldest first.
func (r *ExecutionRepository) ListByCase(ctx context.Context, tenantID, caseID string) ([]model.StrategyExecution, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, case_id, strategy_id, action_id, executed_on, succeeded, created_at
		FROM strategy_executions
		WHERE tenant_id = $1 AND case_id = $2
		ORDER BY executed_on, created_at`,
		tenantID, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query strategy executions: %w", err)
	}
	defer rows.Close()

	var out []model.StrategyExecution
	for rows.Next() {
		var (
			id, tenant, caseRef, strategyID, actionID string
			executedOn, createdAt                     time.Time
			succeeded                                 bool
		)
		if err := rows.Scan(&id, &tenant, &caseRef, &strategyID, &actionID, &executedOn, &succeeded, &createdAt); err != nil {
			return nil, fmt.Errorf("scan strategy execution: %w", err)
		}
		out = append(out, model.ReconstructStrategyExecution(
			id, tenant, caseRef, strategyID, actionID, executedOn.UTC(), succeeded, createdAt.UTC(),
		))
	}
	return out, rows.Err()
}
