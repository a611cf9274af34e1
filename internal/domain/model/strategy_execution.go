package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// StrategyExecution records that a strategy fired for a case. The history of
// executions, keyed by (case, strategy), drives repetition limits.
type StrategyExecution struct {
	id         string
	tenantID   string
	caseID     string
	strategyID string
	actionID   string
	executedOn time.Time
	succeeded  bool
	createdAt  time.Time
}

// NewStrategyExecution records one run of strategyID against caseID.
func NewStrategyExecution(tenantID, caseID, strategyID, actionID string, executedOn time.Time, succeeded bool, now time.Time) (StrategyExecution, error) {
	if caseID == "" {
		return StrategyExecution{}, valueobject.NewValidation("case_id", "is required")
	}
	if strategyID == "" {
		return StrategyExecution{}, valueobject.NewValidation("strategy_id", "is required")
	}
	if executedOn.IsZero() {
		executedOn = now
	}
	return StrategyExecution{
		id:         uuid.New().String(),
		tenantID:   tenantID,
		caseID:     caseID,
		strategyID: strategyID,
		actionID:   actionID,
		executedOn: DateOf(executedOn),
		succeeded:  succeeded,
		createdAt:  now,
	}, nil
}

// ReconstructStrategyExecution rebuilds an execution record from persistence.
func ReconstructStrategyExecution(
	id, tenantID, caseID, strategyID, actionID string,
	executedOn time.Time,
	succeeded bool,
	createdAt time.Time,
) StrategyExecution {
	return StrategyExecution{
		id:         id,
		tenantID:   tenantID,
		caseID:     caseID,
		strategyID: strategyID,
		actionID:   actionID,
		executedOn: executedOn,
		succeeded:  succeeded,
		createdAt:  createdAt,
	}
}

func (e StrategyExecution) ID() string            { return e.id }
func (e StrategyExecution) TenantID() string      { return e.tenantID }
func (e StrategyExecution) CaseID() string        { return e.caseID }
func (e StrategyExecution) StrategyID() string    { return e.strategyID }
func (e StrategyExecution) ActionID() string      { return e.actionID }
func (e StrategyExecution) ExecutedOn() time.Time { return e.executedOn }
func (e StrategyExecution) Succeeded() bool       { return e.succeeded }
func (e StrategyExecution) CreatedAt() time.Time  { return e.createdAt }
