package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/service"
)

// EvaluateStrategiesUseCase is the scheduler's entry point: it works out
// which strategies should fire for a case today.
type EvaluateStrategiesUseCase struct {
	run     runner
	matcher *service.StrategyMatcher
}

// NewEvaluateStrategiesUseCase wires dependencies.
func NewEvaluateStrategiesUseCase(
	uow port.UnitOfWork,
	matcher *service.StrategyMatcher,
	telemetry *Telemetry,
	logger *slog.Logger,
) *EvaluateStrategiesUseCase {
	return &EvaluateStrategiesUseCase{run: newRunner(uow, nil, telemetry, logger), matcher: matcher}
}

// Execute returns the due strategies for the case, best first. Terminal
// cases get an empty plan.
func (uc *EvaluateStrategiesUseCase) Execute(ctx context.Context, req dto.EvaluateStrategiesRequest) (_ dto.StrategyPlanResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "EvaluateStrategies",
		attribute.String("tenant_id", req.TenantID), attribute.String("case_id", req.CaseID))
	defer func() { end(span, err) }()

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	var (
		c          model.CollectionCase
		strategies []model.CollectionStrategy
		history    []model.StrategyExecution
	)
	// 1. Load the case, the rule set and the case's run history.
	err = uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if c, err = repos.Cases.FindByID(ctx, req.TenantID, req.CaseID); err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		if !c.IsActive() {
			return nil
		}
		if strategies, err = repos.Strategies.ListActive(ctx, req.TenantID); err != nil {
			return fmt.Errorf("list strategies: %w", err)
		}
		if history, err = repos.Executions.ListByCase(ctx, req.TenantID, req.CaseID); err != nil {
			return fmt.Errorf("list executions: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.StrategyPlanResponse{}, err
	}

	// 2. Match, order and filter by repetition rules.
	profile := service.CaseProfile{
		CaseID:        c.ID(),
		DaysPastDue:   c.CurrentDaysPastDue(),
		Outstanding:   c.TotalOutstanding(),
		LoanProductID: req.LoanProductID,
	}
	due := uc.matcher.Evaluate(strategies, history, profile, asOf)

	plan := dto.StrategyPlanResponse{
		CaseID:      c.ID(),
		DaysPastDue: c.CurrentDaysPastDue(),
		AsOf:        model.DateOf(asOf),
		Actions:     make([]dto.PlannedAction, 0, len(due)),
	}
	for _, s := range due {
		plan.Actions = append(plan.Actions, dto.PlannedAction{
			StrategyID:        s.ID(),
			Code:              s.Code(),
			ActionType:        s.ActionType().String(),
			MessageTemplate:   s.MessageTemplate(),
			Priority:          s.Priority(),
			RequiresApproval:  s.RequiresApproval(),
			EscalateOnFailure: s.EscalateOnFailure(),
		})
	}
	return plan, nil
}

// RecordExecutionUseCase appends to a case's strategy run history.
type RecordExecutionUseCase struct {
	run runner
}

// NewRecordExecutionUseCase wires dependencies.
func NewRecordExecutionUseCase(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	telemetry *Telemetry,
	logger *slog.Logger,
) *RecordExecutionUseCase {
	return &RecordExecutionUseCase{run: newRunner(uow, locker, telemetry, logger)}
}

// Execute records that the strategy fired for the case.
func (uc *RecordExecutionUseCase) Execute(ctx context.Context, req dto.RecordExecutionRequest) (_ dto.ExecutionResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "RecordExecution",
		attribute.String("tenant_id", req.TenantID),
		attribute.String("case_id", req.CaseID),
		attribute.String("strategy_id", req.StrategyID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	var e model.StrategyExecution
	err = uc.run.inCase(ctx, req.TenantID, req.CaseID, func(ctx context.Context, repos port.Repositories) error {
		// 1. Both sides of the record must exist.
		if _, err := repos.Cases.FindByID(ctx, req.TenantID, req.CaseID); err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		if _, err := repos.Strategies.FindByID(ctx, req.TenantID, req.StrategyID); err != nil {
			return fmt.Errorf("find strategy: %w", err)
		}

		// 2. Append the run.
		var err error
		e, err = model.NewStrategyExecution(req.TenantID, req.CaseID, req.StrategyID, req.ActionID, req.ExecutedOn, req.Succeeded, now)
		if err != nil {
			return fmt.Errorf("create execution: %w", err)
		}
		if err := repos.Executions.Save(ctx, e); err != nil {
			return fmt.Errorf("save execution: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.ExecutionResponse{}, err
	}
	return toExecutionResponse(e), nil
}
