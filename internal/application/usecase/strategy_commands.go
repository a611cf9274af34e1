package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// StrategyCommands maintains the tenant's strategy rule set.
type StrategyCommands struct {
	run runner
}

// NewStrategyCommands wires dependencies.
func NewStrategyCommands(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	telemetry *Telemetry,
	logger *slog.Logger,
) *StrategyCommands {
	return &StrategyCommands{run: newRunner(uow, locker, telemetry, logger)}
}

// Create defines a new strategy. Codes are unique per tenant.
func (uc *StrategyCommands) Create(ctx context.Context, req dto.CreateStrategyRequest) (_ dto.StrategyResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "CreateStrategy",
		attribute.String("tenant_id", req.TenantID), attribute.String("code", req.Code))
	defer func() { end(span, err) }()

	now := time.Now().UTC()

	// 1. Build the strategy from the request.
	s, err := buildStrategy(req, now)
	if err != nil {
		return dto.StrategyResponse{}, fmt.Errorf("create strategy: %w", err)
	}

	// 2. Persist it unless the code is taken.
	err = uc.run.inCase(ctx, req.TenantID, "strategy:"+s.Code(), func(ctx context.Context, repos port.Repositories) error {
		_, err := repos.Strategies.FindByCode(ctx, req.TenantID, s.Code())
		switch {
		case err == nil:
			return valueobject.NewValidation("code", fmt.Sprintf("%s is already in use", s.Code()))
		case !errors.Is(err, valueobject.ErrNotFound):
			return fmt.Errorf("find strategy: %w", err)
		}
		if err := repos.Strategies.Save(ctx, s); err != nil {
			return fmt.Errorf("save strategy: %w", err)
		}
		repos.Events.Record(s.DomainEvents()...)
		return nil
	})
	if err != nil {
		return dto.StrategyResponse{}, err
	}
	return toStrategyResponse(s), nil
}

func buildStrategy(req dto.CreateStrategyRequest, now time.Time) (model.CollectionStrategy, error) {
	actionType, err := valueobject.NewActionType(req.ActionType)
	if err != nil {
		return model.CollectionStrategy{}, err
	}
	s, err := model.NewCollectionStrategy(req.TenantID, req.Code, req.Name, req.TriggerDaysPastDue, actionType, req.Priority, now)
	if err != nil {
		return s, err
	}
	if s, err = s.WithMaxDaysPastDue(req.MaxDaysPastDue); err != nil {
		return s, err
	}
	if s, err = s.WithAmountThresholds(nullDecimal(req.MinOutstanding), nullDecimal(req.MaxOutstanding)); err != nil {
		return s, err
	}
	if s, err = s.WithRepetition(req.RepeatIntervalDays, req.MaxRepetitions); err != nil {
		return s, err
	}
	if s, err = s.WithEffectiveDates(req.EffectiveFrom, req.EffectiveTo); err != nil {
		return s, err
	}
	s = s.ForLoanProduct(strings.TrimSpace(req.LoanProductID)).
		WithDescription(req.Description).
		WithMessageTemplate(req.MessageTemplate).
		WithApprovalRequired(req.RequiresApproval)
	if req.EscalateOnFailure != nil {
		s = s.WithEscalation(*req.EscalateOnFailure)
	}
	return s, nil
}

// Update changes a strategy's core fields.
func (uc *StrategyCommands) Update(ctx context.Context, req dto.UpdateStrategyRequest) (dto.StrategyResponse, error) {
	var update model.StrategyUpdate
	update.Name = req.Name
	update.Description = req.Description
	update.TriggerDaysPastDue = req.TriggerDaysPastDue
	update.MaxDaysPastDue = req.MaxDaysPastDue
	update.MessageTemplate = req.MessageTemplate
	update.Priority = req.Priority
	if req.ActionType != nil {
		actionType, err := valueobject.NewActionType(*req.ActionType)
		if err != nil {
			return dto.StrategyResponse{}, err
		}
		update.ActionType = &actionType
	}
	return uc.apply(ctx, "UpdateStrategy", req.TenantID, req.StrategyID,
		func(s model.CollectionStrategy, now time.Time) (model.CollectionStrategy, error) {
			return s.Update(update, now)
		})
}

// SetActive activates or deactivates a strategy.
func (uc *StrategyCommands) SetActive(ctx context.Context, req dto.SetStrategyActiveRequest) (dto.StrategyResponse, error) {
	return uc.apply(ctx, "SetStrategyActive", req.TenantID, req.StrategyID,
		func(s model.CollectionStrategy, now time.Time) (model.CollectionStrategy, error) {
			if req.Active {
				return s.Activate(now), nil
			}
			return s.Deactivate(now), nil
		})
}

func (uc *StrategyCommands) apply(
	ctx context.Context,
	op, tenantID, strategyID string,
	fn func(s model.CollectionStrategy, now time.Time) (model.CollectionStrategy, error),
) (_ dto.StrategyResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, op,
		attribute.String("tenant_id", tenantID), attribute.String("strategy_id", strategyID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	var out model.CollectionStrategy
	err = uc.run.inUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		s, err := repos.Strategies.FindByID(ctx, tenantID, strategyID)
		if err != nil {
			return fmt.Errorf("find strategy: %w", err)
		}
		next, err := fn(s, now)
		if err != nil {
			return fmt.Errorf("change strategy: %w", err)
		}
		if err := repos.Strategies.Save(ctx, next); err != nil {
			return fmt.Errorf("save strategy: %w", err)
		}
		repos.Events.Record(next.DomainEvents()...)
		if out, err = repos.Strategies.FindByID(ctx, tenantID, strategyID); err != nil {
			return fmt.Errorf("reload strategy: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.StrategyResponse{}, err
	}
	return toStrategyResponse(out), nil
}

// Get returns one strategy.
func (uc *StrategyCommands) Get(ctx context.Context, req dto.GetByIDRequest) (dto.StrategyResponse, error) {
	var s model.CollectionStrategy
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if s, err = repos.Strategies.FindByID(ctx, req.TenantID, req.ID); err != nil {
			return fmt.Errorf("find strategy: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.StrategyResponse{}, err
	}
	return toStrategyResponse(s), nil
}

// ListActive returns the tenant's active strategies, best first.
func (uc *StrategyCommands) ListActive(ctx context.Context, tenantID string) ([]dto.StrategyResponse, error) {
	var strategies []model.CollectionStrategy
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if strategies, err = repos.Strategies.ListActive(ctx, tenantID); err != nil {
			return fmt.Errorf("list strategies: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StrategyResponse, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, toStrategyResponse(s))
	}
	return out, nil
}
