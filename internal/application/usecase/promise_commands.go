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
)

// PromiseCommands drives promises to pay. Promises are owned by their case,
// so every transition runs under the case lock.
type PromiseCommands struct {
	run runner
}

// NewPromiseCommands wires dependencies.
func NewPromiseCommands(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	telemetry *Telemetry,
	logger *slog.Logger,
) *PromiseCommands {
	return &PromiseCommands{run: newRunner(uow, locker, telemetry, logger)}
}

func (uc *PromiseCommands) apply(
	ctx context.Context,
	op, tenantID, caseID, promiseID string,
	fn func(c model.CollectionCase, now time.Time) (model.CollectionCase, error),
) (_ dto.PromiseResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, op,
		attribute.String("tenant_id", tenantID),
		attribute.String("case_id", caseID),
		attribute.String("promise_id", promiseID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	c, err := uc.run.updateCase(ctx, tenantID, caseID, func(c model.CollectionCase) (model.CollectionCase, error) {
		return fn(c, now)
	})
	if err != nil {
		return dto.PromiseResponse{}, err
	}
	p, err := c.Promise(promiseID)
	if err != nil {
		return dto.PromiseResponse{}, fmt.Errorf("find promise: %w", err)
	}
	return toPromiseResponse(p), nil
}

// RecordPayment records money paid against a promise.
func (uc *PromiseCommands) RecordPayment(ctx context.Context, req dto.PromisePaymentRequest) (dto.PromiseResponse, error) {
	return uc.apply(ctx, "RecordPromisePayment", req.TenantID, req.CaseID, req.PromiseID,
		func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
			paidOn := req.PaidOn
			if paidOn.IsZero() {
				paidOn = now
			}
			c, err := c.RecordPromisePayment(req.PromiseID, req.Amount, paidOn, now)
			if err != nil {
				return c, fmt.Errorf("record promise payment: %w", err)
			}
			return c, nil
		})
}

// Break marks a promise as broken.
func (uc *PromiseCommands) Break(ctx context.Context, req dto.PromiseReasonRequest) (dto.PromiseResponse, error) {
	return uc.apply(ctx, "BreakPromise", req.TenantID, req.CaseID, req.PromiseID,
		func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
			c, err := c.BreakPromise(req.PromiseID, req.Reason, now)
			if err != nil {
				return c, fmt.Errorf("break promise: %w", err)
			}
			return c, nil
		})
}

// Reschedule moves a promise to a new payment date.
func (uc *PromiseCommands) Reschedule(ctx context.Context, req dto.ReschedulePromiseRequest) (dto.PromiseResponse, error) {
	return uc.apply(ctx, "ReschedulePromise", req.TenantID, req.CaseID, req.PromiseID,
		func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
			c, err := c.ReschedulePromise(req.PromiseID, req.NewDate, req.Reason, now)
			if err != nil {
				return c, fmt.Errorf("reschedule promise: %w", err)
			}
			return c, nil
		})
}

// Cancel withdraws a promise.
func (uc *PromiseCommands) Cancel(ctx context.Context, req dto.PromiseReasonRequest) (dto.PromiseResponse, error) {
	return uc.apply(ctx, "CancelPromise", req.TenantID, req.CaseID, req.PromiseID,
		func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
			c, err := c.CancelPromise(req.PromiseID, req.Reason, now)
			if err != nil {
				return c, fmt.Errorf("cancel promise: %w", err)
			}
			return c, nil
		})
}

// BreakOverdue breaks every awaiting promise on the case whose payment date
// is more than GraceDays behind AsOf. It is the scheduler's daily sweep and
// returns the promises it broke.
func (uc *PromiseCommands) BreakOverdue(ctx context.Context, req dto.BreakOverduePromisesRequest) (_ []dto.PromiseResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "BreakOverduePromises",
		attribute.String("tenant_id", req.TenantID), attribute.String("case_id", req.CaseID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = now
	}
	cutoff := asOf.AddDate(0, 0, -req.GraceDays)

	var broken []string
	c, err := uc.run.updateCase(ctx, req.TenantID, req.CaseID, func(c model.CollectionCase) (model.CollectionCase, error) {
		if !c.IsActive() {
			return c, nil
		}
		for _, p := range c.OverduePromises(cutoff) {
			next, err := c.BreakPromise(p.ID(), fmt.Sprintf("No payment by %s", p.PaymentDate().Format(time.DateOnly)), now)
			if err != nil {
				return c, fmt.Errorf("break promise %s: %w", p.ID(), err)
			}
			c = next
			broken = append(broken, p.ID())
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.PromiseResponse, 0, len(broken))
	for _, id := range broken {
		p, err := c.Promise(id)
		if err != nil {
			return nil, fmt.Errorf("find promise: %w", err)
		}
		out = append(out, toPromiseResponse(p))
	}
	if len(out) > 0 {
		uc.run.logger.Info("overdue promises broken", "tenant_id", req.TenantID, "case_id", req.CaseID, "count", len(out))
	}
	return out, nil
}
