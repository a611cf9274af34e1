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

// CaseCommands drives the collection case state machine. Each method is one
// transition run under the case lock in its own unit of work.
type CaseCommands struct {
	run    runner
	ledger port.LoanLedgerClient
}

// NewCaseCommands wires dependencies.
func NewCaseCommands(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	ledger port.LoanLedgerClient,
	telemetry *Telemetry,
	logger *slog.Logger,
) *CaseCommands {
	return &CaseCommands{run: newRunner(uow, locker, telemetry, logger), ledger: ledger}
}

func (uc *CaseCommands) apply(
	ctx context.Context,
	op, tenantID, caseID string,
	fn func(c model.CollectionCase, now time.Time) (model.CollectionCase, error),
) (_ dto.CaseResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, op,
		attribute.String("tenant_id", tenantID), attribute.String("case_id", caseID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	c, err := uc.run.updateCase(ctx, tenantID, caseID, func(c model.CollectionCase) (model.CollectionCase, error) {
		return fn(c, now)
	})
	if err != nil {
		return dto.CaseResponse{}, err
	}
	return toCaseResponse(c, false), nil
}

// Assign hands the case to a collector.
func (uc *CaseCommands) Assign(ctx context.Context, req dto.AssignCaseRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "AssignCase", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.Assign(req.CollectorID, req.NextFollowUpDate, now)
		if err != nil {
			return c, fmt.Errorf("assign case: %w", err)
		}
		return c, nil
	})
}

// RecordContact logs a successful contact with the borrower.
func (uc *CaseCommands) RecordContact(ctx context.Context, req dto.RecordContactRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "RecordContact", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		contact := req.ContactDate
		if contact.IsZero() {
			contact = now
		}
		c, err := c.RecordContact(contact, req.NextFollowUpDate, now)
		if err != nil {
			return c, fmt.Errorf("record contact: %w", err)
		}
		return c, nil
	})
}

// AddActionNote appends a note to one of the case's actions.
func (uc *CaseCommands) AddActionNote(ctx context.Context, req dto.AddActionNoteRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "AddActionNote", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.AddActionNote(req.ActionID, req.Note, now)
		if err != nil {
			return c, fmt.Errorf("add action note: %w", err)
		}
		return c, nil
	})
}

// RecordRecovery books money recovered against the case.
func (uc *CaseCommands) RecordRecovery(ctx context.Context, req dto.CaseAmountRequest) (dto.CaseResponse, error) {
	resp, err := uc.apply(ctx, "RecordRecovery", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.RecordRecovery(req.Amount, now)
		if err != nil {
			return c, fmt.Errorf("record recovery: %w", err)
		}
		return c, nil
	})
	if err != nil {
		return dto.CaseResponse{}, err
	}
	uc.run.telemetry.recordRecovery(ctx, "case", req.Amount)
	return resp, nil
}

// EscalateToLegal hands the case to legal.
func (uc *CaseCommands) EscalateToLegal(ctx context.Context, req dto.CaseReasonRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "EscalateToLegal", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.EscalateToLegal(req.Reason, now)
		if err != nil {
			return c, fmt.Errorf("escalate case: %w", err)
		}
		return c, nil
	})
}

// Settle closes the case as settled.
func (uc *CaseCommands) Settle(ctx context.Context, req dto.SettleCaseRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "SettleCase", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.Settle(req.Amount, req.Terms, now)
		if err != nil {
			return c, fmt.Errorf("settle case: %w", err)
		}
		return c, nil
	})
}

// Close closes the case with a reason.
func (uc *CaseCommands) Close(ctx context.Context, req dto.CaseReasonRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "CloseCase", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.Close(req.Reason, now)
		if err != nil {
			return c, fmt.Errorf("close case: %w", err)
		}
		return c, nil
	})
}

// AddNote appends a free-text note to the case.
func (uc *CaseCommands) AddNote(ctx context.Context, req dto.CaseReasonRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "AddCaseNote", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.AddNote(req.Reason, now)
		if err != nil {
			return c, fmt.Errorf("add note: %w", err)
		}
		return c, nil
	})
}

// UpdateArrears refreshes the arrears figures and re-derives priority and
// classification.
func (uc *CaseCommands) UpdateArrears(ctx context.Context, req dto.UpdateArrearsRequest) (dto.CaseResponse, error) {
	return uc.apply(ctx, "UpdateArrears", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		c, err := c.UpdateArrears(req.DaysPastDue, req.AmountOverdue, req.TotalOutstanding, now)
		if err != nil {
			return c, fmt.Errorf("update arrears: %w", err)
		}
		return c, nil
	})
}

// RefreshArrears pulls the loan's current arrears from the ledger and applies
// them to the case.
func (uc *CaseCommands) RefreshArrears(ctx context.Context, req dto.CaseRef) (dto.CaseResponse, error) {
	return uc.apply(ctx, "RefreshArrears", req.TenantID, req.CaseID, func(c model.CollectionCase, now time.Time) (model.CollectionCase, error) {
		arrears, err := uc.ledger.GetArrears(ctx, c.TenantID(), c.LoanID())
		if err != nil {
			return c, fmt.Errorf("get arrears: %w", err)
		}
		c, err = c.UpdateArrears(arrears.DaysPastDue, arrears.AmountOverdue, arrears.TotalOutstanding, now)
		if err != nil {
			return c, fmt.Errorf("update arrears: %w", err)
		}
		return c, nil
	})
}
