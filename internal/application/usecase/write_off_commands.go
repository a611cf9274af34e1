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
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// WriteOffCommands drives loan write-offs.
type WriteOffCommands struct {
	run    runner
	ledger port.LoanLedgerClient
}

// NewWriteOffCommands wires dependencies.
func NewWriteOffCommands(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	ledger port.LoanLedgerClient,
	telemetry *Telemetry,
	logger *slog.Logger,
) *WriteOffCommands {
	return &WriteOffCommands{run: newRunner(uow, locker, telemetry, logger), ledger: ledger}
}

// lockKey serialises write-off work on the case when there is one,
// otherwise on the loan.
func lockKey(caseID, loanID string) string {
	if caseID != "" {
		return caseID
	}
	return "loan:" + loanID
}

// Request drafts a write-off. When it references a case, zero snapshot
// figures are filled in from the case.
func (uc *WriteOffCommands) Request(ctx context.Context, req dto.RequestWriteOffRequest) (_ dto.WriteOffResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "RequestWriteOff",
		attribute.String("tenant_id", req.TenantID), attribute.String("loan_id", req.LoanID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	writeOffType, err := valueobject.NewWriteOffType(req.WriteOffType)
	if err != nil {
		return dto.WriteOffResponse{}, err
	}
	draft := model.WriteOffRequest{
		TenantID:           req.TenantID,
		LoanID:             req.LoanID,
		CaseID:             req.CaseID,
		WriteOffNumber:     req.WriteOffNumber,
		WriteOffType:       writeOffType,
		Reason:             req.Reason,
		Principal:          req.Principal,
		Interest:           req.Interest,
		Penalties:          req.Penalties,
		Fees:               req.Fees,
		DaysPastDue:        req.DaysPastDue,
		CollectionAttempts: req.CollectionAttempts,
	}

	var w model.LoanWriteOff
	err = uc.run.inCase(ctx, req.TenantID, lockKey(req.CaseID, req.LoanID), func(ctx context.Context, repos port.Repositories) error {
		// 1. Snapshot the case's arrears and collection effort.
		if req.CaseID != "" {
			c, err := repos.Cases.FindByID(ctx, req.TenantID, req.CaseID)
			if err != nil {
				return fmt.Errorf("find case: %w", err)
			}
			if c.LoanID() != req.LoanID {
				return valueobject.NewValidation("case_id", "belongs to another loan")
			}
			if draft.DaysPastDue == 0 {
				draft.DaysPastDue = c.CurrentDaysPastDue()
			}
			if draft.CollectionAttempts == 0 {
				draft.CollectionAttempts = c.ContactAttempts()
			}
		}

		// 2. Draft and persist.
		var err error
		w, err = model.NewLoanWriteOff(draft, now)
		if err != nil {
			return fmt.Errorf("create write-off: %w", err)
		}
		if err := repos.WriteOffs.Save(ctx, w); err != nil {
			return fmt.Errorf("save write-off: %w", err)
		}
		repos.Events.Record(w.DomainEvents()...)
		return nil
	})
	if err != nil {
		return dto.WriteOffResponse{}, err
	}
	return toWriteOffResponse(w), nil
}

func (uc *WriteOffCommands) apply(
	ctx context.Context,
	op, tenantID, writeOffID string,
	fn func(ctx context.Context, repos port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error),
) (_ model.LoanWriteOff, err error) {
	ctx, span := uc.run.telemetry.start(ctx, op,
		attribute.String("tenant_id", tenantID), attribute.String("write_off_id", writeOffID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()

	// The lock key depends on the stored write-off.
	var key string
	err = uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		w, err := repos.WriteOffs.FindByID(ctx, tenantID, writeOffID)
		if err != nil {
			return fmt.Errorf("find write-off: %w", err)
		}
		key = lockKey(w.CaseID(), w.LoanID())
		return nil
	})
	if err != nil {
		return model.LoanWriteOff{}, err
	}

	var out model.LoanWriteOff
	err = uc.run.inCase(ctx, tenantID, key, func(ctx context.Context, repos port.Repositories) error {
		w, err := repos.WriteOffs.FindByID(ctx, tenantID, writeOffID)
		if err != nil {
			return fmt.Errorf("find write-off: %w", err)
		}
		next, err := fn(ctx, repos, w, now)
		if err != nil {
			return err
		}
		if err := repos.WriteOffs.Save(ctx, next); err != nil {
			return fmt.Errorf("save write-off: %w", err)
		}
		repos.Events.Record(next.DomainEvents()...)
		out = next
		return nil
	})
	return out, err
}

func (uc *WriteOffCommands) respond(w model.LoanWriteOff, err error) (dto.WriteOffResponse, error) {
	if err != nil {
		return dto.WriteOffResponse{}, err
	}
	return toWriteOffResponse(w), nil
}

// Submit sends a draft for approval.
func (uc *WriteOffCommands) Submit(ctx context.Context, req dto.WriteOffDecisionRequest) (dto.WriteOffResponse, error) {
	return uc.respond(uc.apply(ctx, "SubmitWriteOff", req.TenantID, req.WriteOffID,
		func(_ context.Context, _ port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error) {
			w, err := w.SubmitForApproval(now)
			if err != nil {
				return w, fmt.Errorf("submit write-off: %w", err)
			}
			return w, nil
		}))
}

// Approve approves a pending write-off and fixes its write-off date.
func (uc *WriteOffCommands) Approve(ctx context.Context, req dto.WriteOffDecisionRequest) (dto.WriteOffResponse, error) {
	return uc.respond(uc.apply(ctx, "ApproveWriteOff", req.TenantID, req.WriteOffID,
		func(_ context.Context, _ port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error) {
			w, err := w.Approve(req.ActorID, req.ActorName, req.WriteOffDate, now)
			if err != nil {
				return w, fmt.Errorf("approve write-off: %w", err)
			}
			return w, nil
		}))
}

// Reject turns down a pending write-off.
func (uc *WriteOffCommands) Reject(ctx context.Context, req dto.WriteOffDecisionRequest) (dto.WriteOffResponse, error) {
	return uc.respond(uc.apply(ctx, "RejectWriteOff", req.TenantID, req.WriteOffID,
		func(_ context.Context, _ port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error) {
			w, err := w.Reject(req.ActorID, req.Reason, now)
			if err != nil {
				return w, fmt.Errorf("reject write-off: %w", err)
			}
			return w, nil
		}))
}

// Cancel abandons a write-off that has not been processed.
func (uc *WriteOffCommands) Cancel(ctx context.Context, req dto.WriteOffDecisionRequest) (dto.WriteOffResponse, error) {
	return uc.respond(uc.apply(ctx, "CancelWriteOff", req.TenantID, req.WriteOffID,
		func(_ context.Context, _ port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error) {
			w, err := w.Cancel(req.Reason, now)
			if err != nil {
				return w, fmt.Errorf("cancel write-off: %w", err)
			}
			return w, nil
		}))
}

// Process books an approved write-off. A referenced case still being worked
// is closed as WRITTEN_OFF in the same unit of work. The ledger is notified
// once committed.
func (uc *WriteOffCommands) Process(ctx context.Context, req dto.WriteOffDecisionRequest) (dto.WriteOffResponse, error) {
	w, err := uc.apply(ctx, "ProcessWriteOff", req.TenantID, req.WriteOffID,
		func(ctx context.Context, repos port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error) {
			w, err := w.Process(now)
			if err != nil {
				return w, fmt.Errorf("process write-off: %w", err)
			}
			if w.CaseID() == "" {
				return w, nil
			}
			c, err := repos.Cases.FindByID(ctx, req.TenantID, w.CaseID())
			if err != nil {
				return w, fmt.Errorf("find case: %w", err)
			}
			if !c.IsActive() {
				return w, nil
			}
			c, err = c.MarkWrittenOff(w.WriteOffNumber(), now)
			if err != nil {
				return w, fmt.Errorf("mark case written off: %w", err)
			}
			return w, saveCase(ctx, repos, c)
		})
	if err != nil {
		return dto.WriteOffResponse{}, err
	}

	if err := uc.ledger.NotifyWriteOff(ctx, w.TenantID(), w.LoanID(), w.ID(), w.TotalWriteOff()); err != nil {
		uc.run.logger.Warn("notify ledger of write-off",
			"tenant_id", w.TenantID(), "write_off_id", w.ID(), "error", err)
	}
	uc.run.logger.Info("loan written off",
		"tenant_id", w.TenantID(), "loan_id", w.LoanID(), "write_off_id", w.ID(), "total", w.TotalWriteOff().StringFixed(2))
	return toWriteOffResponse(w), nil
}

// RecordRecovery books money recovered after the write-off and posts it to
// the ledger once committed.
func (uc *WriteOffCommands) RecordRecovery(ctx context.Context, req dto.WriteOffRecoveryRequest) (dto.WriteOffResponse, error) {
	w, err := uc.apply(ctx, "RecordWriteOffRecovery", req.TenantID, req.WriteOffID,
		func(_ context.Context, _ port.Repositories, w model.LoanWriteOff, now time.Time) (model.LoanWriteOff, error) {
			w, err := w.RecordRecovery(req.Amount, now)
			if err != nil {
				return w, fmt.Errorf("record write-off recovery: %w", err)
			}
			return w, nil
		})
	if err != nil {
		return dto.WriteOffResponse{}, err
	}

	uc.run.telemetry.recordRecovery(ctx, "write_off", req.Amount)
	if err := uc.ledger.PostRecovery(ctx, w.TenantID(), w.LoanID(), w.WriteOffNumber(), req.Amount); err != nil {
		uc.run.logger.Warn("post write-off recovery to ledger",
			"tenant_id", w.TenantID(), "write_off_id", w.ID(), "error", err)
	}
	return toWriteOffResponse(w), nil
}

// Get returns one write-off.
func (uc *WriteOffCommands) Get(ctx context.Context, req dto.GetByIDRequest) (dto.WriteOffResponse, error) {
	var w model.LoanWriteOff
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if w, err = repos.WriteOffs.FindByID(ctx, req.TenantID, req.ID); err != nil {
			return fmt.Errorf("find write-off: %w", err)
		}
		return nil
	})
	return uc.respond(w, err)
}

// ListByLoan returns the loan's write-offs, oldest first.
func (uc *WriteOffCommands) ListByLoan(ctx context.Context, tenantID, loanID string) ([]dto.WriteOffResponse, error) {
	var writeOffs []model.LoanWriteOff
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if writeOffs, err = repos.WriteOffs.ListByLoan(ctx, tenantID, loanID); err != nil {
			return fmt.Errorf("list write-offs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.WriteOffResponse, 0, len(writeOffs))
	for _, w := range writeOffs {
		out = append(out, toWriteOffResponse(w))
	}
	return out, nil
}
