package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// ApplyLedgerEventUseCase keeps cases in step with the loan ledger feed.
type ApplyLedgerEventUseCase struct {
	run runner
}

// NewApplyLedgerEventUseCase wires dependencies.
func NewApplyLedgerEventUseCase(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	telemetry *Telemetry,
	logger *slog.Logger,
) *ApplyLedgerEventUseCase {
	return &ApplyLedgerEventUseCase{run: newRunner(uow, locker, telemetry, logger)}
}

func (uc *ApplyLedgerEventUseCase) activeCase(ctx context.Context, tenantID, loanID string) (model.CollectionCase, bool, error) {
	var (
		c     model.CollectionCase
		found bool
	)
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		c, err = repos.Cases.FindActiveByLoanID(ctx, tenantID, loanID)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, valueobject.ErrNotFound):
		default:
			return fmt.Errorf("find active case: %w", err)
		}
		return nil
	})
	return c, found, err
}

// HandleArrears refreshes the loan's active case, or opens one when the loan
// is in arrears and has none.
func (uc *ApplyLedgerEventUseCase) HandleArrears(ctx context.Context, n dto.LoanArrearsNotice) (err error) {
	ctx, span := uc.run.telemetry.start(ctx, "HandleArrears",
		attribute.String("tenant_id", n.TenantID), attribute.String("loan_id", n.LoanID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	c, found, err := uc.activeCase(ctx, n.TenantID, n.LoanID)
	if err != nil {
		return err
	}

	if found {
		_, err = uc.run.updateCase(ctx, n.TenantID, c.ID(), func(c model.CollectionCase) (model.CollectionCase, error) {
			c, err := c.UpdateArrears(n.DaysPastDue, n.AmountOverdue, n.TotalOutstanding, now)
			if err != nil {
				return c, fmt.Errorf("update arrears: %w", err)
			}
			return c, nil
		})
		return err
	}

	if n.DaysPastDue == 0 {
		return nil
	}
	var opened model.CollectionCase
	err = uc.run.inCase(ctx, n.TenantID, "loan:"+n.LoanID, func(ctx context.Context, repos port.Repositories) error {
		var err error
		opened, err = openCase(ctx, repos, dto.OpenCaseRequest{
			TenantID:         n.TenantID,
			LoanID:           n.LoanID,
			MemberID:         n.MemberID,
			DaysPastDue:      n.DaysPastDue,
			AmountOverdue:    n.AmountOverdue,
			TotalOutstanding: n.TotalOutstanding,
		}, now)
		return err
	})
	if err != nil {
		return err
	}
	uc.run.logger.Info("collection case opened from ledger feed",
		"tenant_id", n.TenantID, "case_id", opened.ID(), "loan_id", n.LoanID)
	return nil
}

// HandlePayment books a repayment as a recovery on the loan's active case.
// Payments on loans without an active case are ignored. A payment id that was
// already applied is skipped, so redelivered messages do not count twice.
func (uc *ApplyLedgerEventUseCase) HandlePayment(ctx context.Context, n dto.LoanPaymentNotice) (err error) {
	ctx, span := uc.run.telemetry.start(ctx, "HandlePayment",
		attribute.String("tenant_id", n.TenantID), attribute.String("loan_id", n.LoanID),
		attribute.String("payment_id", n.PaymentID))
	defer func() { end(span, err) }()

	if n.PaymentID == "" {
		return valueobject.NewValidation("payment_id", "is required")
	}

	now := time.Now().UTC()
	c, found, err := uc.activeCase(ctx, n.TenantID, n.LoanID)
	if err != nil {
		return err
	}
	if !found {
		uc.run.logger.Debug("payment for loan without active case", "tenant_id", n.TenantID, "loan_id", n.LoanID)
		return nil
	}

	applied := false
	err = uc.run.inCase(ctx, n.TenantID, c.ID(), func(ctx context.Context, repos port.Repositories) error {
		fresh, err := repos.Processed.MarkProcessed(ctx, n.TenantID, n.PaymentID, now)
		if err != nil {
			return fmt.Errorf("mark payment processed: %w", err)
		}
		if !fresh {
			return nil
		}
		current, err := repos.Cases.FindByID(ctx, n.TenantID, c.ID())
		if err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		next, err := current.RecordRecovery(n.Amount, now)
		if err != nil {
			return fmt.Errorf("record recovery: %w", err)
		}
		if err := saveCase(ctx, repos, next); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		uc.run.logger.Info("duplicate ledger payment skipped",
			"tenant_id", n.TenantID, "loan_id", n.LoanID, "payment_id", n.PaymentID)
		return nil
	}
	uc.run.telemetry.recordRecovery(ctx, "case", n.Amount)
	return nil
}
