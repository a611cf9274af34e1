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

// SettlementCommands drives the debt settlement workflow.
type SettlementCommands struct {
	run    runner
	ledger port.LoanLedgerClient
}

// NewSettlementCommands wires dependencies.
func NewSettlementCommands(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	ledger port.LoanLedgerClient,
	telemetry *Telemetry,
	logger *slog.Logger,
) *SettlementCommands {
	return &SettlementCommands{run: newRunner(uow, locker, telemetry, logger), ledger: ledger}
}

// Propose opens a settlement against an active case. The original
// outstanding is the case's current total outstanding.
func (uc *SettlementCommands) Propose(ctx context.Context, req dto.ProposeSettlementRequest) (_ dto.SettlementResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "ProposeSettlement",
		attribute.String("tenant_id", req.TenantID), attribute.String("case_id", req.CaseID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	settlementType, err := valueobject.NewSettlementType(req.SettlementType)
	if err != nil {
		return dto.SettlementResponse{}, err
	}

	var s model.DebtSettlement
	err = uc.run.inCase(ctx, req.TenantID, req.CaseID, func(ctx context.Context, repos port.Repositories) error {
		// 1. Retrieve the case.
		c, err := repos.Cases.FindByID(ctx, req.TenantID, req.CaseID)
		if err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		if !c.IsActive() {
			return valueobject.NewStateConflict("collection case", "propose settlement on", c.Status().String())
		}

		// 2. Create the proposal against the case's outstanding balance.
		s, err = model.NewDebtSettlement(settlementType, model.SettlementProposal{
			TenantID:            req.TenantID,
			ReferenceNumber:     req.ReferenceNumber,
			CaseID:              c.ID(),
			LoanID:              c.LoanID(),
			MemberID:            c.MemberID(),
			OriginalOutstanding: c.TotalOutstanding(),
			SettlementAmount:    req.SettlementAmount,
			DueDate:             req.DueDate,
			Terms:               req.Terms,
			ProposedBy:          req.ProposedBy,
		}, req.NumberOfInstallments, now)
		if err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}

		// 3. Persist it.
		if err := repos.Settlements.Save(ctx, s); err != nil {
			return fmt.Errorf("save settlement: %w", err)
		}
		repos.Events.Record(s.DomainEvents()...)
		return nil
	})
	if err != nil {
		return dto.SettlementResponse{}, err
	}
	return toSettlementResponse(s), nil
}

func (uc *SettlementCommands) apply(
	ctx context.Context,
	op, tenantID, settlementID string,
	fn func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error),
) (_ dto.SettlementResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, op,
		attribute.String("tenant_id", tenantID), attribute.String("settlement_id", settlementID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	var out model.DebtSettlement
	err = uc.run.inUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		s, err := repos.Settlements.FindByID(ctx, tenantID, settlementID)
		if err != nil {
			return fmt.Errorf("find settlement: %w", err)
		}
		next, err := fn(s, now)
		if err != nil {
			return err
		}
		if err := repos.Settlements.Save(ctx, next); err != nil {
			return fmt.Errorf("save settlement: %w", err)
		}
		repos.Events.Record(next.DomainEvents()...)
		out = next
		return nil
	})
	if err != nil {
		return dto.SettlementResponse{}, err
	}
	return toSettlementResponse(out), nil
}

// Submit sends a proposal for approval.
func (uc *SettlementCommands) Submit(ctx context.Context, req dto.SettlementDecisionRequest) (dto.SettlementResponse, error) {
	return uc.apply(ctx, "SubmitSettlement", req.TenantID, req.SettlementID,
		func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error) {
			s, err := s.SubmitForApproval(req.Reason, now)
			if err != nil {
				return s, fmt.Errorf("submit settlement: %w", err)
			}
			return s, nil
		})
}

// Approve approves a submitted settlement.
func (uc *SettlementCommands) Approve(ctx context.Context, req dto.SettlementDecisionRequest) (dto.SettlementResponse, error) {
	return uc.apply(ctx, "ApproveSettlement", req.TenantID, req.SettlementID,
		func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error) {
			s, err := s.Approve(req.Actor, now)
			if err != nil {
				return s, fmt.Errorf("approve settlement: %w", err)
			}
			return s, nil
		})
}

// Reject turns down a submitted settlement.
func (uc *SettlementCommands) Reject(ctx context.Context, req dto.SettlementDecisionRequest) (dto.SettlementResponse, error) {
	return uc.apply(ctx, "RejectSettlement", req.TenantID, req.SettlementID,
		func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error) {
			s, err := s.Reject(req.Reason, now)
			if err != nil {
				return s, fmt.Errorf("reject settlement: %w", err)
			}
			return s, nil
		})
}

// Accept records the borrower's acceptance of an approved settlement.
func (uc *SettlementCommands) Accept(ctx context.Context, req dto.SettlementDecisionRequest) (dto.SettlementResponse, error) {
	return uc.apply(ctx, "AcceptSettlement", req.TenantID, req.SettlementID,
		func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error) {
			s, err := s.RecordAcceptance(now)
			if err != nil {
				return s, fmt.Errorf("accept settlement: %w", err)
			}
			return s, nil
		})
}

// Default marks an accepted settlement as defaulted.
func (uc *SettlementCommands) Default(ctx context.Context, req dto.SettlementDecisionRequest) (dto.SettlementResponse, error) {
	return uc.apply(ctx, "DefaultSettlement", req.TenantID, req.SettlementID,
		func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error) {
			s, err := s.MarkAsDefaulted(req.Reason, now)
			if err != nil {
				return s, fmt.Errorf("default settlement: %w", err)
			}
			return s, nil
		})
}

// Cancel withdraws a settlement that has not been paid.
func (uc *SettlementCommands) Cancel(ctx context.Context, req dto.SettlementDecisionRequest) (dto.SettlementResponse, error) {
	return uc.apply(ctx, "CancelSettlement", req.TenantID, req.SettlementID,
		func(s model.DebtSettlement, now time.Time) (model.DebtSettlement, error) {
			s, err := s.Cancel(req.Reason, now)
			if err != nil {
				return s, fmt.Errorf("cancel settlement: %w", err)
			}
			return s, nil
		})
}

// RecordPayment applies a payment to an accepted settlement. When the
// payment completes the settlement, its case is settled in the same unit of
// work if it is still active. The payment is posted to the ledger once
// committed.
func (uc *SettlementCommands) RecordPayment(ctx context.Context, req dto.SettlementPaymentRequest) (_ dto.SettlementResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "RecordSettlementPayment",
		attribute.String("tenant_id", req.TenantID), attribute.String("settlement_id", req.SettlementID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()

	// 1. Find the owning case so its lock can be taken.
	caseID, err := uc.caseOf(ctx, req.TenantID, req.SettlementID)
	if err != nil {
		return dto.SettlementResponse{}, err
	}

	var out model.DebtSettlement
	err = uc.run.inCase(ctx, req.TenantID, caseID, func(ctx context.Context, repos port.Repositories) error {
		// 2. Apply the payment.
		s, err := repos.Settlements.FindByID(ctx, req.TenantID, req.SettlementID)
		if err != nil {
			return fmt.Errorf("find settlement: %w", err)
		}
		s, err = s.RecordPayment(req.Amount, now)
		if err != nil {
			return fmt.Errorf("record settlement payment: %w", err)
		}
		if err := repos.Settlements.Save(ctx, s); err != nil {
			return fmt.Errorf("save settlement: %w", err)
		}
		repos.Events.Record(s.DomainEvents()...)
		out = s

		// 3. Close the case once the settlement is paid off.
		if !s.IsCompleted() {
			return nil
		}
		c, err := repos.Cases.FindByID(ctx, req.TenantID, caseID)
		if err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		if !c.IsActive() {
			return nil
		}
		c, err = c.Settle(s.AmountPaid(), s.Terms(), now)
		if err != nil {
			return fmt.Errorf("settle case: %w", err)
		}
		return saveCase(ctx, repos, c)
	})
	if err != nil {
		return dto.SettlementResponse{}, err
	}

	// 4. Tell the ledger.
	uc.run.telemetry.recordRecovery(ctx, "settlement", req.Amount)
	if err := uc.ledger.PostRecovery(ctx, out.TenantID(), out.LoanID(), out.ReferenceNumber(), req.Amount); err != nil {
		uc.run.logger.Warn("post settlement recovery to ledger",
			"tenant_id", out.TenantID(), "settlement_id", out.ID(), "error", err)
	}
	return toSettlementResponse(out), nil
}

func (uc *SettlementCommands) caseOf(ctx context.Context, tenantID, settlementID string) (string, error) {
	var caseID string
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		s, err := repos.Settlements.FindByID(ctx, tenantID, settlementID)
		if err != nil {
			return fmt.Errorf("find settlement: %w", err)
		}
		caseID = s.CaseID()
		return nil
	})
	return caseID, err
}

// Get returns one settlement.
func (uc *SettlementCommands) Get(ctx context.Context, req dto.GetByIDRequest) (dto.SettlementResponse, error) {
	var s model.DebtSettlement
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if s, err = repos.Settlements.FindByID(ctx, req.TenantID, req.ID); err != nil {
			return fmt.Errorf("find settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.SettlementResponse{}, err
	}
	return toSettlementResponse(s), nil
}

// ListByCase returns the case's settlements, oldest first.
func (uc *SettlementCommands) ListByCase(ctx context.Context, req dto.CaseRef) ([]dto.SettlementResponse, error) {
	var settlements []model.DebtSettlement
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if settlements, err = repos.Settlements.ListByCase(ctx, req.TenantID, req.CaseID); err != nil {
			return fmt.Errorf("list settlements: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.SettlementResponse, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, toSettlementResponse(s))
	}
	return out, nil
}
