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

// LegalCommands drives legal proceedings. Once initiated a legal action runs
// independently of its case.
type LegalCommands struct {
	run    runner
	ledger port.LoanLedgerClient
}

// NewLegalCommands wires dependencies.
func NewLegalCommands(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	ledger port.LoanLedgerClient,
	telemetry *Telemetry,
	logger *slog.Logger,
) *LegalCommands {
	return &LegalCommands{run: newRunner(uow, locker, telemetry, logger), ledger: ledger}
}

// Initiate opens proceedings for an active case and escalates the case to
// LEGAL in the same unit of work unless it is already there.
func (uc *LegalCommands) Initiate(ctx context.Context, req dto.InitiateLegalActionRequest) (_ dto.LegalActionResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "InitiateLegalAction",
		attribute.String("tenant_id", req.TenantID), attribute.String("case_id", req.CaseID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	actionType, err := valueobject.NewLegalActionType(req.ActionType)
	if err != nil {
		return dto.LegalActionResponse{}, err
	}

	var l model.LegalAction
	err = uc.run.inCase(ctx, req.TenantID, req.CaseID, func(ctx context.Context, repos port.Repositories) error {
		// 1. Retrieve the case.
		c, err := repos.Cases.FindByID(ctx, req.TenantID, req.CaseID)
		if err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		if !c.IsActive() {
			return valueobject.NewStateConflict("collection case", "initiate legal action on", c.Status().String())
		}

		// 2. Open the proceedings.
		l, err = model.NewLegalAction(req.TenantID, c.ID(), c.LoanID(), c.MemberID(), actionType, req.ClaimAmount, now)
		if err != nil {
			return fmt.Errorf("create legal action: %w", err)
		}
		if err := repos.LegalActions.Save(ctx, l); err != nil {
			return fmt.Errorf("save legal action: %w", err)
		}
		repos.Events.Record(l.DomainEvents()...)

		// 3. Escalate the case.
		if c.Status() == valueobject.CaseStatusLegal {
			return nil
		}
		c, err = c.EscalateToLegal(req.Reason, now)
		if err != nil {
			return fmt.Errorf("escalate case: %w", err)
		}
		return saveCase(ctx, repos, c)
	})
	if err != nil {
		return dto.LegalActionResponse{}, err
	}
	return toLegalActionResponse(l), nil
}

func (uc *LegalCommands) apply(
	ctx context.Context,
	op, tenantID, legalActionID string,
	fn func(l model.LegalAction, now time.Time) (model.LegalAction, error),
) (_ model.LegalAction, err error) {
	ctx, span := uc.run.telemetry.start(ctx, op,
		attribute.String("tenant_id", tenantID), attribute.String("legal_action_id", legalActionID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	var out model.LegalAction
	err = uc.run.inUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		l, err := repos.LegalActions.FindByID(ctx, tenantID, legalActionID)
		if err != nil {
			return fmt.Errorf("find legal action: %w", err)
		}
		next, err := fn(l, now)
		if err != nil {
			return err
		}
		if err := repos.LegalActions.Save(ctx, next); err != nil {
			return fmt.Errorf("save legal action: %w", err)
		}
		repos.Events.Record(next.DomainEvents()...)
		out = next
		return nil
	})
	return out, err
}

func (uc *LegalCommands) respond(l model.LegalAction, err error) (dto.LegalActionResponse, error) {
	if err != nil {
		return dto.LegalActionResponse{}, err
	}
	return toLegalActionResponse(l), nil
}

// File records the court filing.
func (uc *LegalCommands) File(ctx context.Context, req dto.FileLegalCaseRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "FileLegalCase", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.FileCase(req.FiledDate, req.CaseReference, req.CourtName, req.CourtFees, now)
			if err != nil {
				return l, fmt.Errorf("file case: %w", err)
			}
			return l, nil
		}))
}

// AssignLawyer names the lawyer on the matter.
func (uc *LegalCommands) AssignLawyer(ctx context.Context, req dto.AssignLawyerRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "AssignLawyer", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.AssignLawyer(req.LawyerName, now)
			if err != nil {
				return l, fmt.Errorf("assign lawyer: %w", err)
			}
			return l, nil
		}))
}

// ScheduleHearing sets or moves the next hearing.
func (uc *LegalCommands) ScheduleHearing(ctx context.Context, req dto.ScheduleHearingRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "ScheduleHearing", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.ScheduleHearing(req.HearingDate, now)
			if err != nil {
				return l, fmt.Errorf("schedule hearing: %w", err)
			}
			return l, nil
		}))
}

// RecordJudgment records the court's decision.
func (uc *LegalCommands) RecordJudgment(ctx context.Context, req dto.RecordJudgmentRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "RecordJudgment", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.RecordJudgment(req.JudgmentDate, req.InFavor, nullDecimal(req.JudgmentAmount), req.Summary, now)
			if err != nil {
				return l, fmt.Errorf("record judgment: %w", err)
			}
			return l, nil
		}))
}

// AddCosts adds to the legal costs.
func (uc *LegalCommands) AddCosts(ctx context.Context, req dto.LegalAmountRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "AddLegalCosts", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.AddLegalCosts(req.Amount, req.Text, now)
			if err != nil {
				return l, fmt.Errorf("add legal costs: %w", err)
			}
			return l, nil
		}))
}

// RecordRecovery books money recovered through the proceedings and posts it
// to the ledger once committed.
func (uc *LegalCommands) RecordRecovery(ctx context.Context, req dto.LegalAmountRequest) (dto.LegalActionResponse, error) {
	l, err := uc.apply(ctx, "RecordLegalRecovery", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.RecordRecovery(req.Amount, now)
			if err != nil {
				return l, fmt.Errorf("record legal recovery: %w", err)
			}
			return l, nil
		})
	if err != nil {
		return dto.LegalActionResponse{}, err
	}

	uc.run.telemetry.recordRecovery(ctx, "legal", req.Amount)
	if err := uc.ledger.PostRecovery(ctx, l.TenantID(), l.LoanID(), l.ID(), req.Amount); err != nil {
		uc.run.logger.Warn("post legal recovery to ledger",
			"tenant_id", l.TenantID(), "legal_action_id", l.ID(), "error", err)
	}
	return toLegalActionResponse(l), nil
}

// Settle ends the proceedings with an out-of-court settlement.
func (uc *LegalCommands) Settle(ctx context.Context, req dto.LegalAmountRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "SettleLegalAction", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.Settle(req.Amount, req.Text, now)
			if err != nil {
				return l, fmt.Errorf("settle legal action: %w", err)
			}
			return l, nil
		}))
}

// Close ends the proceedings.
func (uc *LegalCommands) Close(ctx context.Context, req dto.LegalReasonRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "CloseLegalAction", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.Close(req.Reason, now)
			if err != nil {
				return l, fmt.Errorf("close legal action: %w", err)
			}
			return l, nil
		}))
}

// Withdraw abandons the proceedings before judgment.
func (uc *LegalCommands) Withdraw(ctx context.Context, req dto.LegalReasonRequest) (dto.LegalActionResponse, error) {
	return uc.respond(uc.apply(ctx, "WithdrawLegalAction", req.TenantID, req.LegalActionID,
		func(l model.LegalAction, now time.Time) (model.LegalAction, error) {
			l, err := l.Withdraw(req.Reason, now)
			if err != nil {
				return l, fmt.Errorf("withdraw legal action: %w", err)
			}
			return l, nil
		}))
}

// Get returns one legal action.
func (uc *LegalCommands) Get(ctx context.Context, req dto.GetByIDRequest) (dto.LegalActionResponse, error) {
	var l model.LegalAction
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if l, err = repos.LegalActions.FindByID(ctx, req.TenantID, req.ID); err != nil {
			return fmt.Errorf("find legal action: %w", err)
		}
		return nil
	})
	return uc.respond(l, err)
}

// ListByCase returns the case's legal actions, oldest first.
func (uc *LegalCommands) ListByCase(ctx context.Context, req dto.CaseRef) ([]dto.LegalActionResponse, error) {
	var actions []model.LegalAction
	err := uc.run.readUnit(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if actions, err = repos.LegalActions.ListByCase(ctx, req.TenantID, req.CaseID); err != nil {
			return fmt.Errorf("list legal actions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.LegalActionResponse, 0, len(actions))
	for _, l := range actions {
		out = append(out, toLegalActionResponse(l))
	}
	return out, nil
}
