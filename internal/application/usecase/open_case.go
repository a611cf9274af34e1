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

// OpenCaseUseCase opens a collection case for a delinquent loan.
type OpenCaseUseCase struct {
	run runner
}

// NewOpenCaseUseCase wires dependencies.
func NewOpenCaseUseCase(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	telemetry *Telemetry,
	logger *slog.Logger,
) *OpenCaseUseCase {
	return &OpenCaseUseCase{run: newRunner(uow, locker, telemetry, logger)}
}

// Execute opens the case. A loan has at most one active case; opening a
// second one is an invariant violation.
func (uc *OpenCaseUseCase) Execute(ctx context.Context, req dto.OpenCaseRequest) (_ dto.CaseResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "OpenCase",
		attribute.String("tenant_id", req.TenantID), attribute.String("loan_id", req.LoanID))
	defer func() { end(span, err) }()

	now := time.Now().UTC()
	var opened model.CollectionCase

	// Opens for the same loan are serialised on the loan id.
	err = uc.run.inCase(ctx, req.TenantID, "loan:"+req.LoanID, func(ctx context.Context, repos port.Repositories) error {
		c, err := openCase(ctx, repos, req, now)
		if err != nil {
			return err
		}
		opened = c
		return nil
	})
	if err != nil {
		return dto.CaseResponse{}, err
	}

	uc.run.logger.Info("collection case opened",
		"tenant_id", opened.TenantID(), "case_id", opened.ID(), "loan_id", opened.LoanID(),
		"classification", opened.Classification().String())
	return toCaseResponse(opened, false), nil
}

// openCase is shared with the ledger feed, which opens cases from arrears
// notices inside its own unit of work.
func openCase(ctx context.Context, repos port.Repositories, req dto.OpenCaseRequest, now time.Time) (model.CollectionCase, error) {
	// 1. Enforce one active case per loan.
	existing, err := repos.Cases.FindActiveByLoanID(ctx, req.TenantID, req.LoanID)
	switch {
	case err == nil:
		return model.CollectionCase{}, valueobject.NewInvariantViolation("collection case",
			fmt.Sprintf("loan %s already has active case %s", req.LoanID, existing.CaseNumber()))
	case !errors.Is(err, valueobject.ErrNotFound):
		return model.CollectionCase{}, fmt.Errorf("find active case: %w", err)
	}

	// 2. Allocate a case number unless the caller supplied one.
	number := req.CaseNumber
	if number == "" {
		number, err = repos.Cases.NextCaseNumber(ctx, req.TenantID, now)
		if err != nil {
			return model.CollectionCase{}, fmt.Errorf("allocate case number: %w", err)
		}
	}

	// 3. Create and persist the case.
	c, err := model.NewCollectionCase(
		req.TenantID, number, req.LoanID, req.MemberID,
		req.DaysPastDue, req.AmountOverdue, req.TotalOutstanding, now,
	)
	if err != nil {
		return model.CollectionCase{}, fmt.Errorf("create case: %w", err)
	}
	if err := saveCase(ctx, repos, c); err != nil {
		return model.CollectionCase{}, err
	}
	stored, err := repos.Cases.FindByID(ctx, req.TenantID, c.ID())
	if err != nil {
		return model.CollectionCase{}, fmt.Errorf("reload case: %w", err)
	}
	return stored, nil
}
