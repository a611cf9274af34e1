package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
)

const defaultPageSize = 50

// GetCaseUseCase retrieves a case with its actions and promises.
type GetCaseUseCase struct {
	uow port.UnitOfWork
}

// NewGetCaseUseCase wires dependencies.
func NewGetCaseUseCase(uow port.UnitOfWork) *GetCaseUseCase {
	return &GetCaseUseCase{uow: uow}
}

// Execute returns the case.
func (uc *GetCaseUseCase) Execute(ctx context.Context, req dto.CaseRef) (dto.CaseResponse, error) {
	var c model.CollectionCase
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		c, err = repos.Cases.FindByID(ctx, req.TenantID, req.CaseID)
		if err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.CaseResponse{}, err
	}
	return toCaseResponse(c, true), nil
}

// ListCasesUseCase lists a loan's cases, or pages through a tenant's active
// cases when no loan is given.
type ListCasesUseCase struct {
	uow port.UnitOfWork
}

// NewListCasesUseCase wires dependencies.
func NewListCasesUseCase(uow port.UnitOfWork) *ListCasesUseCase {
	return &ListCasesUseCase{uow: uow}
}

// Execute returns one page of cases without their children.
func (uc *ListCasesUseCase) Execute(ctx context.Context, req dto.ListCasesRequest) (dto.ListCasesResponse, error) {
	var (
		cases []model.CollectionCase
		total int
	)
	err := uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		if req.LoanID != "" {
			cases, err = repos.Cases.ListByLoanID(ctx, req.TenantID, req.LoanID)
			total = len(cases)
		} else {
			limit := req.PageSize
			if limit == 0 {
				limit = defaultPageSize
			}
			cases, total, err = repos.Cases.ListActive(ctx, req.TenantID, limit, req.Offset)
		}
		if err != nil {
			return fmt.Errorf("list cases: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.ListCasesResponse{}, err
	}

	resp := dto.ListCasesResponse{Cases: make([]dto.CaseResponse, 0, len(cases)), Total: total}
	for _, c := range cases {
		resp.Cases = append(resp.Cases, toCaseResponse(c, false))
	}
	return resp, nil
}
