package grpc

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/application/usecase"
	"github.com/bibbank/collections-service/pkg/auth"
)

// UseCases are the application entry points the handler exposes.
type UseCases struct {
	OpenCase        *usecase.OpenCaseUseCase
	GetCase         *usecase.GetCaseUseCase
	ListCases       *usecase.ListCasesUseCase
	RecordAction    *usecase.RecordActionUseCase
	Cases           *usecase.CaseCommands
	Promises        *usecase.PromiseCommands
	Strategies      *usecase.StrategyCommands
	Evaluate        *usecase.EvaluateStrategiesUseCase
	RecordExecution *usecase.RecordExecutionUseCase
	Settlements     *usecase.SettlementCommands
	Legal           *usecase.LegalCommands
	WriteOffs       *usecase.WriteOffCommands
	Export          *usecase.ExportPortfolioUseCase
}

// CollectionsHandler implements CollectionsServiceServer. Every call is
// scoped to the caller's tenant and validated before it reaches a use case.
type CollectionsHandler struct {
	uc       UseCases
	validate *validator.Validate
	logger   *slog.Logger
}

var _ CollectionsServiceServer = (*CollectionsHandler)(nil)

func NewCollectionsHandler(uc UseCases, logger *slog.Logger) *CollectionsHandler {
	return &CollectionsHandler{uc: uc, validate: newValidator(), logger: logger}
}

// serve runs the shared admission steps, then run. defaults fill
// caller-derived fields such as the acting staff member.
func serve[Req, Resp any](
	ctx context.Context,
	h *CollectionsHandler,
	req *Req,
	tenantID *string,
	run func(context.Context, Req) (Resp, error),
	defaults ...func(*auth.Claims),
) (*Resp, error) {
	claims, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeTenant(claims, tenantID); err != nil {
		return nil, err
	}
	for _, d := range defaults {
		d(claims)
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		return nil, validationStatus(err)
	}
	resp, err := run(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, h.logger, err)
	}
	return &resp, nil
}

func staffOf(dst *string) func(*auth.Claims) {
	return func(c *auth.Claims) { defaultString(dst, c.StaffID) }
}

// ---------------------------------------------------------------------------
// Cases
// ---------------------------------------------------------------------------

func (h *CollectionsHandler) OpenCase(ctx context.Context, req *dto.OpenCaseRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.OpenCase.Execute)
}

func (h *CollectionsHandler) GetCase(ctx context.Context, req *dto.CaseRef) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.GetCase.Execute)
}

func (h *CollectionsHandler) ListCases(ctx context.Context, req *dto.ListCasesRequest) (*dto.ListCasesResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.ListCases.Execute)
}

// AssignCase assigns to the caller when no collector is named.
func (h *CollectionsHandler) AssignCase(ctx context.Context, req *dto.AssignCaseRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.Assign, staffOf(&req.CollectorID))
}

func (h *CollectionsHandler) RecordContact(ctx context.Context, req *dto.RecordContactRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.RecordContact)
}

func (h *CollectionsHandler) RecordAction(ctx context.Context, req *dto.RecordActionRequest) (*dto.RecordActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.RecordAction.Execute, staffOf(&req.PerformedBy))
}

func (h *CollectionsHandler) AddActionNote(ctx context.Context, req *dto.AddActionNoteRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.AddActionNote)
}

func (h *CollectionsHandler) RecordCaseRecovery(ctx context.Context, req *dto.CaseAmountRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.RecordRecovery)
}

func (h *CollectionsHandler) EscalateToLegal(ctx context.Context, req *dto.CaseReasonRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.EscalateToLegal)
}

func (h *CollectionsHandler) SettleCase(ctx context.Context, req *dto.SettleCaseRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.Settle)
}

func (h *CollectionsHandler) CloseCase(ctx context.Context, req *dto.CaseReasonRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.Close)
}

func (h *CollectionsHandler) AddCaseNote(ctx context.Context, req *dto.CaseReasonRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.AddNote)
}

func (h *CollectionsHandler) UpdateArrears(ctx context.Context, req *dto.UpdateArrearsRequest) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.UpdateArrears)
}

func (h *CollectionsHandler) RefreshArrears(ctx context.Context, req *dto.CaseRef) (*dto.CaseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Cases.RefreshArrears)
}

// ---------------------------------------------------------------------------
// Promises
// ---------------------------------------------------------------------------

func (h *CollectionsHandler) RecordPromisePayment(ctx context.Context, req *dto.PromisePaymentRequest) (*dto.PromiseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Promises.RecordPayment)
}

func (h *CollectionsHandler) BreakPromise(ctx context.Context, req *dto.PromiseReasonRequest) (*dto.PromiseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Promises.Break)
}

func (h *CollectionsHandler) ReschedulePromise(ctx context.Context, req *dto.ReschedulePromiseRequest) (*dto.PromiseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Promises.Reschedule)
}

func (h *CollectionsHandler) CancelPromise(ctx context.Context, req *dto.PromiseReasonRequest) (*dto.PromiseResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Promises.Cancel)
}

func (h *CollectionsHandler) BreakOverduePromises(ctx context.Context, req *dto.BreakOverduePromisesRequest) (*PromiseList, error) {
	return serve(ctx, h, req, &req.TenantID, func(ctx context.Context, r dto.BreakOverduePromisesRequest) (PromiseList, error) {
		broken, err := h.uc.Promises.BreakOverdue(ctx, r)
		return PromiseList{Promises: broken}, err
	})
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

func (h *CollectionsHandler) CreateStrategy(ctx context.Context, req *dto.CreateStrategyRequest) (*dto.StrategyResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Strategies.Create)
}

func (h *CollectionsHandler) UpdateStrategy(ctx context.Context, req *dto.UpdateStrategyRequest) (*dto.StrategyResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Strategies.Update)
}

func (h *CollectionsHandler) SetStrategyActive(ctx context.Context, req *dto.SetStrategyActiveRequest) (*dto.StrategyResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Strategies.SetActive)
}

func (h *CollectionsHandler) GetStrategy(ctx context.Context, req *dto.GetByIDRequest) (*dto.StrategyResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Strategies.Get)
}

func (h *CollectionsHandler) ListActiveStrategies(ctx context.Context, req *TenantRequest) (*StrategyList, error) {
	return serve(ctx, h, req, &req.TenantID, func(ctx context.Context, r TenantRequest) (StrategyList, error) {
		strategies, err := h.uc.Strategies.ListActive(ctx, r.TenantID)
		return StrategyList{Strategies: strategies}, err
	})
}

func (h *CollectionsHandler) EvaluateStrategies(ctx context.Context, req *dto.EvaluateStrategiesRequest) (*dto.StrategyPlanResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Evaluate.Execute)
}

func (h *CollectionsHandler) RecordStrategyExecution(ctx context.Context, req *dto.RecordExecutionRequest) (*dto.ExecutionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.RecordExecution.Execute)
}

// ---------------------------------------------------------------------------
// Settlements
// ---------------------------------------------------------------------------

func (h *CollectionsHandler) ProposeSettlement(ctx context.Context, req *dto.ProposeSettlementRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Propose, staffOf(&req.ProposedBy))
}

func (h *CollectionsHandler) SubmitSettlement(ctx context.Context, req *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Submit, staffOf(&req.Actor))
}

func (h *CollectionsHandler) ApproveSettlement(ctx context.Context, req *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Approve, staffOf(&req.Actor))
}

func (h *CollectionsHandler) RejectSettlement(ctx context.Context, req *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Reject, staffOf(&req.Actor))
}

func (h *CollectionsHandler) AcceptSettlement(ctx context.Context, req *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Accept, staffOf(&req.Actor))
}

func (h *CollectionsHandler) DefaultSettlement(ctx context.Context, req *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Default, staffOf(&req.Actor))
}

func (h *CollectionsHandler) CancelSettlement(ctx context.Context, req *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Cancel, staffOf(&req.Actor))
}

func (h *CollectionsHandler) RecordSettlementPayment(ctx context.Context, req *dto.SettlementPaymentRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.RecordPayment)
}

func (h *CollectionsHandler) GetSettlement(ctx context.Context, req *dto.GetByIDRequest) (*dto.SettlementResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Settlements.Get)
}

func (h *CollectionsHandler) ListSettlements(ctx context.Context, req *dto.CaseRef) (*SettlementList, error) {
	return serve(ctx, h, req, &req.TenantID, func(ctx context.Context, r dto.CaseRef) (SettlementList, error) {
		settlements, err := h.uc.Settlements.ListByCase(ctx, r)
		return SettlementList{Settlements: settlements}, err
	})
}

// ---------------------------------------------------------------------------
// Legal actions
// ---------------------------------------------------------------------------

func (h *CollectionsHandler) InitiateLegalAction(ctx context.Context, req *dto.InitiateLegalActionRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.Initiate)
}

func (h *CollectionsHandler) FileLegalCase(ctx context.Context, req *dto.FileLegalCaseRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.File)
}

func (h *CollectionsHandler) AssignLawyer(ctx context.Context, req *dto.AssignLawyerRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.AssignLawyer)
}

func (h *CollectionsHandler) ScheduleHearing(ctx context.Context, req *dto.ScheduleHearingRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.ScheduleHearing)
}

func (h *CollectionsHandler) RecordJudgment(ctx context.Context, req *dto.RecordJudgmentRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.RecordJudgment)
}

func (h *CollectionsHandler) AddLegalCosts(ctx context.Context, req *dto.LegalAmountRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.AddCosts)
}

func (h *CollectionsHandler) RecordLegalRecovery(ctx context.Context, req *dto.LegalAmountRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.RecordRecovery)
}

func (h *CollectionsHandler) SettleLegalAction(ctx context.Context, req *dto.LegalAmountRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.Settle)
}

func (h *CollectionsHandler) CloseLegalAction(ctx context.Context, req *dto.LegalReasonRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.Close)
}

func (h *CollectionsHandler) WithdrawLegalAction(ctx context.Context, req *dto.LegalReasonRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.Withdraw)
}

func (h *CollectionsHandler) GetLegalAction(ctx context.Context, req *dto.GetByIDRequest) (*dto.LegalActionResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Legal.Get)
}

func (h *CollectionsHandler) ListLegalActions(ctx context.Context, req *dto.CaseRef) (*LegalActionList, error) {
	return serve(ctx, h, req, &req.TenantID, func(ctx context.Context, r dto.CaseRef) (LegalActionList, error) {
		actions, err := h.uc.Legal.ListByCase(ctx, r)
		return LegalActionList{LegalActions: actions}, err
	})
}

// ---------------------------------------------------------------------------
// Write-offs
// ---------------------------------------------------------------------------

// writeOffActor names the caller as the deciding staff member.
func writeOffActor(req *dto.WriteOffDecisionRequest) func(*auth.Claims) {
	return func(c *auth.Claims) {
		defaultString(&req.ActorID, c.StaffID)
		defaultString(&req.ActorName, c.Name)
		defaultString(&req.ActorName, c.StaffID)
	}
}

func (h *CollectionsHandler) RequestWriteOff(ctx context.Context, req *dto.RequestWriteOffRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Request)
}

func (h *CollectionsHandler) SubmitWriteOff(ctx context.Context, req *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Submit, writeOffActor(req))
}

func (h *CollectionsHandler) ApproveWriteOff(ctx context.Context, req *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Approve, writeOffActor(req))
}

func (h *CollectionsHandler) RejectWriteOff(ctx context.Context, req *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Reject, writeOffActor(req))
}

func (h *CollectionsHandler) CancelWriteOff(ctx context.Context, req *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Cancel, writeOffActor(req))
}

func (h *CollectionsHandler) ProcessWriteOff(ctx context.Context, req *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Process, writeOffActor(req))
}

func (h *CollectionsHandler) RecordWriteOffRecovery(ctx context.Context, req *dto.WriteOffRecoveryRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.RecordRecovery)
}

func (h *CollectionsHandler) GetWriteOff(ctx context.Context, req *dto.GetByIDRequest) (*dto.WriteOffResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.WriteOffs.Get)
}

func (h *CollectionsHandler) ListWriteOffs(ctx context.Context, req *LoanRequest) (*WriteOffList, error) {
	return serve(ctx, h, req, &req.TenantID, func(ctx context.Context, r LoanRequest) (WriteOffList, error) {
		writeOffs, err := h.uc.WriteOffs.ListByLoan(ctx, r.TenantID, r.LoanID)
		return WriteOffList{WriteOffs: writeOffs}, err
	})
}

// ---------------------------------------------------------------------------
// Reporting
// ---------------------------------------------------------------------------

func (h *CollectionsHandler) ExportPortfolio(ctx context.Context, req *dto.ExportPortfolioRequest) (*dto.ExportPortfolioResponse, error) {
	return serve(ctx, h, req, &req.TenantID, h.uc.Export.Execute)
}
