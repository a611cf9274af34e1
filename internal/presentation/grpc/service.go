package grpc

// service.go is the hand-maintained equivalent of generated code for
// bib/collections/v1/collections.proto. Messages travel as JSON (see
// pkg/rpcjson), so the request and response types are the application DTOs.

import (
	"context"

	grpclib "google.golang.org/grpc"

	"github.com/bibbank/collections-service/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bib.collections.v1.CollectionsService"

// FullMethod returns the wire name of method, as seen by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CollectionsServiceServer is the server API for CollectionsService.
type CollectionsServiceServer interface {
	// Cases
	OpenCase(context.Context, *dto.OpenCaseRequest) (*dto.CaseResponse, error)
	GetCase(context.Context, *dto.CaseRef) (*dto.CaseResponse, error)
	ListCases(context.Context, *dto.ListCasesRequest) (*dto.ListCasesResponse, error)
	AssignCase(context.Context, *dto.AssignCaseRequest) (*dto.CaseResponse, error)
	RecordContact(context.Context, *dto.RecordContactRequest) (*dto.CaseResponse, error)
	RecordAction(context.Context, *dto.RecordActionRequest) (*dto.RecordActionResponse, error)
	AddActionNote(context.Context, *dto.AddActionNoteRequest) (*dto.CaseResponse, error)
	RecordCaseRecovery(context.Context, *dto.CaseAmountRequest) (*dto.CaseResponse, error)
	EscalateToLegal(context.Context, *dto.CaseReasonRequest) (*dto.CaseResponse, error)
	SettleCase(context.Context, *dto.SettleCaseRequest) (*dto.CaseResponse, error)
	CloseCase(context.Context, *dto.CaseReasonRequest) (*dto.CaseResponse, error)
	AddCaseNote(context.Context, *dto.CaseReasonRequest) (*dto.CaseResponse, error)
	UpdateArrears(context.Context, *dto.UpdateArrearsRequest) (*dto.CaseResponse, error)
	RefreshArrears(context.Context, *dto.CaseRef) (*dto.CaseResponse, error)

	// Promises
	RecordPromisePayment(context.Context, *dto.PromisePaymentRequest) (*dto.PromiseResponse, error)
	BreakPromise(context.Context, *dto.PromiseReasonRequest) (*dto.PromiseResponse, error)
	ReschedulePromise(context.Context, *dto.ReschedulePromiseRequest) (*dto.PromiseResponse, error)
	CancelPromise(context.Context, *dto.PromiseReasonRequest) (*dto.PromiseResponse, error)
	BreakOverduePromises(context.Context, *dto.BreakOverduePromisesRequest) (*PromiseList, error)

	// Strategies
	CreateStrategy(context.Context, *dto.CreateStrategyRequest) (*dto.StrategyResponse, error)
	UpdateStrategy(context.Context, *dto.UpdateStrategyRequest) (*dto.StrategyResponse, error)
	SetStrategyActive(context.Context, *dto.SetStrategyActiveRequest) (*dto.StrategyResponse, error)
	GetStrategy(context.Context, *dto.GetByIDRequest) (*dto.StrategyResponse, error)
	ListActiveStrategies(context.Context, *TenantRequest) (*StrategyList, error)
	EvaluateStrategies(context.Context, *dto.EvaluateStrategiesRequest) (*dto.StrategyPlanResponse, error)
	RecordStrategyExecution(context.Context, *dto.RecordExecutionRequest) (*dto.ExecutionResponse, error)

	// Settlements
	ProposeSettlement(context.Context, *dto.ProposeSettlementRequest) (*dto.SettlementResponse, error)
	SubmitSettlement(context.Context, *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error)
	ApproveSettlement(context.Context, *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error)
	RejectSettlement(context.Context, *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error)
	AcceptSettlement(context.Context, *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error)
	DefaultSettlement(context.Context, *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error)
	CancelSettlement(context.Context, *dto.SettlementDecisionRequest) (*dto.SettlementResponse, error)
	RecordSettlementPayment(context.Context, *dto.SettlementPaymentRequest) (*dto.SettlementResponse, error)
	GetSettlement(context.Context, *dto.GetByIDRequest) (*dto.SettlementResponse, error)
	ListSettlements(context.Context, *dto.CaseRef) (*SettlementList, error)

	// Legal actions
	InitiateLegalAction(context.Context, *dto.InitiateLegalActionRequest) (*dto.LegalActionResponse, error)
	FileLegalCase(context.Context, *dto.FileLegalCaseRequest) (*dto.LegalActionResponse, error)
	AssignLawyer(context.Context, *dto.AssignLawyerRequest) (*dto.LegalActionResponse, error)
	ScheduleHearing(context.Context, *dto.ScheduleHearingRequest) (*dto.LegalActionResponse, error)
	RecordJudgment(context.Context, *dto.RecordJudgmentRequest) (*dto.LegalActionResponse, error)
	AddLegalCosts(context.Context, *dto.LegalAmountRequest) (*dto.LegalActionResponse, error)
	RecordLegalRecovery(context.Context, *dto.LegalAmountRequest) (*dto.LegalActionResponse, error)
	SettleLegalAction(context.Context, *dto.LegalAmountRequest) (*dto.LegalActionResponse, error)
	CloseLegalAction(context.Context, *dto.LegalReasonRequest) (*dto.LegalActionResponse, error)
	WithdrawLegalAction(context.Context, *dto.LegalReasonRequest) (*dto.LegalActionResponse, error)
	GetLegalAction(context.Context, *dto.GetByIDRequest) (*dto.LegalActionResponse, error)
	ListLegalActions(context.Context, *dto.CaseRef) (*LegalActionList, error)

	// Write-offs
	RequestWriteOff(context.Context, *dto.RequestWriteOffRequest) (*dto.WriteOffResponse, error)
	SubmitWriteOff(context.Context, *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error)
	ApproveWriteOff(context.Context, *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error)
	RejectWriteOff(context.Context, *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error)
	CancelWriteOff(context.Context, *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error)
	ProcessWriteOff(context.Context, *dto.WriteOffDecisionRequest) (*dto.WriteOffResponse, error)
	RecordWriteOffRecovery(context.Context, *dto.WriteOffRecoveryRequest) (*dto.WriteOffResponse, error)
	GetWriteOff(context.Context, *dto.GetByIDRequest) (*dto.WriteOffResponse, error)
	ListWriteOffs(context.Context, *LoanRequest) (*WriteOffList, error)

	// Reporting
	ExportPortfolio(context.Context, *dto.ExportPortfolioRequest) (*dto.ExportPortfolioResponse, error)
}

// RegisterCollectionsServiceServer registers srv with s.
func RegisterCollectionsServiceServer(s *grpclib.Server, srv CollectionsServiceServer) {
	s.RegisterService(&collectionsServiceDesc, srv)
}

// unary builds the method descriptor for one RPC from an interface method
// expression, decoding into a fresh Req and running the interceptor chain.
func unary[Req, Resp any](name string, call func(CollectionsServiceServer, context.Context, *Req) (*Resp, error)) grpclib.MethodDesc {
	fullMethod := FullMethod(name)
	return grpclib.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(CollectionsServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			})
		},
	}
}

type server = CollectionsServiceServer

var collectionsServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CollectionsServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("OpenCase", server.OpenCase),
		unary("GetCase", server.GetCase),
		unary("ListCases", server.ListCases),
		unary("AssignCase", server.AssignCase),
		unary("RecordContact", server.RecordContact),
		unary("RecordAction", server.RecordAction),
		unary("AddActionNote", server.AddActionNote),
		unary("RecordCaseRecovery", server.RecordCaseRecovery),
		unary("EscalateToLegal", server.EscalateToLegal),
		unary("SettleCase", server.SettleCase),
		unary("CloseCase", server.CloseCase),
		unary("AddCaseNote", server.AddCaseNote),
		unary("UpdateArrears", server.UpdateArrears),
		unary("RefreshArrears", server.RefreshArrears),

		unary("RecordPromisePayment", server.RecordPromisePayment),
		unary("BreakPromise", server.BreakPromise),
		unary("ReschedulePromise", server.ReschedulePromise),
		unary("CancelPromise", server.CancelPromise),
		unary("BreakOverduePromises", server.BreakOverduePromises),

		unary("CreateStrategy", server.CreateStrategy),
		unary("UpdateStrategy", server.UpdateStrategy),
		unary("SetStrategyActive", server.SetStrategyActive),
		unary("GetStrategy", server.GetStrategy),
		unary("ListActiveStrategies", server.ListActiveStrategies),
		unary("EvaluateStrategies", server.EvaluateStrategies),
		unary("RecordStrategyExecution", server.RecordStrategyExecution),

		unary("ProposeSettlement", server.ProposeSettlement),
		unary("SubmitSettlement", server.SubmitSettlement),
		unary("ApproveSettlement", server.ApproveSettlement),
		unary("RejectSettlement", server.RejectSettlement),
		unary("AcceptSettlement", server.AcceptSettlement),
		unary("DefaultSettlement", server.DefaultSettlement),
		unary("CancelSettlement", server.CancelSettlement),
		unary("RecordSettlementPayment", server.RecordSettlementPayment),
		unary("GetSettlement", server.GetSettlement),
		unary("ListSettlements", server.ListSettlements),

		unary("InitiateLegalAction", server.InitiateLegalAction),
		unary("FileLegalCase", server.FileLegalCase),
		unary("AssignLawyer", server.AssignLawyer),
		unary("ScheduleHearing", server.ScheduleHearing),
		unary("RecordJudgment", server.RecordJudgment),
		unary("AddLegalCosts", server.AddLegalCosts),
		unary("RecordLegalRecovery", server.RecordLegalRecovery),
		unary("SettleLegalAction", server.SettleLegalAction),
		unary("CloseLegalAction", server.CloseLegalAction),
		unary("WithdrawLegalAction", server.WithdrawLegalAction),
		unary("GetLegalAction", server.GetLegalAction),
		unary("ListLegalActions", server.ListLegalActions),

		unary("RequestWriteOff", server.RequestWriteOff),
		unary("SubmitWriteOff", server.SubmitWriteOff),
		unary("ApproveWriteOff", server.ApproveWriteOff),
		unary("RejectWriteOff", server.RejectWriteOff),
		unary("CancelWriteOff", server.CancelWriteOff),
		unary("ProcessWriteOff", server.ProcessWriteOff),
		unary("RecordWriteOffRecovery", server.RecordWriteOffRecovery),
		unary("GetWriteOff", server.GetWriteOff),
		unary("ListWriteOffs", server.ListWriteOffs),

		unary("ExportPortfolio", server.ExportPortfolio),
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "bib/collections/v1/collections.proto",
}

// TenantRequest scopes a query to one tenant.
type TenantRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
}

// LoanRequest scopes a query to one loan.
type LoanRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	LoanID   string `json:"loan_id" validate:"required"`
}

type PromiseList struct {
	Promises []dto.PromiseResponse `json:"promises"`
}

type StrategyList struct {
	Strategies []dto.StrategyResponse `json:"strategies"`
}

type SettlementList struct {
	Settlements []dto.SettlementResponse `json:"settlements"`
}

type LegalActionList struct {
	LegalActions []dto.LegalActionResponse `json:"legal_actions"`
}

type WriteOffList struct {
	WriteOffs []dto.WriteOffResponse `json:"write_offs"`
}
