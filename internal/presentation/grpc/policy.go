package grpc

import "github.com/bibbank/collections-service/pkg/auth"

// MethodPolicy lists the roles allowed to call each guarded method. Reads
// are open to any authenticated staff member of the tenant.
func MethodPolicy() auth.MethodRoles {
	var (
		fieldWork = []string{auth.RoleCollector, auth.RoleSupervisor, auth.RoleService}
		oversight = []string{auth.RoleSupervisor}
		legal     = []string{auth.RoleLegalOfficer, auth.RoleSupervisor}
		finance   = []string{auth.RoleFinance, auth.RoleSupervisor}
		ledger    = []string{auth.RoleService, auth.RoleFinance, auth.RoleSupervisor}
		reporting = []string{auth.RoleSupervisor, auth.RoleAuditor, auth.RoleFinance}
	)

	policy := auth.MethodRoles{}
	grant := func(roles []string, methods ...string) {
		for _, m := range methods {
			policy[FullMethod(m)] = roles
		}
	}

	grant(fieldWork,
		"OpenCase", "RecordContact", "RecordAction", "AddActionNote", "AddCaseNote",
		"RecordPromisePayment", "BreakPromise", "ReschedulePromise", "CancelPromise", "BreakOverduePromises",
		"RecordStrategyExecution", "ProposeSettlement", "SubmitSettlement", "AcceptSettlement",
		"RequestWriteOff", "SubmitWriteOff", "RefreshArrears",
	)
	grant(oversight,
		"AssignCase", "CloseCase", "SettleCase", "EscalateToLegal",
		"CreateStrategy", "UpdateStrategy", "SetStrategyActive",
		"ApproveSettlement", "RejectSettlement", "DefaultSettlement", "CancelSettlement",
	)
	grant(legal,
		"InitiateLegalAction", "FileLegalCase", "AssignLawyer", "ScheduleHearing", "RecordJudgment",
		"AddLegalCosts", "RecordLegalRecovery", "SettleLegalAction", "CloseLegalAction", "WithdrawLegalAction",
	)
	grant(finance,
		"ApproveWriteOff", "RejectWriteOff", "CancelWriteOff", "ProcessWriteOff", "RecordWriteOffRecovery",
	)
	grant(ledger, "UpdateArrears", "RecordCaseRecovery", "RecordSettlementPayment")
	grant(reporting, "ExportPortfolio")
	return policy
}
