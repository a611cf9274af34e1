package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Collection case requests
// ---------------------------------------------------------------------------

// OpenCaseRequest opens a case for a delinquent loan. An empty case number
// is allocated by the repository.
type OpenCaseRequest struct {
	TenantID         string          `json:"tenant_id" validate:"required"`
	LoanID           string          `json:"loan_id" validate:"required"`
	MemberID         string          `json:"member_id" validate:"required"`
	CaseNumber       string          `json:"case_number,omitempty"`
	DaysPastDue      int             `json:"days_past_due" validate:"gte=0"`
	AmountOverdue    decimal.Decimal `json:"amount_overdue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// CaseRef identifies a case.
type CaseRef struct {
	TenantID string `json:"tenant_id" validate:"required"`
	CaseID   string `json:"case_id" validate:"required"`
}

// AssignCaseRequest hands a case to a collector.
type AssignCaseRequest struct {
	TenantID         string    `json:"tenant_id" validate:"required"`
	CaseID           string    `json:"case_id" validate:"required"`
	CollectorID      string    `json:"collector_id" validate:"required"`
	NextFollowUpDate time.Time `json:"next_follow_up_date,omitempty"`
}

// RecordContactRequest logs a successful contact.
type RecordContactRequest struct {
	TenantID         string    `json:"tenant_id" validate:"required"`
	CaseID           string    `json:"case_id" validate:"required"`
	ContactDate      time.Time `json:"contact_date,omitempty"`
	NextFollowUpDate time.Time `json:"next_follow_up_date,omitempty"`
}

// PromiseTermsRequest carries a borrower commitment made during an action.
type PromiseTermsRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date" validate:"required"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// RecordActionRequest appends an action to a case, optionally with a promise.
type RecordActionRequest struct {
	TenantID        string               `json:"tenant_id" validate:"required"`
	CaseID          string               `json:"case_id" validate:"required"`
	ActionType      string               `json:"action_type" validate:"required"`
	Outcome         string               `json:"outcome" validate:"required"`
	PerformedBy     string               `json:"performed_by" validate:"required"`
	PerformedAt     time.Time            `json:"performed_at,omitempty"`
	Description     string               `json:"description,omitempty"`
	ContactMethod   string               `json:"contact_method,omitempty"`
	PhoneNumber     string               `json:"phone_number,omitempty"`
	ContactPerson   string               `json:"contact_person,omitempty"`
	DurationMinutes int                  `json:"duration_minutes,omitempty" validate:"gte=0"`
	Latitude        *decimal.Decimal     `json:"latitude,omitempty"`
	Longitude       *decimal.Decimal     `json:"longitude,omitempty"`
	FollowUpDate    time.Time            `json:"follow_up_date,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Promise         *PromiseTermsRequest `json:"promise,omitempty"`
}

// AddActionNoteRequest appends a note to a recorded action.
type AddActionNoteRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	CaseID   string `json:"case_id" validate:"required"`
	ActionID string `json:"action_id" validate:"required"`
	Note     string `json:"note" validate:"required"`
}

// CaseAmountRequest carries a money amount for a case (recovery).
type CaseAmountRequest struct {
	TenantID string          `json:"tenant_id" validate:"required"`
	CaseID   string          `json:"case_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// CaseReasonRequest carries free text for a case transition (escalate,
// close, note).
type CaseReasonRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	CaseID   string `json:"case_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

// SettleCaseRequest closes a case as settled.
type SettleCaseRequest struct {
	TenantID string          `json:"tenant_id" validate:"required"`
	CaseID   string          `json:"case_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Terms    string          `json:"terms,omitempty"`
}

// UpdateArrearsRequest refreshes a case from the ledger's arrears figures.
type UpdateArrearsRequest struct {
	TenantID         string          `json:"tenant_id" validate:"required"`
	CaseID           string          `json:"case_id" validate:"required"`
	DaysPastDue      int             `json:"days_past_due" validate:"gte=0"`
	AmountOverdue    decimal.Decimal `json:"amount_overdue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// ListCasesRequest lists a loan's cases when LoanID is set, otherwise the
// tenant's active cases.
type ListCasesRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	LoanID   string `json:"loan_id,omitempty"`
	PageSize int    `json:"page_size,omitempty" validate:"gte=0,lte=500"`
	Offset   int    `json:"offset,omitempty" validate:"gte=0"`
}

// ---------------------------------------------------------------------------
// Promise requests
// ---------------------------------------------------------------------------

// PromisePaymentRequest records money paid against a promise.
type PromisePaymentRequest struct {
	TenantID  string          `json:"tenant_id" validate:"required"`
	CaseID    string          `json:"case_id" validate:"required"`
	PromiseID string          `json:"promise_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	PaidOn    time.Time       `json:"paid_on,omitempty"`
}

// PromiseReasonRequest breaks or cancels a promise.
type PromiseReasonRequest struct {
	TenantID  string `json:"tenant_id" validate:"required"`
	CaseID    string `json:"case_id" validate:"required"`
	PromiseID string `json:"promise_id" validate:"required"`
	Reason    string `json:"reason,omitempty"`
}

// ReschedulePromiseRequest moves a promise to a new payment date.
type ReschedulePromiseRequest struct {
	TenantID  string    `json:"tenant_id" validate:"required"`
	CaseID    string    `json:"case_id" validate:"required"`
	PromiseID string    `json:"promise_id" validate:"required"`
	NewDate   time.Time `json:"new_date" validate:"required"`
	Reason    string    `json:"reason,omitempty"`
}

// BreakOverduePromisesRequest breaks every awaiting promise on a case whose
// payment date is more than GraceDays behind AsOf.
type BreakOverduePromisesRequest struct {
	TenantID  string    `json:"tenant_id" validate:"required"`
	CaseID    string    `json:"case_id" validate:"required"`
	AsOf      time.Time `json:"as_of,omitempty"`
	GraceDays int       `json:"grace_days,omitempty" validate:"gte=0"`
}

// ---------------------------------------------------------------------------
// Strategy requests
// ---------------------------------------------------------------------------

// CreateStrategyRequest defines a new strategy rule.
type CreateStrategyRequest struct {
	TenantID           string           `json:"tenant_id" validate:"required"`
	Code               string           `json:"code" validate:"required,max=50"`
	Name               string           `json:"name" validate:"required"`
	Description        string           `json:"description,omitempty"`
	TriggerDaysPastDue int              `json:"trigger_days_past_due" validate:"gte=0"`
	MaxDaysPastDue     *int             `json:"max_days_past_due,omitempty"`
	MinOutstanding     *decimal.Decimal `json:"min_outstanding_amount,omitempty"`
	MaxOutstanding     *decimal.Decimal `json:"max_outstanding_amount,omitempty"`
	LoanProductID      string           `json:"loan_product_id,omitempty"`
	ActionType         string           `json:"action_type" validate:"required"`
	MessageTemplate    string           `json:"message_template,omitempty"`
	Priority           int              `json:"priority" validate:"gte=0"`
	RepeatIntervalDays int              `json:"repeat_interval_days,omitempty" validate:"gte=0"`
	MaxRepetitions     int              `json:"max_repetitions,omitempty" validate:"gte=0"`
	EscalateOnFailure  *bool            `json:"escalate_on_failure,omitempty"`
	RequiresApproval   bool             `json:"requires_approval,omitempty"`
	EffectiveFrom      time.Time        `json:"effective_from,omitempty"`
	EffectiveTo        time.Time        `json:"effective_to,omitempty"`
}

// UpdateStrategyRequest changes a strategy. Nil fields are left as they are.
type UpdateStrategyRequest struct {
	TenantID           string  `json:"tenant_id" validate:"required"`
	StrategyID         string  `json:"strategy_id" validate:"required"`
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	TriggerDaysPastDue *int    `json:"trigger_days_past_due,omitempty"`
	MaxDaysPastDue     *int    `json:"max_days_past_due,omitempty"`
	ActionType         *string `json:"action_type,omitempty"`
	MessageTemplate    *string `json:"message_template,omitempty"`
	Priority           *int    `json:"priority,omitempty"`
}

// SetStrategyActiveRequest activates or deactivates a strategy.
type SetStrategyActiveRequest struct {
	TenantID   string `json:"tenant_id" validate:"required"`
	StrategyID string `json:"strategy_id" validate:"required"`
	Active     bool   `json:"active"`
}

// EvaluateStrategiesRequest asks which strategies should fire for a case.
type EvaluateStrategiesRequest struct {
	TenantID      string    `json:"tenant_id" validate:"required"`
	CaseID        string    `json:"case_id" validate:"required"`
	LoanProductID string    `json:"loan_product_id,omitempty"`
	AsOf          time.Time `json:"as_of,omitempty"`
}

// RecordExecutionRequest records that a strategy fired for a case.
type RecordExecutionRequest struct {
	TenantID   string    `json:"tenant_id" validate:"required"`
	CaseID     string    `json:"case_id" validate:"required"`
	StrategyID string    `json:"strategy_id" validate:"required"`
	ActionID   string    `json:"action_id,omitempty"`
	ExecutedOn time.Time `json:"executed_on,omitempty"`
	Succeeded  bool      `json:"succeeded"`
}

// ---------------------------------------------------------------------------
// Settlement requests
// ---------------------------------------------------------------------------

// ProposeSettlementRequest opens a settlement against a case. The original
// outstanding is taken from the case.
type ProposeSettlementRequest struct {
	TenantID             string          `json:"tenant_id" validate:"required"`
	CaseID               string          `json:"case_id" validate:"required"`
	ReferenceNumber      string          `json:"reference_number" validate:"required"`
	SettlementType       string          `json:"settlement_type" validate:"required"`
	SettlementAmount     decimal.Decimal `json:"settlement_amount"`
	NumberOfInstallments int             `json:"number_of_installments,omitempty" validate:"gte=0"`
	DueDate              time.Time       `json:"due_date" validate:"required"`
	Terms                string          `json:"terms,omitempty"`
	ProposedBy           string          `json:"proposed_by" validate:"required"`
}

// SettlementDecisionRequest drives a settlement transition. Actor is the
// approver for approvals; Reason is the justification or reason text.
type SettlementDecisionRequest struct {
	TenantID     string `json:"tenant_id" validate:"required"`
	SettlementID string `json:"settlement_id" validate:"required"`
	Actor        string `json:"actor,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// SettlementPaymentRequest applies a payment to a settlement.
type SettlementPaymentRequest struct {
	TenantID     string          `json:"tenant_id" validate:"required"`
	SettlementID string          `json:"settlement_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

// ---------------------------------------------------------------------------
// Legal action requests
// ---------------------------------------------------------------------------

// InitiateLegalActionRequest starts proceedings and escalates the case.
type InitiateLegalActionRequest struct {
	TenantID    string          `json:"tenant_id" validate:"required"`
	CaseID      string          `json:"case_id" validate:"required"`
	ActionType  string          `json:"action_type" validate:"required"`
	ClaimAmount decimal.Decimal `json:"claim_amount"`
	Reason      string          `json:"reason" validate:"required"`
}

// FileLegalCaseRequest records the court filing.
type FileLegalCaseRequest struct {
	TenantID      string          `json:"tenant_id" validate:"required"`
	LegalActionID string          `json:"legal_action_id" validate:"required"`
	FiledDate     time.Time       `json:"filed_date,omitempty"`
	CaseReference string          `json:"case_reference,omitempty"`
	CourtName     string          `json:"court_name,omitempty"`
	CourtFees     decimal.Decimal `json:"court_fees"`
}

// AssignLawyerRequest names the lawyer on a legal action.
type AssignLawyerRequest struct {
	TenantID      string `json:"tenant_id" validate:"required"`
	LegalActionID string `json:"legal_action_id" validate:"required"`
	LawyerName    string `json:"lawyer_name" validate:"required"`
}

// ScheduleHearingRequest sets the next hearing date.
type ScheduleHearingRequest struct {
	TenantID      string    `json:"tenant_id" validate:"required"`
	LegalActionID string    `json:"legal_action_id" validate:"required"`
	HearingDate   time.Time `json:"hearing_date" validate:"required"`
}

// RecordJudgmentRequest records the court's decision.
type RecordJudgmentRequest struct {
	TenantID       string           `json:"tenant_id" validate:"required"`
	LegalActionID  string           `json:"legal_action_id" validate:"required"`
	JudgmentDate   time.Time        `json:"judgment_date,omitempty"`
	InFavor        bool             `json:"in_favor"`
	JudgmentAmount *decimal.Decimal `json:"judgment_amount,omitempty"`
	Summary        string           `json:"summary,omitempty"`
}

// LegalAmountRequest carries an amount for costs, recoveries, or a
// settlement. Text is the cost description or settlement terms.
type LegalAmountRequest struct {
	TenantID      string          `json:"tenant_id" validate:"required"`
	LegalActionID string          `json:"legal_action_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Text          string          `json:"text,omitempty"`
}

// LegalReasonRequest closes or withdraws a legal action.
type LegalReasonRequest struct {
	TenantID      string `json:"tenant_id" validate:"required"`
	LegalActionID string `json:"legal_action_id" validate:"required"`
	Reason        string `json:"reason,omitempty"`
}

// ---------------------------------------------------------------------------
// Write-off requests
// ---------------------------------------------------------------------------

// RequestWriteOffRequest drafts a write-off. When CaseID is set and the
// snapshot fields are zero they are taken from the case.
type RequestWriteOffRequest struct {
	TenantID           string          `json:"tenant_id" validate:"required"`
	LoanID             string          `json:"loan_id" validate:"required"`
	CaseID             string          `json:"case_id,omitempty"`
	WriteOffNumber     string          `json:"write_off_number" validate:"required"`
	WriteOffType       string          `json:"write_off_type" validate:"required"`
	Reason             string          `json:"reason" validate:"required"`
	Principal          decimal.Decimal `json:"principal"`
	Interest           decimal.Decimal `json:"interest"`
	Penalties          decimal.Decimal `json:"penalties"`
	Fees               decimal.Decimal `json:"fees"`
	DaysPastDue        int             `json:"days_past_due,omitempty" validate:"gte=0"`
	CollectionAttempts int             `json:"collection_attempts,omitempty" validate:"gte=0"`
}

// WriteOffDecisionRequest drives a write-off transition.
type WriteOffDecisionRequest struct {
	TenantID     string    `json:"tenant_id" validate:"required"`
	WriteOffID   string    `json:"write_off_id" validate:"required"`
	ActorID      string    `json:"actor_id,omitempty"`
	ActorName    string    `json:"actor_name,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	WriteOffDate time.Time `json:"write_off_date,omitempty"`
}

// WriteOffRecoveryRequest books money recovered after a write-off.
type WriteOffRecoveryRequest struct {
	TenantID   string          `json:"tenant_id" validate:"required"`
	WriteOffID string          `json:"write_off_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// ---------------------------------------------------------------------------
// Lookup and export requests
// ---------------------------------------------------------------------------

// GetByIDRequest fetches one settlement, legal action, write-off or strategy.
type GetByIDRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	ID       string `json:"id" validate:"required"`
}

// ExportPortfolioRequest builds a portfolio-at-risk workbook.
type ExportPortfolioRequest struct {
	TenantID string    `json:"tenant_id" validate:"required"`
	AsOf     time.Time `json:"as_of,omitempty"`
}

// ---------------------------------------------------------------------------
// Ledger feed
// ---------------------------------------------------------------------------

// LoanArrearsNotice is the ledger's arrears update for one loan.
type LoanArrearsNotice struct {
	TenantID         string          `json:"tenant_id"`
	LoanID           string          `json:"loan_id"`
	MemberID         string          `json:"member_id"`
	DaysPastDue      int             `json:"days_past_due"`
	AmountOverdue    decimal.Decimal `json:"amount_overdue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// LoanPaymentNotice is a repayment posted by the ledger.
type LoanPaymentNotice struct {
	TenantID  string          `json:"tenant_id"`
	LoanID    string          `json:"loan_id"`
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ActionResponse is the external representation of a collection action.
type ActionResponse struct {
	ID              string           `json:"id"`
	ActionType      string           `json:"action_type"`
	Outcome         string           `json:"outcome"`
	ContactMethod   string           `json:"contact_method,omitempty"`
	PerformedBy     string           `json:"performed_by"`
	PerformedAt     time.Time        `json:"performed_at"`
	Description     string           `json:"description,omitempty"`
	PhoneNumber     string           `json:"phone_number,omitempty"`
	ContactPerson   string           `json:"contact_person,omitempty"`
	DurationMinutes int              `json:"duration_minutes,omitempty"`
	Latitude        *decimal.Decimal `json:"latitude,omitempty"`
	Longitude       *decimal.Decimal `json:"longitude,omitempty"`
	FollowUpDate    *time.Time       `json:"follow_up_date,omitempty"`
	PromiseID       string           `json:"promise_id,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// PromiseResponse is the external representation of a promise to pay.
type PromiseResponse struct {
	ID                string          `json:"id"`
	ActionID          string          `json:"action_id,omitempty"`
	Status            string          `json:"status"`
	PromiseDate       time.Time       `json:"promise_date"`
	PaymentDate       time.Time       `json:"payment_date"`
	PromisedAmount    decimal.Decimal `json:"promised_amount"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	ActualPaymentDate *time.Time      `json:"actual_payment_date,omitempty"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	RescheduleCount   int             `json:"reschedule_count"`
	BreachReason      string          `json:"breach_reason,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// CaseResponse is the external representation of a collection case.
type CaseResponse struct {
	ID                  string            `json:"id"`
	TenantID            string            `json:"tenant_id"`
	CaseNumber          string            `json:"case_number"`
	LoanID              string            `json:"loan_id"`
	MemberID            string            `json:"member_id"`
	Status              string            `json:"status"`
	Priority            string            `json:"priority"`
	Classification      string            `json:"classification"`
	AssignedCollectorID string            `json:"assigned_collector_id,omitempty"`
	OpenedDate          time.Time         `json:"opened_date"`
	AssignedDate        *time.Time        `json:"assigned_date,omitempty"`
	ClosedDate          *time.Time        `json:"closed_date,omitempty"`
	DaysPastDueAtOpen   int               `json:"days_past_due_at_open"`
	CurrentDaysPastDue  int               `json:"current_days_past_due"`
	AmountOverdue       decimal.Decimal   `json:"amount_overdue"`
	TotalOutstanding    decimal.Decimal   `json:"total_outstanding"`
	AmountRecovered     decimal.Decimal   `json:"amount_recovered"`
	ContactAttempts     int               `json:"contact_attempts"`
	LastContactDate     *time.Time        `json:"last_contact_date,omitempty"`
	NextFollowUpDate    *time.Time        `json:"next_follow_up_date,omitempty"`
	ClosureReason       string            `json:"closure_reason,omitempty"`
	Notes               []string          `json:"notes,omitempty"`
	Actions             []ActionResponse  `json:"actions,omitempty"`
	Promises            []PromiseResponse `json:"promises,omitempty"`
	Version             int               `json:"version"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// RecordActionResponse returns the updated case and the ids created.
type RecordActionResponse struct {
	Case      CaseResponse `json:"case"`
	ActionID  string       `json:"action_id"`
	PromiseID string       `json:"promise_id,omitempty"`
}

// ListCasesResponse is one page of cases.
type ListCasesResponse struct {
	Cases []CaseResponse `json:"cases"`
	Total int            `json:"total"`
}

// StrategyResponse is the external representation of a strategy.
type StrategyResponse struct {
	ID                 string           `json:"id"`
	TenantID           string           `json:"tenant_id"`
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	LoanProductID      string           `json:"loan_product_id,omitempty"`
	TriggerDaysPastDue int              `json:"trigger_days_past_due"`
	MaxDaysPastDue     *int             `json:"max_days_past_due,omitempty"`
	MinOutstanding     *decimal.Decimal `json:"min_outstanding_amount,omitempty"`
	MaxOutstanding     *decimal.Decimal `json:"max_outstanding_amount,omitempty"`
	ActionType         string           `json:"action_type"`
	MessageTemplate    string           `json:"message_template,omitempty"`
	Priority           int              `json:"priority"`
	RepeatIntervalDays int              `json:"repeat_interval_days"`
	MaxRepetitions     int              `json:"max_repetitions"`
	EscalateOnFailure  bool             `json:"escalate_on_failure"`
	RequiresApproval   bool             `json:"requires_approval"`
	Active             bool             `json:"active"`
	EffectiveFrom      *time.Time       `json:"effective_from,omitempty"`
	EffectiveTo        *time.Time       `json:"effective_to,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// PlannedAction is one strategy the scheduler should carry out.
type PlannedAction struct {
	StrategyID        string `json:"strategy_id"`
	Code              string `json:"code"`
	ActionType        string `json:"action_type"`
	MessageTemplate   string `json:"message_template,omitempty"`
	Priority          int    `json:"priority"`
	RequiresApproval  bool   `json:"requires_approval"`
	EscalateOnFailure bool   `json:"escalate_on_failure"`
}

// StrategyPlanResponse lists the strategies due for a case, best first.
type StrategyPlanResponse struct {
	CaseID      string          `json:"case_id"`
	DaysPastDue int             `json:"days_past_due"`
	AsOf        time.Time       `json:"as_of"`
	Actions     []PlannedAction `json:"actions"`
}

// ExecutionResponse is the external representation of a strategy run.
type ExecutionResponse struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	StrategyID string    `json:"strategy_id"`
	ActionID   string    `json:"action_id,omitempty"`
	ExecutedOn time.Time `json:"executed_on"`
	Succeeded  bool      `json:"succeeded"`
}

// SettlementResponse is the external representation of a debt settlement.
type SettlementResponse struct {
	ID                   string          `json:"id"`
	TenantID             string          `json:"tenant_id"`
	ReferenceNumber      string          `json:"reference_number"`
	CaseID               string          `json:"case_id"`
	LoanID               string          `json:"loan_id"`
	MemberID             string          `json:"member_id"`
	SettlementType       string          `json:"settlement_type"`
	Status               string          `json:"status"`
	OriginalOutstanding  decimal.Decimal `json:"original_outstanding"`
	SettlementAmount     decimal.Decimal `json:"settlement_amount"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	AmountPaid           decimal.Decimal `json:"amount_paid"`
	RemainingBalance     decimal.Decimal `json:"remaining_balance"`
	NumberOfInstallments int             `json:"number_of_installments,omitempty"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount"`
	ProposedDate         time.Time       `json:"proposed_date"`
	ApprovedDate         *time.Time      `json:"approved_date,omitempty"`
	DueDate              time.Time       `json:"due_date"`
	CompletedDate        *time.Time      `json:"completed_date,omitempty"`
	Terms                string          `json:"terms,omitempty"`
	Justification        string          `json:"justification,omitempty"`
	ProposedBy           string          `json:"proposed_by"`
	ApprovedBy           string          `json:"approved_by,omitempty"`
	Notes                string          `json:"notes,omitempty"`
}

// LegalActionResponse is the external representation of a legal action.
type LegalActionResponse struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenant_id"`
	CaseID           string           `json:"case_id"`
	LoanID           string           `json:"loan_id"`
	MemberID         string           `json:"member_id"`
	ActionType       string           `json:"action_type"`
	Status           string           `json:"status"`
	CaseReference    string           `json:"case_reference,omitempty"`
	CourtName        string           `json:"court_name,omitempty"`
	LawyerName       string           `json:"lawyer_name,omitempty"`
	ClaimAmount      decimal.Decimal  `json:"claim_amount"`
	JudgmentAmount   *decimal.Decimal `json:"judgment_amount,omitempty"`
	SettlementAmount *decimal.Decimal `json:"settlement_amount,omitempty"`
	AmountRecovered  decimal.Decimal  `json:"amount_recovered"`
	LegalCosts       decimal.Decimal  `json:"legal_costs"`
	CourtFees        decimal.Decimal  `json:"court_fees"`
	NetRecovery      decimal.Decimal  `json:"net_recovery"`
	JudgmentSummary  string           `json:"judgment_summary,omitempty"`
	InitiatedDate    time.Time        `json:"initiated_date"`
	FiledDate        *time.Time       `json:"filed_date,omitempty"`
	NextHearingDate  *time.Time       `json:"next_hearing_date,omitempty"`
	JudgmentDate     *time.Time       `json:"judgment_date,omitempty"`
	ClosedDate       *time.Time       `json:"closed_date,omitempty"`
	Notes            []string         `json:"notes,omitempty"`
}

// WriteOffResponse is the external representation of a loan write-off.
type WriteOffResponse struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenant_id"`
	LoanID             string          `json:"loan_id"`
	CaseID             string          `json:"case_id,omitempty"`
	WriteOffNumber     string          `json:"write_off_number"`
	WriteOffType       string          `json:"write_off_type"`
	Status             string          `json:"status"`
	Reason             string          `json:"reason"`
	PrincipalWriteOff  decimal.Decimal `json:"principal_write_off"`
	InterestWriteOff   decimal.Decimal `json:"interest_write_off"`
	PenaltiesWriteOff  decimal.Decimal `json:"penalties_write_off"`
	FeesWriteOff       decimal.Decimal `json:"fees_write_off"`
	TotalWriteOff      decimal.Decimal `json:"total_write_off"`
	RecoveredAmount    decimal.Decimal `json:"recovered_amount"`
	NetLoss            decimal.Decimal `json:"net_loss"`
	DaysPastDue        int             `json:"days_past_due"`
	CollectionAttempts int             `json:"collection_attempts"`
	RequestDate        time.Time       `json:"request_date"`
	WriteOffDate       *time.Time      `json:"write_off_date,omitempty"`
	ApprovedByID       string          `json:"approved_by_id,omitempty"`
	ApprovedByName     string          `json:"approved_by_name,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}

// ExportPortfolioResponse points at the uploaded workbook.
type ExportPortfolioResponse struct {
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	CaseCount int       `json:"case_count"`
	AsOf      time.Time `json:"as_of"`
}
