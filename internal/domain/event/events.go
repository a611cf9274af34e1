package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// Aggregate type names carried on every event envelope.
const (
	AggregateCollectionCase = "CollectionCase"
	AggregateStrategy       = "CollectionStrategy"
	AggregateSettlement     = "DebtSettlement"
	AggregateLegalAction    = "LegalAction"
	AggregateWriteOff       = "LoanWriteOff"
)

// ---------------------------------------------------------------------------
// Collection Case events
// ---------------------------------------------------------------------------

// CaseOpened is raised when a delinquent loan enters collections.
type CaseOpened struct {
	events.BaseEvent
	CaseNumber     string          `json:"case_number"`
	LoanID         string          `json:"loan_id"`
	MemberID       string          `json:"member_id"`
	DaysPastDue    int             `json:"days_past_due"`
	AmountOverdue  decimal.Decimal `json:"amount_overdue"`
	Priority       string          `json:"priority"`
	Classification string          `json:"classification"`
}

func NewCaseOpened(
	caseID, tenantID, caseNumber, loanID, memberID string,
	daysPastDue int, amountOverdue decimal.Decimal,
	priority, classification string, now time.Time,
) CaseOpened {
	return CaseOpened{
		BaseEvent:      events.NewBaseEvent("collections.case.opened", caseID, AggregateCollectionCase, tenantID, now),
		CaseNumber:     caseNumber,
		LoanID:         loanID,
		MemberID:       memberID,
		DaysPastDue:    daysPastDue,
		AmountOverdue:  amountOverdue,
		Priority:       priority,
		Classification: classification,
	}
}

// CaseAssigned is raised when a collector takes over a case.
type CaseAssigned struct {
	events.BaseEvent
	CollectorID string `json:"collector_id"`
}

func NewCaseAssigned(caseID, tenantID, collectorID string, now time.Time) CaseAssigned {
	return CaseAssigned{
		BaseEvent:   events.NewBaseEvent("collections.case.assigned", caseID, AggregateCollectionCase, tenantID, now),
		CollectorID: collectorID,
	}
}

// ActionRecorded is raised for every collection action appended to a case.
type ActionRecorded struct {
	events.BaseEvent
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
	Outcome    string `json:"outcome"`
	PromiseID  string `json:"promise_id,omitempty"`
}

func NewActionRecorded(caseID, tenantID, actionID, actionType, outcome, promiseID string, now time.Time) ActionRecorded {
	return ActionRecorded{
		BaseEvent:  events.NewBaseEvent("collections.case.action_recorded", caseID, AggregateCollectionCase, tenantID, now),
		ActionID:   actionID,
		ActionType: actionType,
		Outcome:    outcome,
		PromiseID:  promiseID,
	}
}

// RecoveryRecorded is raised when money is recovered against a case. The loan
// ledger consumes it as a recovery posting.
type RecoveryRecorded struct {
	events.BaseEvent
	LoanID          string          `json:"loan_id"`
	Amount          decimal.Decimal `json:"amount"`
	AmountRecovered decimal.Decimal `json:"amount_recovered"`
	AmountOverdue   decimal.Decimal `json:"amount_overdue"`
}

func NewRecoveryRecorded(
	caseID, tenantID, loanID string,
	amount, recovered, overdue decimal.Decimal, now time.Time,
) RecoveryRecorded {
	return RecoveryRecorded{
		BaseEvent:       events.NewBaseEvent("collections.case.recovery_recorded", caseID, AggregateCollectionCase, tenantID, now),
		LoanID:          loanID,
		Amount:          amount,
		AmountRecovered: recovered,
		AmountOverdue:   overdue,
	}
}

// CaseRecovered signals that the overdue amount has been fully recovered.
type CaseRecovered struct {
	events.BaseEvent
	AmountRecovered decimal.Decimal `json:"amount_recovered"`
}

func NewCaseRecovered(caseID, tenantID string, recovered decimal.Decimal, now time.Time) CaseRecovered {
	return CaseRecovered{
		BaseEvent:       events.NewBaseEvent("collections.case.recovered", caseID, AggregateCollectionCase, tenantID, now),
		AmountRecovered: recovered,
	}
}

// CaseEscalated is raised when a case is flagged for legal action.
type CaseEscalated struct {
	events.BaseEvent
	Reason string `json:"reason"`
}

func NewCaseEscalated(caseID, tenantID, reason string, now time.Time) CaseEscalated {
	return CaseEscalated{
		BaseEvent: events.NewBaseEvent("collections.case.escalated", caseID, AggregateCollectionCase, tenantID, now),
		Reason:    reason,
	}
}

// CaseStatusChanged records a case status move, for example OPEN to ASSIGNED
// or the terminal settled and written-off transitions.
type CaseStatusChanged struct {
	events.BaseEvent
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

func NewCaseStatusChanged(caseID, tenantID, from, to, reason string, now time.Time) CaseStatusChanged {
	return CaseStatusChanged{
		BaseEvent: events.NewBaseEvent("collections.case.status_changed", caseID, AggregateCollectionCase, tenantID, now),
		From:      from,
		To:        to,
		Reason:    reason,
	}
}

// ArrearsUpdated is raised when the ledger reports a new arrears position.
type ArrearsUpdated struct {
	events.BaseEvent
	DaysPastDue    int             `json:"days_past_due"`
	AmountOverdue  decimal.Decimal `json:"amount_overdue"`
	Priority       string          `json:"priority"`
	Classification string          `json:"classification"`
}

func NewArrearsUpdated(
	caseID, tenantID string, days int, overdue decimal.Decimal,
	priority, classification string, now time.Time,
) ArrearsUpdated {
	return ArrearsUpdated{
		BaseEvent:      events.NewBaseEvent("collections.case.arrears_updated", caseID, AggregateCollectionCase, tenantID, now),
		DaysPastDue:    days,
		AmountOverdue:  overdue,
		Priority:       priority,
		Classification: classification,
	}
}

// ---------------------------------------------------------------------------
// Promise To Pay events (aggregate: the owning case)
// ---------------------------------------------------------------------------

// PromiseChanged reports any promise-to-pay transition.
type PromiseChanged struct {
	events.BaseEvent
	PromiseID   string          `json:"promise_id"`
	Status      string          `json:"status"`
	PaymentDate time.Time       `json:"payment_date"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Reason      string          `json:"reason,omitempty"`
}

func NewPromiseChanged(
	caseID, tenantID, promiseID, eventType, status string,
	paymentDate time.Time, amountPaid decimal.Decimal, reason string, now time.Time,
) PromiseChanged {
	return PromiseChanged{
		BaseEvent:   events.NewBaseEvent("collections.promise."+eventType, caseID, AggregateCollectionCase, tenantID, now),
		PromiseID:   promiseID,
		Status:      status,
		PaymentDate: paymentDate,
		AmountPaid:  amountPaid,
		Reason:      reason,
	}
}

// ---------------------------------------------------------------------------
// Strategy events
// ---------------------------------------------------------------------------

// StrategyChanged is raised when a strategy is created or reconfigured.
type StrategyChanged struct {
	events.BaseEvent
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

func NewStrategyChanged(strategyID, tenantID, eventType, code string, active bool, now time.Time) StrategyChanged {
	return StrategyChanged{
		BaseEvent: events.NewBaseEvent("collections.strategy."+eventType, strategyID, AggregateStrategy, tenantID, now),
		Code:      code,
		Active:    active,
	}
}

// ---------------------------------------------------------------------------
// Debt Settlement events
// ---------------------------------------------------------------------------

// SettlementProposed is raised when a settlement offer is created.
type SettlementProposed struct {
	events.BaseEvent
	CaseID              string          `json:"case_id"`
	SettlementType      string          `json:"settlement_type"`
	OriginalOutstanding decimal.Decimal `json:"original_outstanding"`
	SettlementAmount    decimal.Decimal `json:"settlement_amount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
}

func NewSettlementProposed(
	settlementID, tenantID, caseID, settlementType string,
	original, amount, discount decimal.Decimal, now time.Time,
) SettlementProposed {
	return SettlementProposed{
		BaseEvent:           events.NewBaseEvent("collections.settlement.proposed", settlementID, AggregateSettlement, tenantID, now),
		CaseID:              caseID,
		SettlementType:      settlementType,
		OriginalOutstanding: original,
		SettlementAmount:    amount,
		DiscountAmount:      discount,
	}
}

// SettlementStatusChanged reports every settlement transition after creation.
type SettlementStatusChanged struct {
	events.BaseEvent
	CaseID           string          `json:"case_id"`
	From             string          `json:"from"`
	To               string          `json:"to"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Reason           string          `json:"reason,omitempty"`
}

func NewSettlementStatusChanged(
	settlementID, tenantID, caseID, from, to string,
	paid, remaining decimal.Decimal, reason string, now time.Time,
) SettlementStatusChanged {
	return SettlementStatusChanged{
		BaseEvent:        events.NewBaseEvent("collections.settlement.status_changed", settlementID, AggregateSettlement, tenantID, now),
		CaseID:           caseID,
		From:             from,
		To:               to,
		AmountPaid:       paid,
		RemainingBalance: remaining,
		Reason:           reason,
	}
}

// SettlementPaymentRecorded is raised for every payment against a settlement.
type SettlementPaymentRecorded struct {
	events.BaseEvent
	LoanID           string          `json:"loan_id"`
	Amount           decimal.Decimal `json:"amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

func NewSettlementPaymentRecorded(
	settlementID, tenantID, loanID string, amount, remaining decimal.Decimal, now time.Time,
) SettlementPaymentRecorded {
	return SettlementPaymentRecorded{
		BaseEvent:        events.NewBaseEvent("collections.settlement.payment_recorded", settlementID, AggregateSettlement, tenantID, now),
		LoanID:           loanID,
		Amount:           amount,
		RemainingBalance: remaining,
	}
}

// ---------------------------------------------------------------------------
// Legal Action events
// ---------------------------------------------------------------------------

// LegalActionChanged reports legal workflow transitions and ledger entries.
type LegalActionChanged struct {
	events.BaseEvent
	CaseID          string          `json:"case_id"`
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	LegalCosts      decimal.Decimal `json:"legal_costs"`
	AmountRecovered decimal.Decimal `json:"amount_recovered"`
}

func NewLegalActionChanged(
	legalID, tenantID, eventType, caseID, status string,
	amount, costs, recovered decimal.Decimal, now time.Time,
) LegalActionChanged {
	return LegalActionChanged{
		BaseEvent:       events.NewBaseEvent("collections.legal."+eventType, legalID, AggregateLegalAction, tenantID, now),
		CaseID:          caseID,
		Status:          status,
		Amount:          amount,
		LegalCosts:      costs,
		AmountRecovered: recovered,
	}
}

// ---------------------------------------------------------------------------
// Loan Write-Off events
// ---------------------------------------------------------------------------

// WriteOffChanged reports write-off transitions.
type WriteOffChanged struct {
	events.BaseEvent
	LoanID          string          `json:"loan_id"`
	Status          string          `json:"status"`
	TotalWriteOff   decimal.Decimal `json:"total_write_off"`
	RecoveredAmount decimal.Decimal `json:"recovered_amount"`
}

func NewWriteOffChanged(
	writeOffID, tenantID, eventType, loanID, status string,
	total, recovered decimal.Decimal, now time.Time,
) WriteOffChanged {
	return WriteOffChanged{
		BaseEvent:       events.NewBaseEvent("collections.write_off."+eventType, writeOffID, AggregateWriteOff, tenantID, now),
		LoanID:          loanID,
		Status:          status,
		TotalWriteOff:   total,
		RecoveredAmount: recovered,
	}
}
