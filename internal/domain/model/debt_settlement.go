package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const entitySettlement = "debt settlement"

var hundred = decimal.NewFromInt(100)

// ---------------------------------------------------------------------------
// DebtSettlement aggregate root
// ---------------------------------------------------------------------------

// DebtSettlement is a negotiated agreement to accept less than the full
// outstanding balance.
type DebtSettlement struct {
	id                   string
	tenantID             string
	referenceNumber      string
	caseID               string
	loanID               string
	memberID             string
	settlementType       valueobject.SettlementType
	status               valueobject.SettlementStatus
	originalOutstanding  decimal.Decimal
	settlementAmount     decimal.Decimal
	discountAmount       decimal.Decimal
	discountPercentage   decimal.Decimal
	amountPaid           decimal.Decimal
	remainingBalance     decimal.Decimal
	numberOfInstallments int
	installmentAmount    decimal.Decimal
	proposedDate         time.Time
	approvedDate         time.Time
	dueDate              time.Time
	completedDate        time.Time
	terms                string
	justification        string
	proposedBy           string
	approvedBy           string
	notes                string
	version              int
	createdAt            time.Time
	updatedAt            time.Time
	domainEvents         []event.DomainEvent
}

// SettlementProposal carries the negotiated figures for a new settlement.
type SettlementProposal struct {
	TenantID            string
	ReferenceNumber     string
	CaseID              string
	LoanID              string
	MemberID            string
	OriginalOutstanding decimal.Decimal
	SettlementAmount    decimal.Decimal
	DueDate             time.Time
	Terms               string
	ProposedBy          string
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLumpSumSettlement proposes a settlement paid in a single amount.
func NewLumpSumSettlement(p SettlementProposal, now time.Time) (DebtSettlement, error) {
	return NewDebtSettlement(valueobject.SettlementTypeLumpSum, p, 0, now)
}

// NewInstallmentSettlement proposes a settlement paid over installments.
// The installment amount is fixed at creation.
func NewInstallmentSettlement(p SettlementProposal, installments int, now time.Time) (DebtSettlement, error) {
	return NewDebtSettlement(valueobject.SettlementTypeInstallment, p, installments, now)
}

// NewDebtSettlement proposes a settlement of the given type. installments is
// only read for INSTALLMENT settlements.
func NewDebtSettlement(
	settlementType valueobject.SettlementType,
	p SettlementProposal,
	installments int,
	now time.Time,
) (DebtSettlement, error) {
	ref := strings.TrimSpace(p.ReferenceNumber)
	switch {
	case settlementType.IsZero():
		return DebtSettlement{}, valueobject.NewValidation("settlement_type", "is required")
	case p.TenantID == "":
		return DebtSettlement{}, valueobject.NewValidation("tenant_id", "is required")
	case ref == "":
		return DebtSettlement{}, valueobject.NewValidation("reference_number", "is required")
	case p.CaseID == "":
		return DebtSettlement{}, valueobject.NewValidation("case_id", "is required")
	case p.LoanID == "":
		return DebtSettlement{}, valueobject.NewValidation("loan_id", "is required")
	case !p.OriginalOutstanding.IsPositive():
		return DebtSettlement{}, valueobject.NewValidation("original_outstanding", "must be positive")
	case !p.SettlementAmount.IsPositive():
		return DebtSettlement{}, valueobject.NewValidation("settlement_amount", "must be positive")
	case p.SettlementAmount.GreaterThan(p.OriginalOutstanding):
		return DebtSettlement{}, valueobject.NewValidation("settlement_amount", "must not exceed the original outstanding")
	case p.DueDate.IsZero():
		return DebtSettlement{}, valueobject.NewValidation("due_date", "is required")
	}

	discount := p.OriginalOutstanding.Sub(p.SettlementAmount)
	s := DebtSettlement{
		id:                  uuid.New().String(),
		tenantID:            p.TenantID,
		referenceNumber:     ref,
		caseID:              p.CaseID,
		loanID:              p.LoanID,
		memberID:            p.MemberID,
		settlementType:      settlementType,
		status:              valueobject.SettlementStatusProposed,
		originalOutstanding: p.OriginalOutstanding,
		settlementAmount:    p.SettlementAmount,
		discountAmount:      discount,
		discountPercentage:  discount.Div(p.OriginalOutstanding).Mul(hundred).Round(2),
		amountPaid:          decimal.Zero,
		remainingBalance:    p.SettlementAmount,
		proposedDate:        DateOf(now),
		dueDate:             DateOf(p.DueDate),
		terms:               strings.TrimSpace(p.Terms),
		proposedBy:          p.ProposedBy,
		createdAt:           now,
		updatedAt:           now,
	}

	if settlementType == valueobject.SettlementTypeInstallment {
		if installments <= 0 {
			return DebtSettlement{}, valueobject.NewValidation("number_of_installments", "must be positive")
		}
		s.numberOfInstallments = installments
		s.installmentAmount = p.SettlementAmount.Div(decimal.NewFromInt(int64(installments))).Round(2)
	}

	s.domainEvents = append(s.domainEvents, event.NewSettlementProposed(
		s.id, s.tenantID, s.caseID, settlementType.String(),
		s.originalOutstanding, s.settlementAmount, s.discountAmount, now,
	))
	return s, nil
}

// DebtSettlementState is the persisted form of a settlement.
type DebtSettlementState struct {
	ID                   string
	TenantID             string
	ReferenceNumber      string
	CaseID               string
	LoanID               string
	MemberID             string
	SettlementType       valueobject.SettlementType
	Status               valueobject.SettlementStatus
	OriginalOutstanding  decimal.Decimal
	SettlementAmount     decimal.Decimal
	DiscountAmount       decimal.Decimal
	DiscountPercentage   decimal.Decimal
	AmountPaid           decimal.Decimal
	RemainingBalance     decimal.Decimal
	NumberOfInstallments int
	InstallmentAmount    decimal.Decimal
	ProposedDate         time.Time
	ApprovedDate         time.Time
	DueDate              time.Time
	CompletedDate        time.Time
	Terms                string
	Justification        string
	ProposedBy           string
	ApprovedBy           string
	Notes                string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ReconstructDebtSettlement rebuilds a settlement from persistence.
func ReconstructDebtSettlement(s DebtSettlementState) DebtSettlement {
	return DebtSettlement{
		id:                   s.ID,
		tenantID:             s.TenantID,
		referenceNumber:      s.ReferenceNumber,
		caseID:               s.CaseID,
		loanID:               s.LoanID,
		memberID:             s.MemberID,
		settlementType:       s.SettlementType,
		status:               s.Status,
		originalOutstanding:  s.OriginalOutstanding,
		settlementAmount:     s.SettlementAmount,
		discountAmount:       s.DiscountAmount,
		discountPercentage:   s.DiscountPercentage,
		amountPaid:           s.AmountPaid,
		remainingBalance:     s.RemainingBalance,
		numberOfInstallments: s.NumberOfInstallments,
		installmentAmount:    s.InstallmentAmount,
		proposedDate:         s.ProposedDate,
		approvedDate:         s.ApprovedDate,
		dueDate:              s.DueDate,
		completedDate:        s.CompletedDate,
		terms:                s.Terms,
		justification:        s.Justification,
		proposedBy:           s.ProposedBy,
		approvedBy:           s.ApprovedBy,
		notes:                s.Notes,
		version:              s.Version,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

func (s DebtSettlement) transition(to valueobject.SettlementStatus, reason string, now time.Time) DebtSettlement {
	next := s
	next.status = to
	next.updatedAt = now
	next.domainEvents = copyEvents(s.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewSettlementStatusChanged(
		s.id, s.tenantID, s.caseID, s.status.String(), to.String(),
		next.amountPaid, next.remainingBalance, reason, now,
	))
	return next
}

func (s DebtSettlement) requireStatus(op string, allowed ...valueobject.SettlementStatus) error {
	for _, a := range allowed {
		if s.status == a {
			return nil
		}
	}
	return valueobject.NewStateConflict(entitySettlement, op, s.status.String())
}

// SubmitForApproval moves PROPOSED -> PENDING_APPROVAL.
func (s DebtSettlement) SubmitForApproval(justification string, now time.Time) (DebtSettlement, error) {
	if err := s.requireStatus("submit", valueobject.SettlementStatusProposed); err != nil {
		return s, err
	}
	next := s.transition(valueobject.SettlementStatusPendingApproval, "", now)
	next.justification = strings.TrimSpace(justification)
	return next, nil
}

// Approve moves PENDING_APPROVAL -> APPROVED.
func (s DebtSettlement) Approve(approvedBy string, now time.Time) (DebtSettlement, error) {
	if err := s.requireStatus("approve", valueobject.SettlementStatusPendingApproval); err != nil {
		return s, err
	}
	if approvedBy == "" {
		return s, valueobject.NewValidation("approved_by", "is required")
	}
	next := s.transition(valueobject.SettlementStatusApproved, "", now)
	next.approvedBy = approvedBy
	next.approvedDate = DateOf(now)
	return next, nil
}

// Reject moves PENDING_APPROVAL -> REJECTED.
func (s DebtSettlement) Reject(reason string, now time.Time) (DebtSettlement, error) {
	if err := s.requireStatus("reject", valueobject.SettlementStatusPendingApproval); err != nil {
		return s, err
	}
	reason = strings.TrimSpace(reason)
	next := s.transition(valueobject.SettlementStatusRejected, reason, now)
	next.notes = "Rejected: " + reason
	return next, nil
}

// RecordAcceptance records that the borrower accepted the approved terms.
func (s DebtSettlement) RecordAcceptance(now time.Time) (DebtSettlement, error) {
	if err := s.requireStatus("accept", valueobject.SettlementStatusApproved); err != nil {
		return s, err
	}
	return s.transition(valueobject.SettlementStatusAccepted, "", now), nil
}

// RecordPayment applies a payment. The first payment moves the settlement
// IN_PROGRESS; it COMPLETES when the remaining balance reaches zero.
func (s DebtSettlement) RecordPayment(amount decimal.Decimal, now time.Time) (DebtSettlement, error) {
	if err := s.requireStatus("record payment on",
		valueobject.SettlementStatusAccepted, valueobject.SettlementStatusInProgress); err != nil {
		return s, err
	}
	if !amount.IsPositive() {
		return s, valueobject.NewValidation("amount", "must be positive")
	}
	if !s.remainingBalance.IsPositive() {
		return s, valueobject.NewInvariantViolation(entitySettlement, "has no remaining balance")
	}

	next := s
	next.amountPaid = s.amountPaid.Add(amount)
	next.remainingBalance = floorZero(s.settlementAmount.Sub(next.amountPaid))
	next.updatedAt = now
	next.domainEvents = copyEvents(s.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewSettlementPaymentRecorded(
		s.id, s.tenantID, s.loanID, amount, next.remainingBalance, now,
	))

	switch {
	case next.remainingBalance.IsZero():
		next = next.transition(valueobject.SettlementStatusCompleted, "", now)
		next.completedDate = DateOf(now)
	case s.status != valueobject.SettlementStatusInProgress:
		next = next.transition(valueobject.SettlementStatusInProgress, "", now)
	}
	return next, nil
}

// MarkAsDefaulted records that the borrower stopped paying.
func (s DebtSettlement) MarkAsDefaulted(reason string, now time.Time) (DebtSettlement, error) {
	if err := s.requireStatus("default",
		valueobject.SettlementStatusAccepted, valueobject.SettlementStatusInProgress); err != nil {
		return s, err
	}
	reason = strings.TrimSpace(reason)
	next := s.transition(valueobject.SettlementStatusDefaulted, reason, now)
	next.notes = "Defaulted: " + reason
	return next, nil
}

// Cancel withdraws the settlement from any status except COMPLETED.
func (s DebtSettlement) Cancel(reason string, now time.Time) (DebtSettlement, error) {
	if s.status == valueobject.SettlementStatusCompleted || s.status == valueobject.SettlementStatusCancelled {
		return s, valueobject.NewStateConflict(entitySettlement, "cancel", s.status.String())
	}
	reason = strings.TrimSpace(reason)
	next := s.transition(valueobject.SettlementStatusCancelled, reason, now)
	next.notes = "Cancelled: " + reason
	return next, nil
}

// IsCompleted reports whether the settlement has been paid in full.
func (s DebtSettlement) IsCompleted() bool { return s.status == valueobject.SettlementStatusCompleted }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (s DebtSettlement) ID() string                                 { return s.id }
func (s DebtSettlement) TenantID() string                           { return s.tenantID }
func (s DebtSettlement) ReferenceNumber() string                    { return s.referenceNumber }
func (s DebtSettlement) CaseID() string                             { return s.caseID }
func (s DebtSettlement) LoanID() string                             { return s.loanID }
func (s DebtSettlement) MemberID() string                           { return s.memberID }
func (s DebtSettlement) SettlementType() valueobject.SettlementType { return s.settlementType }
func (s DebtSettlement) Status() valueobject.SettlementStatus       { return s.status }
func (s DebtSettlement) OriginalOutstanding() decimal.Decimal       { return s.originalOutstanding }
func (s DebtSettlement) SettlementAmount() decimal.Decimal          { return s.settlementAmount }
func (s DebtSettlement) DiscountAmount() decimal.Decimal            { return s.discountAmount }
func (s DebtSettlement) DiscountPercentage() decimal.Decimal        { return s.discountPercentage }
func (s DebtSettlement) AmountPaid() decimal.Decimal                { return s.amountPaid }
func (s DebtSettlement) RemainingBalance() decimal.Decimal          { return s.remainingBalance }
func (s DebtSettlement) NumberOfInstallments() int                  { return s.numberOfInstallments }
func (s DebtSettlement) InstallmentAmount() decimal.Decimal         { return s.installmentAmount }
func (s DebtSettlement) ProposedDate() time.Time                    { return s.proposedDate }
func (s DebtSettlement) ApprovedDate() time.Time                    { return s.approvedDate }
func (s DebtSettlement) DueDate() time.Time                         { return s.dueDate }
func (s DebtSettlement) CompletedDate() time.Time                   { return s.completedDate }
func (s DebtSettlement) Terms() string                              { return s.terms }
func (s DebtSettlement) Justification() string                      { return s.justification }
func (s DebtSettlement) ProposedBy() string                         { return s.proposedBy }
func (s DebtSettlement) ApprovedBy() string                         { return s.approvedBy }
func (s DebtSettlement) Notes() string                              { return s.notes }
func (s DebtSettlement) Version() int                               { return s.version }
func (s DebtSettlement) CreatedAt() time.Time                       { return s.createdAt }
func (s DebtSettlement) UpdatedAt() time.Time                       { return s.updatedAt }
func (s DebtSettlement) DomainEvents() []event.DomainEvent          { return s.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (s DebtSettlement) ClearEvents() DebtSettlement {
	next := s
	next.domainEvents = nil
	return next
}
