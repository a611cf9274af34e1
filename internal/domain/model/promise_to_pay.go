package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const entityPromise = "promise to pay"

// ---------------------------------------------------------------------------
// PromiseToPay entity (child of CollectionCase)
// ---------------------------------------------------------------------------

// PromiseToPay is a borrower's commitment to pay a specific amount by a
// specific date. Promises are only mutated through their owning case.
type PromiseToPay struct {
	id                string
	caseID            string
	loanID            string
	memberID          string
	tenantID          string
	actionID          string
	promiseDate       time.Time
	paymentDate       time.Time
	promisedAmount    decimal.Decimal
	amountPaid        decimal.Decimal
	actualPaymentDate time.Time
	status            valueobject.PromiseStatus
	paymentMethod     string
	breachReason      string
	rescheduleCount   int
	recordedBy        string
	notes             string
	createdAt         time.Time
	updatedAt         time.Time
}

// PromiseTerms is what the borrower committed to during an action.
type PromiseTerms struct {
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod string
	Notes         string
}

// NewPromiseToPay creates a PENDING promise made on promiseDate to pay
// amount on or before paymentDate.
func NewPromiseToPay(
	caseID, loanID, memberID, tenantID, actionID string,
	promiseDate time.Time,
	terms PromiseTerms,
	recordedBy string,
	now time.Time,
) (PromiseToPay, error) {
	if caseID == "" {
		return PromiseToPay{}, valueobject.NewValidation("case_id", "is required")
	}
	if terms.Amount.LessThanOrEqual(decimal.Zero) {
		return PromiseToPay{}, valueobject.NewValidation("promised_amount", "must be positive")
	}
	if terms.PaymentDate.IsZero() {
		return PromiseToPay{}, valueobject.NewValidation("payment_date", "is required")
	}
	promiseDate = DateOf(promiseDate)
	paymentDate := DateOf(terms.PaymentDate)
	if paymentDate.Before(promiseDate) {
		return PromiseToPay{}, valueobject.NewValidation("payment_date", "must not precede the promise date")
	}
	return PromiseToPay{
		id:             uuid.New().String(),
		caseID:         caseID,
		loanID:         loanID,
		memberID:       memberID,
		tenantID:       tenantID,
		actionID:       actionID,
		promiseDate:    promiseDate,
		paymentDate:    paymentDate,
		promisedAmount: terms.Amount,
		amountPaid:     decimal.Zero,
		status:         valueobject.PromiseStatusPending,
		paymentMethod:  strings.TrimSpace(terms.PaymentMethod),
		recordedBy:     recordedBy,
		notes:          strings.TrimSpace(terms.Notes),
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// PromiseToPayState is the persisted form of a promise.
type PromiseToPayState struct {
	ID                string
	CaseID            string
	LoanID            string
	MemberID          string
	TenantID          string
	ActionID          string
	PromiseDate       time.Time
	PaymentDate       time.Time
	PromisedAmount    decimal.Decimal
	AmountPaid        decimal.Decimal
	ActualPaymentDate time.Time
	Status            valueobject.PromiseStatus
	PaymentMethod     string
	BreachReason      string
	RescheduleCount   int
	RecordedBy        string
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconstructPromiseToPay rebuilds a promise from persistence.
func ReconstructPromiseToPay(s PromiseToPayState) PromiseToPay {
	return PromiseToPay{
		id:                s.ID,
		caseID:            s.CaseID,
		loanID:            s.LoanID,
		memberID:          s.MemberID,
		tenantID:          s.TenantID,
		actionID:          s.ActionID,
		promiseDate:       s.PromiseDate,
		paymentDate:       s.PaymentDate,
		promisedAmount:    s.PromisedAmount,
		amountPaid:        s.AmountPaid,
		actualPaymentDate: s.ActualPaymentDate,
		status:            s.Status,
		paymentMethod:     s.PaymentMethod,
		breachReason:      s.BreachReason,
		rescheduleCount:   s.RescheduleCount,
		recordedBy:        s.RecordedBy,
		notes:             s.Notes,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// RecordPayment adds a payment. The promise becomes KEPT once the cumulative
// amount reaches the promised amount, PARTIAL otherwise. Paying more than
// was promised is rejected; the excess belongs on a new promise.
func (p PromiseToPay) RecordPayment(amount decimal.Decimal, paidOn, now time.Time) (PromiseToPay, error) {
	switch p.status {
	case valueobject.PromiseStatusPending, valueobject.PromiseStatusRescheduled,
		valueobject.PromiseStatusPartial, valueobject.PromiseStatusBroken:
	default:
		return p, valueobject.NewStateConflict(entityPromise, "record payment on", p.status.String())
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return p, valueobject.NewValidation("amount", "must be positive")
	}
	total := p.amountPaid.Add(amount)
	if total.GreaterThan(p.promisedAmount) {
		return p, valueobject.NewInvariantViolation(entityPromise, "payment would exceed the promised amount")
	}
	if paidOn.IsZero() {
		paidOn = now
	}

	next := p
	next.amountPaid = total
	next.actualPaymentDate = DateOf(paidOn)
	next.updatedAt = now
	if total.GreaterThanOrEqual(p.promisedAmount) {
		next.status = valueobject.PromiseStatusKept
	} else {
		next.status = valueobject.PromiseStatusPartial
	}
	return next, nil
}

// MarkAsBroken records that the borrower missed the promised date.
func (p PromiseToPay) MarkAsBroken(reason string, now time.Time) (PromiseToPay, error) {
	if !p.status.IsAwaiting() {
		return p, valueobject.NewStateConflict(entityPromise, "break", p.status.String())
	}
	next := p
	next.status = valueobject.PromiseStatusBroken
	next.breachReason = strings.TrimSpace(reason)
	next.updatedAt = now
	return next, nil
}

// Reschedule moves the payment date of a pending or broken promise. A
// rescheduled promise has to be broken before it can move again. The
// reschedule counter only grows.
func (p PromiseToPay) Reschedule(newDate time.Time, reason string, now time.Time) (PromiseToPay, error) {
	switch p.status {
	case valueobject.PromiseStatusPending, valueobject.PromiseStatusBroken:
	default:
		return p, valueobject.NewStateConflict(entityPromise, "reschedule", p.status.String())
	}
	if newDate.IsZero() {
		return p, valueobject.NewValidation("new_date", "is required")
	}
	newDate = DateOf(newDate)
	if newDate.Before(p.promiseDate) {
		return p, valueobject.NewValidation("new_date", "must not precede the promise date")
	}

	next := p
	next.paymentDate = newDate
	next.status = valueobject.PromiseStatusRescheduled
	next.rescheduleCount = p.rescheduleCount + 1
	if reason = strings.TrimSpace(reason); reason != "" {
		next.notes = joinNote(p.notes, "Rescheduled: "+reason)
	}
	next.updatedAt = now
	return next, nil
}

// Cancel withdraws the promise. Kept promises stay kept.
func (p PromiseToPay) Cancel(reason string, now time.Time) (PromiseToPay, error) {
	if p.status == valueobject.PromiseStatusKept || p.status == valueobject.PromiseStatusCancelled {
		return p, valueobject.NewStateConflict(entityPromise, "cancel", p.status.String())
	}
	next := p
	next.status = valueobject.PromiseStatusCancelled
	if reason = strings.TrimSpace(reason); reason != "" {
		next.notes = joinNote(p.notes, "Cancelled: "+reason)
	}
	next.updatedAt = now
	return next, nil
}

// IsOverdue reports whether an awaiting promise has passed its payment date.
func (p PromiseToPay) IsOverdue(asOf time.Time) bool {
	return p.status.IsAwaiting() && DateOf(asOf).After(p.paymentDate)
}

// RemainingAmount is what is still owed against the promise.
func (p PromiseToPay) RemainingAmount() decimal.Decimal {
	return floorZero(p.promisedAmount.Sub(p.amountPaid))
}

func joinNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (p PromiseToPay) ID() string                        { return p.id }
func (p PromiseToPay) CaseID() string                    { return p.caseID }
func (p PromiseToPay) LoanID() string                    { return p.loanID }
func (p PromiseToPay) MemberID() string                  { return p.memberID }
func (p PromiseToPay) TenantID() string                  { return p.tenantID }
func (p PromiseToPay) ActionID() string                  { return p.actionID }
func (p PromiseToPay) PromiseDate() time.Time            { return p.promiseDate }
func (p PromiseToPay) PaymentDate() time.Time            { return p.paymentDate }
func (p PromiseToPay) PromisedAmount() decimal.Decimal   { return p.promisedAmount }
func (p PromiseToPay) AmountPaid() decimal.Decimal       { return p.amountPaid }
func (p PromiseToPay) ActualPaymentDate() time.Time      { return p.actualPaymentDate }
func (p PromiseToPay) Status() valueobject.PromiseStatus { return p.status }
func (p PromiseToPay) PaymentMethod() string             { return p.paymentMethod }
func (p PromiseToPay) BreachReason() string              { return p.breachReason }
func (p PromiseToPay) RescheduleCount() int              { return p.rescheduleCount }
func (p PromiseToPay) RecordedBy() string                { return p.recordedBy }
func (p PromiseToPay) Notes() string                     { return p.notes }
func (p PromiseToPay) CreatedAt() time.Time              { return p.createdAt }
func (p PromiseToPay) UpdatedAt() time.Time              { return p.updatedAt }
