package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const entityWriteOff = "loan write-off"

// ---------------------------------------------------------------------------
// LoanWriteOff aggregate root
// ---------------------------------------------------------------------------

// LoanWriteOff removes an uncollectible balance from active receivables.
// The total is fixed when the write-off is requested and is never recomputed.
type LoanWriteOff struct {
	id                 string
	tenantID           string
	loanID             string
	caseID             string
	writeOffNumber     string
	writeOffType       valueobject.WriteOffType
	status             valueobject.WriteOffStatus
	reason             string
	principalWriteOff  decimal.Decimal
	interestWriteOff   decimal.Decimal
	penaltiesWriteOff  decimal.Decimal
	feesWriteOff       decimal.Decimal
	totalWriteOff      decimal.Decimal
	recoveredAmount    decimal.Decimal
	daysPastDue        int
	collectionAttempts int
	requestDate        time.Time
	writeOffDate       time.Time
	approvedByID       string
	approvedByName     string
	approvedAt         time.Time
	notes              string
	version            int
	createdAt          time.Time
	updatedAt          time.Time
	domainEvents       []event.DomainEvent
}

// WriteOffRequest describes the balance being written off.
type WriteOffRequest struct {
	TenantID           string
	LoanID             string
	CaseID             string
	WriteOffNumber     string
	WriteOffType       valueobject.WriteOffType
	Reason             string
	Principal          decimal.Decimal
	Interest           decimal.Decimal
	Penalties          decimal.Decimal
	Fees               decimal.Decimal
	DaysPastDue        int
	CollectionAttempts int
}

// NewLoanWriteOff drafts a write-off. CaseID is optional; when set,
// processing the write-off also closes that case.
func NewLoanWriteOff(r WriteOffRequest, now time.Time) (LoanWriteOff, error) {
	number := strings.TrimSpace(r.WriteOffNumber)
	switch {
	case r.TenantID == "":
		return LoanWriteOff{}, valueobject.NewValidation("tenant_id", "is required")
	case r.LoanID == "":
		return LoanWriteOff{}, valueobject.NewValidation("loan_id", "is required")
	case number == "":
		return LoanWriteOff{}, valueobject.NewValidation("write_off_number", "is required")
	case r.WriteOffType.IsZero():
		return LoanWriteOff{}, valueobject.NewValidation("write_off_type", "is required")
	case strings.TrimSpace(r.Reason) == "":
		return LoanWriteOff{}, valueobject.NewValidation("reason", "is required")
	case r.Principal.IsNegative(), r.Interest.IsNegative(), r.Penalties.IsNegative(), r.Fees.IsNegative():
		return LoanWriteOff{}, valueobject.NewValidation("components", "must not be negative")
	case r.DaysPastDue < 0 || r.CollectionAttempts < 0:
		return LoanWriteOff{}, valueobject.NewValidation("snapshot", "must not be negative")
	}
	total := r.Principal.Add(r.Interest).Add(r.Penalties).Add(r.Fees)
	if !total.IsPositive() {
		return LoanWriteOff{}, valueobject.NewValidation("total_write_off", "must be positive")
	}

	w := LoanWriteOff{
		id:                 uuid.New().String(),
		tenantID:           r.TenantID,
		loanID:             r.LoanID,
		caseID:             r.CaseID,
		writeOffNumber:     number,
		writeOffType:       r.WriteOffType,
		status:             valueobject.WriteOffStatusDraft,
		reason:             strings.TrimSpace(r.Reason),
		principalWriteOff:  r.Principal,
		interestWriteOff:   r.Interest,
		penaltiesWriteOff:  r.Penalties,
		feesWriteOff:       r.Fees,
		totalWriteOff:      total,
		recoveredAmount:    decimal.Zero,
		daysPastDue:        r.DaysPastDue,
		collectionAttempts: r.CollectionAttempts,
		requestDate:        DateOf(now),
		createdAt:          now,
		updatedAt:          now,
	}
	w.domainEvents = append(w.domainEvents, w.changed("requested", now))
	return w, nil
}

// LoanWriteOffState is the persisted form of a write-off.
type LoanWriteOffState struct {
	ID                 string
	TenantID           string
	LoanID             string
	CaseID             string
	WriteOffNumber     string
	WriteOffType       valueobject.WriteOffType
	Status             valueobject.WriteOffStatus
	Reason             string
	PrincipalWriteOff  decimal.Decimal
	InterestWriteOff   decimal.Decimal
	PenaltiesWriteOff  decimal.Decimal
	FeesWriteOff       decimal.Decimal
	TotalWriteOff      decimal.Decimal
	RecoveredAmount    decimal.Decimal
	DaysPastDue        int
	CollectionAttempts int
	RequestDate        time.Time
	WriteOffDate       time.Time
	ApprovedByID       string
	ApprovedByName     string
	ApprovedAt         time.Time
	Notes              string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ReconstructLoanWriteOff rebuilds a write-off from persistence. The stored
// total is taken as-is.
func ReconstructLoanWriteOff(s LoanWriteOffState) LoanWriteOff {
	return LoanWriteOff{
		id:                 s.ID,
		tenantID:           s.TenantID,
		loanID:             s.LoanID,
		caseID:             s.CaseID,
		writeOffNumber:     s.WriteOffNumber,
		writeOffType:       s.WriteOffType,
		status:             s.Status,
		reason:             s.Reason,
		principalWriteOff:  s.PrincipalWriteOff,
		interestWriteOff:   s.InterestWriteOff,
		penaltiesWriteOff:  s.PenaltiesWriteOff,
		feesWriteOff:       s.FeesWriteOff,
		totalWriteOff:      s.TotalWriteOff,
		recoveredAmount:    s.RecoveredAmount,
		daysPastDue:        s.DaysPastDue,
		collectionAttempts: s.CollectionAttempts,
		requestDate:        s.RequestDate,
		writeOffDate:       s.WriteOffDate,
		approvedByID:       s.ApprovedByID,
		approvedByName:     s.ApprovedByName,
		approvedAt:         s.ApprovedAt,
		notes:              s.Notes,
		version:            s.Version,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

func (w LoanWriteOff) changed(eventType string, now time.Time) event.DomainEvent {
	return event.NewWriteOffChanged(
		w.id, w.tenantID, eventType, w.loanID, w.status.String(),
		w.totalWriteOff, w.recoveredAmount, now,
	)
}

func (w LoanWriteOff) moveTo(to valueobject.WriteOffStatus, eventType string, now time.Time) LoanWriteOff {
	next := w
	next.status = to
	next.updatedAt = now
	next.domainEvents = copyEvents(w.domainEvents)
	next.domainEvents = append(next.domainEvents, next.changed(eventType, now))
	return next
}

func (w LoanWriteOff) requireStatus(op string, allowed ...valueobject.WriteOffStatus) error {
	for _, a := range allowed {
		if w.status == a {
			return nil
		}
	}
	return valueobject.NewStateConflict(entityWriteOff, op, w.status.String())
}

// SubmitForApproval moves DRAFT -> PENDING_APPROVAL.
func (w LoanWriteOff) SubmitForApproval(now time.Time) (LoanWriteOff, error) {
	if err := w.requireStatus("submit", valueobject.WriteOffStatusDraft); err != nil {
		return w, err
	}
	return w.moveTo(valueobject.WriteOffStatusPendingApproval, "submitted", now), nil
}

// Approve moves PENDING_APPROVAL -> APPROVED and fixes the write-off date.
func (w LoanWriteOff) Approve(approverID, approverName string, writeOffDate, now time.Time) (LoanWriteOff, error) {
	if err := w.requireStatus("approve", valueobject.WriteOffStatusPendingApproval); err != nil {
		return w, err
	}
	if approverID == "" {
		return w, valueobject.NewValidation("approver_id", "is required")
	}
	if writeOffDate.IsZero() {
		writeOffDate = now
	}
	next := w
	next.approvedByID = approverID
	next.approvedByName = strings.TrimSpace(approverName)
	next.approvedAt = now
	next.writeOffDate = DateOf(writeOffDate)
	return next.moveTo(valueobject.WriteOffStatusApproved, "approved", now), nil
}

// Reject moves PENDING_APPROVAL -> REJECTED.
func (w LoanWriteOff) Reject(reviewerID, reason string, now time.Time) (LoanWriteOff, error) {
	if err := w.requireStatus("reject", valueobject.WriteOffStatusPendingApproval); err != nil {
		return w, err
	}
	if reviewerID == "" {
		return w, valueobject.NewValidation("reviewer_id", "is required")
	}
	next := w
	next.approvedByID = reviewerID
	next.approvedAt = now
	next.notes = strings.TrimSpace(reason)
	return next.moveTo(valueobject.WriteOffStatusRejected, "rejected", now), nil
}

// Process books the write-off. From here on it cannot be cancelled.
func (w LoanWriteOff) Process(now time.Time) (LoanWriteOff, error) {
	if err := w.requireStatus("process", valueobject.WriteOffStatusApproved); err != nil {
		return w, err
	}
	return w.moveTo(valueobject.WriteOffStatusProcessed, "processed", now), nil
}

// RecordRecovery books money clawed back after the write-off. Recoveries
// cannot exceed the amount written off.
func (w LoanWriteOff) RecordRecovery(amount decimal.Decimal, now time.Time) (LoanWriteOff, error) {
	if err := w.requireStatus("record recovery on",
		valueobject.WriteOffStatusProcessed, valueobject.WriteOffStatusRecovered); err != nil {
		return w, err
	}
	if !amount.IsPositive() {
		return w, valueobject.NewValidation("amount", "must be positive")
	}
	total := w.recoveredAmount.Add(amount)
	if total.GreaterThan(w.totalWriteOff) {
		return w, valueobject.NewInvariantViolation(entityWriteOff, "recoveries would exceed the amount written off")
	}
	next := w
	next.recoveredAmount = total
	return next.moveTo(valueobject.WriteOffStatusRecovered, "recovery_recorded", now), nil
}

// Cancel abandons a write-off that has not been processed yet.
func (w LoanWriteOff) Cancel(reason string, now time.Time) (LoanWriteOff, error) {
	if err := w.requireStatus("cancel",
		valueobject.WriteOffStatusDraft,
		valueobject.WriteOffStatusPendingApproval,
		valueobject.WriteOffStatusApproved); err != nil {
		return w, err
	}
	next := w
	next.notes = joinNote(w.notes, "Cancelled: "+strings.TrimSpace(reason))
	return next.moveTo(valueobject.WriteOffStatusCancelled, "cancelled", now), nil
}

// NetLoss is the amount written off less what has been recovered since.
func (w LoanWriteOff) NetLoss() decimal.Decimal { return w.totalWriteOff.Sub(w.recoveredAmount) }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (w LoanWriteOff) ID() string                             { return w.id }
func (w LoanWriteOff) TenantID() string                       { return w.tenantID }
func (w LoanWriteOff) LoanID() string                         { return w.loanID }
func (w LoanWriteOff) CaseID() string                         { return w.caseID }
func (w LoanWriteOff) WriteOffNumber() string                 { return w.writeOffNumber }
func (w LoanWriteOff) WriteOffType() valueobject.WriteOffType { return w.writeOffType }
func (w LoanWriteOff) Status() valueobject.WriteOffStatus     { return w.status }
func (w LoanWriteOff) Reason() string                         { return w.reason }
func (w LoanWriteOff) PrincipalWriteOff() decimal.Decimal     { return w.principalWriteOff }
func (w LoanWriteOff) InterestWriteOff() decimal.Decimal      { return w.interestWriteOff }
func (w LoanWriteOff) PenaltiesWriteOff() decimal.Decimal     { return w.penaltiesWriteOff }
func (w LoanWriteOff) FeesWriteOff() decimal.Decimal          { return w.feesWriteOff }
func (w LoanWriteOff) TotalWriteOff() decimal.Decimal         { return w.totalWriteOff }
func (w LoanWriteOff) RecoveredAmount() decimal.Decimal       { return w.recoveredAmount }
func (w LoanWriteOff) DaysPastDue() int                       { return w.daysPastDue }
func (w LoanWriteOff) CollectionAttempts() int                { return w.collectionAttempts }
func (w LoanWriteOff) RequestDate() time.Time                 { return w.requestDate }
func (w LoanWriteOff) WriteOffDate() time.Time                { return w.writeOffDate }
func (w LoanWriteOff) ApprovedByID() string                   { return w.approvedByID }
func (w LoanWriteOff) ApprovedByName() string                 { return w.approvedByName }
func (w LoanWriteOff) ApprovedAt() time.Time                  { return w.approvedAt }
func (w LoanWriteOff) Notes() string                          { return w.notes }
func (w LoanWriteOff) Version() int                           { return w.version }
func (w LoanWriteOff) CreatedAt() time.Time                   { return w.createdAt }
func (w LoanWriteOff) UpdatedAt() time.Time                   { return w.updatedAt }
func (w LoanWriteOff) DomainEvents() []event.DomainEvent      { return w.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (w LoanWriteOff) ClearEvents() LoanWriteOff {
	next := w
	next.domainEvents = nil
	return next
}
