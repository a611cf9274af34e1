package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const entityCase = "collection case"

// ---------------------------------------------------------------------------
// CollectionCase aggregate root
// ---------------------------------------------------------------------------

// CollectionCase tracks recovery work on one delinquent loan. It owns the
// actions taken on the loan and the promises the borrower made, so a single
// writer per case covers every running total.
type CollectionCase struct {
	id                  string
	tenantID            string
	caseNumber          string
	loanID              string
	memberID            string
	status              valueobject.CaseStatus
	priority            valueobject.CasePriority
	classification      valueobject.Classification
	assignedCollectorID string
	assignedDate        time.Time
	openedDate          time.Time
	closedDate          time.Time
	daysPastDueAtOpen   int
	currentDaysPastDue  int
	amountOverdue       decimal.Decimal
	totalOutstanding    decimal.Decimal
	amountRecovered     decimal.Decimal
	contactAttempts     int
	lastContactDate     time.Time
	nextFollowUpDate    time.Time
	closureReason       string
	notes               []string
	actions             []CollectionAction
	promises            []PromiseToPay
	version             int
	createdAt           time.Time
	updatedAt           time.Time
	domainEvents        []event.DomainEvent
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewCollectionCase opens a case in OPEN status with priority and
// classification derived from the arrears position.
func NewCollectionCase(
	tenantID, caseNumber, loanID, memberID string,
	daysPastDue int,
	amountOverdue, totalOutstanding decimal.Decimal,
	now time.Time,
) (CollectionCase, error) {
	caseNumber = strings.TrimSpace(caseNumber)
	if tenantID == "" {
		return CollectionCase{}, valueobject.NewValidation("tenant_id", "is required")
	}
	if caseNumber == "" {
		return CollectionCase{}, valueobject.NewValidation("case_number", "is required")
	}
	if loanID == "" {
		return CollectionCase{}, valueobject.NewValidation("loan_id", "is required")
	}
	if memberID == "" {
		return CollectionCase{}, valueobject.NewValidation("member_id", "is required")
	}
	if err := validateArrears(daysPastDue, amountOverdue, totalOutstanding); err != nil {
		return CollectionCase{}, err
	}

	id := uuid.New().String()
	c := CollectionCase{
		id:                 id,
		tenantID:           tenantID,
		caseNumber:         caseNumber,
		loanID:             loanID,
		memberID:           memberID,
		status:             valueobject.CaseStatusOpen,
		priority:           valueobject.Prioritize(daysPastDue, amountOverdue),
		classification:     valueobject.Classify(daysPastDue),
		openedDate:         DateOf(now),
		daysPastDueAtOpen:  daysPastDue,
		currentDaysPastDue: daysPastDue,
		amountOverdue:      amountOverdue,
		totalOutstanding:   totalOutstanding,
		amountRecovered:    decimal.Zero,
		createdAt:          now,
		updatedAt:          now,
	}
	c.domainEvents = append(c.domainEvents, event.NewCaseOpened(
		id, tenantID, caseNumber, loanID, memberID,
		daysPastDue, amountOverdue,
		c.priority.String(), c.classification.String(), now,
	))
	return c, nil
}

// CollectionCaseState is the persisted form of a case without its children.
type CollectionCaseState struct {
	ID                  string
	TenantID            string
	CaseNumber          string
	LoanID              string
	MemberID            string
	Status              valueobject.CaseStatus
	Priority            valueobject.CasePriority
	Classification      valueobject.Classification
	AssignedCollectorID string
	AssignedDate        time.Time
	OpenedDate          time.Time
	ClosedDate          time.Time
	DaysPastDueAtOpen   int
	CurrentDaysPastDue  int
	AmountOverdue       decimal.Decimal
	TotalOutstanding    decimal.Decimal
	AmountRecovered     decimal.Decimal
	ContactAttempts     int
	LastContactDate     time.Time
	NextFollowUpDate    time.Time
	ClosureReason       string
	Notes               []string
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReconstructCollectionCase rebuilds a case and its children from persistence.
func ReconstructCollectionCase(s CollectionCaseState, actions []CollectionAction, promises []PromiseToPay) CollectionCase {
	return CollectionCase{
		id:                  s.ID,
		tenantID:            s.TenantID,
		caseNumber:          s.CaseNumber,
		loanID:              s.LoanID,
		memberID:            s.MemberID,
		status:              s.Status,
		priority:            s.Priority,
		classification:      s.Classification,
		assignedCollectorID: s.AssignedCollectorID,
		assignedDate:        s.AssignedDate,
		openedDate:          s.OpenedDate,
		closedDate:          s.ClosedDate,
		daysPastDueAtOpen:   s.DaysPastDueAtOpen,
		currentDaysPastDue:  s.CurrentDaysPastDue,
		amountOverdue:       s.AmountOverdue,
		totalOutstanding:    s.TotalOutstanding,
		amountRecovered:     s.AmountRecovered,
		contactAttempts:     s.ContactAttempts,
		lastContactDate:     s.LastContactDate,
		nextFollowUpDate:    s.NextFollowUpDate,
		closureReason:       s.ClosureReason,
		notes:               s.Notes,
		actions:             actions,
		promises:            promises,
		version:             s.Version,
		createdAt:           s.CreatedAt,
		updatedAt:           s.UpdatedAt,
	}
}

func validateArrears(days int, overdue, outstanding decimal.Decimal) error {
	if days < 0 {
		return valueobject.NewValidation("days_past_due", "must not be negative")
	}
	if overdue.IsNegative() {
		return valueobject.NewValidation("amount_overdue", "must not be negative")
	}
	if outstanding.IsNegative() {
		return valueobject.NewValidation("total_outstanding", "must not be negative")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Case transitions
// ---------------------------------------------------------------------------

func (c CollectionCase) guardActive(op string) error {
	if c.status.IsTerminal() {
		return valueobject.NewStateConflict(entityCase, op, c.status.String())
	}
	return nil
}

// mutate returns a copy safe to change: the event slice is detached from c.
func (c CollectionCase) mutate(now time.Time) CollectionCase {
	next := c
	next.updatedAt = now
	next.domainEvents = copyEvents(c.domainEvents)
	return next
}

// moveTo changes status and reports the move when it is an actual change.
func (c *CollectionCase) moveTo(to valueobject.CaseStatus, reason string, now time.Time) {
	if c.status == to {
		return
	}
	from := c.status
	c.status = to
	c.domainEvents = append(c.domainEvents, event.NewCaseStatusChanged(
		c.id, c.tenantID, from.String(), to.String(), reason, now,
	))
}

func (c *CollectionCase) closeAs(to valueobject.CaseStatus, reason string, now time.Time) {
	c.closedDate = DateOf(now)
	c.closureReason = reason
	c.moveTo(to, reason, now)
}

// Assign hands the case to a collector. Cases being worked (OPEN, ASSIGNED,
// IN_PROGRESS) move to ASSIGNED; a case under a promise or in legal keeps its
// status and only changes hands.
func (c CollectionCase) Assign(collectorID string, followUp time.Time, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("assign"); err != nil {
		return c, err
	}
	if collectorID == "" {
		return c, valueobject.NewValidation("collector_id", "is required")
	}
	next := c.mutate(now)
	next.assignedCollectorID = collectorID
	next.assignedDate = DateOf(now)
	next.nextFollowUpDate = DateOf(followUp)
	next.domainEvents = append(next.domainEvents, event.NewCaseAssigned(c.id, c.tenantID, collectorID, now))
	switch c.status {
	case valueobject.CaseStatusOpen, valueobject.CaseStatusInProgress:
		next.moveTo(valueobject.CaseStatusAssigned, "assigned", now)
	}
	return next, nil
}

// RecordContact logs a successful contact with the borrower.
func (c CollectionCase) RecordContact(contactDate, nextFollowUp time.Time, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("record contact on"); err != nil {
		return c, err
	}
	if contactDate.IsZero() {
		contactDate = now
	}
	next := c.mutate(now)
	next.registerContact(contactDate, nextFollowUp)
	next.moveTo(valueobject.CaseStatusInProgress, "contact recorded", now)
	return next, nil
}

func (c *CollectionCase) registerContact(contactDate, nextFollowUp time.Time) {
	c.contactAttempts++
	c.lastContactDate = DateOf(contactDate)
	c.nextFollowUpDate = DateOf(nextFollowUp)
}

// RecordAction appends an action to the case. Outcomes that reached the
// borrower count as a contact. When terms are given a promise linked to the
// action is created in the same step and the case moves to PROMISE_TO_PAY.
// The new promise, if any, is returned alongside the case.
func (c CollectionCase) RecordAction(action CollectionAction, terms *PromiseTerms, now time.Time) (CollectionCase, *PromiseToPay, error) {
	if err := c.guardActive("record action on"); err != nil {
		return c, nil, err
	}
	if action.CaseID() != c.id {
		return c, nil, valueobject.NewValidation("case_id", "action belongs to another case")
	}
	if _, err := c.findAction(action.ID()); err == nil {
		return c, nil, valueobject.NewInvariantViolation(entityCase, "action already recorded")
	}

	next := c.mutate(now)
	var promise *PromiseToPay
	if terms != nil {
		p, err := NewPromiseToPay(
			c.id, c.loanID, c.memberID, c.tenantID, action.ID(),
			action.PerformedAt(), *terms, action.PerformedBy(), now,
		)
		if err != nil {
			return c, nil, err
		}
		promise = &p
		action = action.withPromise(p.ID())
		next.promises = append(append([]PromiseToPay(nil), c.promises...), p)
	}
	next.actions = append(append([]CollectionAction(nil), c.actions...), action)

	if action.Outcome().ReachedBorrower() {
		followUp := action.FollowUpDate()
		if followUp.IsZero() {
			followUp = c.nextFollowUpDate
		}
		next.registerContact(action.PerformedAt(), followUp)
	} else if !action.FollowUpDate().IsZero() {
		next.nextFollowUpDate = action.FollowUpDate()
	}

	promiseID := ""
	if promise != nil {
		promiseID = promise.ID()
	}
	next.domainEvents = append(next.domainEvents, event.NewActionRecorded(
		c.id, c.tenantID, action.ID(), action.ActionType().String(), action.Outcome().String(), promiseID, now,
	))
	if promise != nil {
		next.domainEvents = append(next.domainEvents, event.NewPromiseChanged(
			c.id, c.tenantID, promise.ID(), "created", promise.Status().String(),
			promise.PaymentDate(), promise.AmountPaid(), "", now,
		))
		next.moveTo(valueobject.CaseStatusPromiseToPay, "promise to pay recorded", now)
	} else if action.Outcome().ReachedBorrower() {
		next.moveTo(valueobject.CaseStatusInProgress, "contact recorded", now)
	}
	return next, promise, nil
}

// AddActionNote appends text to an action's notes, the only part of an
// action that changes after it is recorded.
func (c CollectionCase) AddActionNote(actionID, note string, now time.Time) (CollectionCase, error) {
	if strings.TrimSpace(note) == "" {
		return c, valueobject.NewValidation("note", "is required")
	}
	i, err := c.findAction(actionID)
	if err != nil {
		return c, err
	}
	next := c.mutate(now)
	next.actions = append([]CollectionAction(nil), c.actions...)
	next.actions[i] = c.actions[i].appendNotes(note)
	return next, nil
}

// RecordRecovery applies money recovered against the overdue amount. The
// case becomes RECOVERED once nothing is overdue.
func (c CollectionCase) RecordRecovery(amount decimal.Decimal, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("record recovery on"); err != nil {
		return c, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return c, valueobject.NewValidation("amount", "must be positive")
	}
	next := c.mutate(now)
	next.amountRecovered = c.amountRecovered.Add(amount)
	next.amountOverdue = floorZero(c.amountOverdue.Sub(amount))
	next.priority = valueobject.Prioritize(c.currentDaysPastDue, next.amountOverdue)
	next.domainEvents = append(next.domainEvents, event.NewRecoveryRecorded(
		c.id, c.tenantID, c.loanID, amount, next.amountRecovered, next.amountOverdue, now,
	))

	if next.amountOverdue.IsZero() {
		next.closeAs(valueobject.CaseStatusRecovered, "Full recovery achieved", now)
		next.domainEvents = append(next.domainEvents, event.NewCaseRecovered(c.id, c.tenantID, next.amountRecovered, now))
	}
	return next, nil
}

// EscalateToLegal flags the case for legal action. LEGAL is not terminal;
// the legal proceedings run as their own aggregate.
func (c CollectionCase) EscalateToLegal(reason string, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("escalate"); err != nil {
		return c, err
	}
	if c.status == valueobject.CaseStatusLegal {
		return c, valueobject.NewStateConflict(entityCase, "escalate", c.status.String())
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return c, valueobject.NewValidation("reason", "is required")
	}
	next := c.mutate(now)
	next.status = valueobject.CaseStatusLegal
	next.notes = appendNote(c.notes, "Escalated to legal: "+reason)
	next.domainEvents = append(next.domainEvents, event.NewCaseEscalated(c.id, c.tenantID, reason, now))
	return next, nil
}

// Settle closes the case against an agreed settlement.
func (c CollectionCase) Settle(amount decimal.Decimal, terms string, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("settle"); err != nil {
		return c, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return c, valueobject.NewValidation("settlement_amount", "must be positive")
	}
	next := c.mutate(now)
	next.closeAs(valueobject.CaseStatusSettled,
		fmt.Sprintf("Settled for %s. Terms: %s", amount.StringFixed(2), strings.TrimSpace(terms)), now)
	return next, nil
}

// Close ends the case for a reason other than recovery or settlement.
func (c CollectionCase) Close(reason string, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("close"); err != nil {
		return c, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return c, valueobject.NewValidation("reason", "is required")
	}
	next := c.mutate(now)
	next.closeAs(valueobject.CaseStatusClosed, reason, now)
	return next, nil
}

// MarkWrittenOff closes the case because the loan was written off.
func (c CollectionCase) MarkWrittenOff(writeOffNumber string, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("write off"); err != nil {
		return c, err
	}
	next := c.mutate(now)
	next.closeAs(valueobject.CaseStatusWrittenOff, "Loan written off: "+writeOffNumber, now)
	return next, nil
}

// UpdateArrears refreshes the arrears position reported by the ledger and
// recomputes priority and classification. Status is unchanged.
func (c CollectionCase) UpdateArrears(daysPastDue int, amountOverdue, totalOutstanding decimal.Decimal, now time.Time) (CollectionCase, error) {
	if err := c.guardActive("update arrears on"); err != nil {
		return c, err
	}
	if err := validateArrears(daysPastDue, amountOverdue, totalOutstanding); err != nil {
		return c, err
	}
	next := c.mutate(now)
	next.currentDaysPastDue = daysPastDue
	next.amountOverdue = amountOverdue
	next.totalOutstanding = totalOutstanding
	next.priority = valueobject.Prioritize(daysPastDue, amountOverdue)
	next.classification = valueobject.Classify(daysPastDue)
	next.domainEvents = append(next.domainEvents, event.NewArrearsUpdated(
		c.id, c.tenantID, daysPastDue, amountOverdue,
		next.priority.String(), next.classification.String(), now,
	))
	return next, nil
}

// AddNote appends a free-text note.
func (c CollectionCase) AddNote(note string, now time.Time) (CollectionCase, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return c, valueobject.NewValidation("note", "is required")
	}
	next := c.mutate(now)
	next.notes = appendNote(c.notes, note)
	return next, nil
}

// ---------------------------------------------------------------------------
// Promise transitions
// ---------------------------------------------------------------------------

// RecordPromisePayment records a payment against one of the case's promises.
func (c CollectionCase) RecordPromisePayment(promiseID string, amount decimal.Decimal, paidOn, now time.Time) (CollectionCase, error) {
	return c.changePromise(promiseID, "record promise payment on", now, func(p PromiseToPay) (PromiseToPay, string, error) {
		updated, err := p.RecordPayment(amount, paidOn, now)
		if err != nil {
			return p, "", err
		}
		if updated.Status() == valueobject.PromiseStatusKept {
			return updated, "kept", nil
		}
		return updated, "payment_recorded", nil
	})
}

// BreakPromise marks a promise as broken.
func (c CollectionCase) BreakPromise(promiseID, reason string, now time.Time) (CollectionCase, error) {
	return c.changePromise(promiseID, "break promise on", now, func(p PromiseToPay) (PromiseToPay, string, error) {
		updated, err := p.MarkAsBroken(reason, now)
		return updated, "broken", err
	})
}

// ReschedulePromise moves a promise's payment date.
func (c CollectionCase) ReschedulePromise(promiseID string, newDate time.Time, reason string, now time.Time) (CollectionCase, error) {
	return c.changePromise(promiseID, "reschedule promise on", now, func(p PromiseToPay) (PromiseToPay, string, error) {
		updated, err := p.Reschedule(newDate, reason, now)
		return updated, "rescheduled", err
	})
}

// CancelPromise withdraws a promise.
func (c CollectionCase) CancelPromise(promiseID, reason string, now time.Time) (CollectionCase, error) {
	return c.changePromise(promiseID, "cancel promise on", now, func(p PromiseToPay) (PromiseToPay, string, error) {
		updated, err := p.Cancel(reason, now)
		return updated, "cancelled", err
	})
}

func (c CollectionCase) changePromise(
	promiseID, op string,
	now time.Time,
	apply func(PromiseToPay) (PromiseToPay, string, error),
) (CollectionCase, error) {
	if err := c.guardActive(op); err != nil {
		return c, err
	}
	i, err := c.findPromise(promiseID)
	if err != nil {
		return c, err
	}
	updated, eventType, err := apply(c.promises[i])
	if err != nil {
		return c, err
	}

	next := c.mutate(now)
	next.promises = append([]PromiseToPay(nil), c.promises...)
	next.promises[i] = updated
	next.domainEvents = append(next.domainEvents, event.NewPromiseChanged(
		c.id, c.tenantID, updated.ID(), eventType, updated.Status().String(),
		updated.PaymentDate(), updated.AmountPaid(), updated.BreachReason(), now,
	))
	next.reconcilePromiseStatus(now)
	return next, nil
}

// reconcilePromiseStatus keeps PROMISE_TO_PAY in step with whether any
// promise is still awaiting payment.
func (c *CollectionCase) reconcilePromiseStatus(now time.Time) {
	awaiting := c.HasAwaitingPromise()
	switch {
	case c.status == valueobject.CaseStatusPromiseToPay && !awaiting:
		c.moveTo(valueobject.CaseStatusInProgress, "no promise awaiting payment", now)
	case awaiting && (c.status == valueobject.CaseStatusOpen ||
		c.status == valueobject.CaseStatusAssigned ||
		c.status == valueobject.CaseStatusInProgress):
		c.moveTo(valueobject.CaseStatusPromiseToPay, "promise to pay rescheduled", now)
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (c CollectionCase) findAction(id string) (int, error) {
	for i, a := range c.actions {
		if a.ID() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("action %s on case %s: %w", id, c.id, valueobject.ErrNotFound)
}

func (c CollectionCase) findPromise(id string) (int, error) {
	for i, p := range c.promises {
		if p.ID() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("promise %s on case %s: %w", id, c.id, valueobject.ErrNotFound)
}

// Promise returns the promise with the given id.
func (c CollectionCase) Promise(id string) (PromiseToPay, error) {
	i, err := c.findPromise(id)
	if err != nil {
		return PromiseToPay{}, err
	}
	return c.promises[i], nil
}

// HasAwaitingPromise reports whether any promise is pending or rescheduled.
func (c CollectionCase) HasAwaitingPromise() bool {
	for _, p := range c.promises {
		if p.Status().IsAwaiting() {
			return true
		}
	}
	return false
}

// OverduePromises lists awaiting promises whose payment date has passed.
func (c CollectionCase) OverduePromises(asOf time.Time) []PromiseToPay {
	var out []PromiseToPay
	for _, p := range c.promises {
		if p.IsOverdue(asOf) {
			out = append(out, p)
		}
	}
	return out
}

// IsActive reports whether the case is still being worked.
func (c CollectionCase) IsActive() bool { return !c.status.IsTerminal() }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (c CollectionCase) ID() string                                 { return c.id }
func (c CollectionCase) TenantID() string                           { return c.tenantID }
func (c CollectionCase) CaseNumber() string                         { return c.caseNumber }
func (c CollectionCase) LoanID() string                             { return c.loanID }
func (c CollectionCase) MemberID() string                           { return c.memberID }
func (c CollectionCase) Status() valueobject.CaseStatus             { return c.status }
func (c CollectionCase) Priority() valueobject.CasePriority         { return c.priority }
func (c CollectionCase) Classification() valueobject.Classification { return c.classification }
func (c CollectionCase) AssignedCollectorID() string                { return c.assignedCollectorID }
func (c CollectionCase) AssignedDate() time.Time                    { return c.assignedDate }
func (c CollectionCase) OpenedDate() time.Time                      { return c.openedDate }
func (c CollectionCase) ClosedDate() time.Time                      { return c.closedDate }
func (c CollectionCase) DaysPastDueAtOpen() int                     { return c.daysPastDueAtOpen }
func (c CollectionCase) CurrentDaysPastDue() int                    { return c.currentDaysPastDue }
func (c CollectionCase) AmountOverdue() decimal.Decimal             { return c.amountOverdue }
func (c CollectionCase) TotalOutstanding() decimal.Decimal          { return c.totalOutstanding }
func (c CollectionCase) AmountRecovered() decimal.Decimal           { return c.amountRecovered }
func (c CollectionCase) ContactAttempts() int                       { return c.contactAttempts }
func (c CollectionCase) LastContactDate() time.Time                 { return c.lastContactDate }
func (c CollectionCase) NextFollowUpDate() time.Time                { return c.nextFollowUpDate }
func (c CollectionCase) ClosureReason() string                      { return c.closureReason }
func (c CollectionCase) Version() int                               { return c.version }
func (c CollectionCase) CreatedAt() time.Time                       { return c.createdAt }
func (c CollectionCase) UpdatedAt() time.Time                       { return c.updatedAt }
func (c CollectionCase) DomainEvents() []event.DomainEvent          { return c.domainEvents }

// Notes returns a copy of the case notes.
func (c CollectionCase) Notes() []string {
	out := make([]string, len(c.notes))
	copy(out, c.notes)
	return out
}

// Actions returns a copy of the recorded actions in recording order.
func (c CollectionCase) Actions() []CollectionAction {
	out := make([]CollectionAction, len(c.actions))
	copy(out, c.actions)
	return out
}

// Promises returns a copy of the case's promises in creation order.
func (c CollectionCase) Promises() []PromiseToPay {
	out := make([]PromiseToPay, len(c.promises))
	copy(out, c.promises)
	return out
}

// ClearEvents returns a copy with an empty event list.
func (c CollectionCase) ClearEvents() CollectionCase {
	next := c
	next.domainEvents = nil
	return next
}
