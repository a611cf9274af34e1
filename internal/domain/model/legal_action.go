package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const entityLegal = "legal action"

// ---------------------------------------------------------------------------
// LegalAction aggregate root
// ---------------------------------------------------------------------------

// LegalAction follows court proceedings opened against a borrower. It runs
// independently of the case that escalated it. Legal costs and amounts
// recovered only ever grow.
type LegalAction struct {
	id               string
	tenantID         string
	caseID           string
	loanID           string
	memberID         string
	actionType       valueobject.LegalActionType
	status           valueobject.LegalActionStatus
	caseReference    string
	courtName        string
	lawyerName       string
	claimAmount      decimal.Decimal
	judgmentAmount   decimal.NullDecimal
	settlementAmount decimal.NullDecimal
	amountRecovered  decimal.Decimal
	legalCosts       decimal.Decimal
	courtFees        decimal.Decimal
	judgmentSummary  string
	initiatedDate    time.Time
	filedDate        time.Time
	nextHearingDate  time.Time
	judgmentDate     time.Time
	closedDate       time.Time
	notes            []string
	version          int
	createdAt        time.Time
	updatedAt        time.Time
	domainEvents     []event.DomainEvent
}

// NewLegalAction initiates legal proceedings for the claim amount.
func NewLegalAction(
	tenantID, caseID, loanID, memberID string,
	actionType valueobject.LegalActionType,
	claimAmount decimal.Decimal,
	now time.Time,
) (LegalAction, error) {
	switch {
	case tenantID == "":
		return LegalAction{}, valueobject.NewValidation("tenant_id", "is required")
	case caseID == "":
		return LegalAction{}, valueobject.NewValidation("case_id", "is required")
	case loanID == "":
		return LegalAction{}, valueobject.NewValidation("loan_id", "is required")
	case actionType.IsZero():
		return LegalAction{}, valueobject.NewValidation("action_type", "is required")
	case !claimAmount.IsPositive():
		return LegalAction{}, valueobject.NewValidation("claim_amount", "must be positive")
	}

	l := LegalAction{
		id:              uuid.New().String(),
		tenantID:        tenantID,
		caseID:          caseID,
		loanID:          loanID,
		memberID:        memberID,
		actionType:      actionType,
		status:          valueobject.LegalActionStatusInitiated,
		claimAmount:     claimAmount,
		amountRecovered: decimal.Zero,
		legalCosts:      decimal.Zero,
		courtFees:       decimal.Zero,
		initiatedDate:   DateOf(now),
		createdAt:       now,
		updatedAt:       now,
	}
	l.domainEvents = append(l.domainEvents, l.changed("initiated", claimAmount, now))
	return l, nil
}

// LegalActionState is the persisted form of a legal action.
type LegalActionState struct {
	ID               string
	TenantID         string
	CaseID           string
	LoanID           string
	MemberID         string
	ActionType       valueobject.LegalActionType
	Status           valueobject.LegalActionStatus
	CaseReference    string
	CourtName        string
	LawyerName       string
	ClaimAmount      decimal.Decimal
	JudgmentAmount   decimal.NullDecimal
	SettlementAmount decimal.NullDecimal
	AmountRecovered  decimal.Decimal
	LegalCosts       decimal.Decimal
	CourtFees        decimal.Decimal
	JudgmentSummary  string
	InitiatedDate    time.Time
	FiledDate        time.Time
	NextHearingDate  time.Time
	JudgmentDate     time.Time
	ClosedDate       time.Time
	Notes            []string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReconstructLegalAction rebuilds a legal action from persistence.
func ReconstructLegalAction(s LegalActionState) LegalAction {
	return LegalAction{
		id:               s.ID,
		tenantID:         s.TenantID,
		caseID:           s.CaseID,
		loanID:           s.LoanID,
		memberID:         s.MemberID,
		actionType:       s.ActionType,
		status:           s.Status,
		caseReference:    s.CaseReference,
		courtName:        s.CourtName,
		lawyerName:       s.LawyerName,
		claimAmount:      s.ClaimAmount,
		judgmentAmount:   s.JudgmentAmount,
		settlementAmount: s.SettlementAmount,
		amountRecovered:  s.AmountRecovered,
		legalCosts:       s.LegalCosts,
		courtFees:        s.CourtFees,
		judgmentSummary:  s.JudgmentSummary,
		initiatedDate:    s.InitiatedDate,
		filedDate:        s.FiledDate,
		nextHearingDate:  s.NextHearingDate,
		judgmentDate:     s.JudgmentDate,
		closedDate:       s.ClosedDate,
		notes:            s.Notes,
		version:          s.Version,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

func (l LegalAction) changed(eventType string, amount decimal.Decimal, now time.Time) event.DomainEvent {
	return event.NewLegalActionChanged(
		l.id, l.tenantID, eventType, l.caseID, l.status.String(),
		amount, l.legalCosts, l.amountRecovered, now,
	)
}

func (l LegalAction) mutate(now time.Time) LegalAction {
	next := l
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	return next
}

func (l LegalAction) guardOpen(op string) error {
	if l.status.IsClosed() {
		return valueobject.NewStateConflict(entityLegal, op, l.status.String())
	}
	return nil
}

func (l LegalAction) requireStatus(op string, allowed ...valueobject.LegalActionStatus) error {
	for _, a := range allowed {
		if l.status == a {
			return nil
		}
	}
	return valueobject.NewStateConflict(entityLegal, op, l.status.String())
}

// FileCase records the filing with the court.
func (l LegalAction) FileCase(filedDate time.Time, caseReference, courtName string, courtFees decimal.Decimal, now time.Time) (LegalAction, error) {
	if err := l.requireStatus("file", valueobject.LegalActionStatusInitiated); err != nil {
		return l, err
	}
	if courtFees.IsNegative() {
		return l, valueobject.NewValidation("court_fees", "must not be negative")
	}
	if filedDate.IsZero() {
		filedDate = now
	}
	next := l.mutate(now)
	next.status = valueobject.LegalActionStatusFiled
	next.filedDate = DateOf(filedDate)
	next.caseReference = strings.TrimSpace(caseReference)
	next.courtName = strings.TrimSpace(courtName)
	next.courtFees = courtFees
	next.domainEvents = append(next.domainEvents, next.changed("filed", courtFees, now))
	return next, nil
}

// AssignLawyer names the lawyer handling the matter.
func (l LegalAction) AssignLawyer(lawyerName string, now time.Time) (LegalAction, error) {
	if err := l.guardOpen("assign lawyer to"); err != nil {
		return l, err
	}
	lawyerName = strings.TrimSpace(lawyerName)
	if lawyerName == "" {
		return l, valueobject.NewValidation("lawyer_name", "is required")
	}
	next := l.mutate(now)
	next.lawyerName = lawyerName
	return next, nil
}

// ScheduleHearing sets the next hearing date. Hearings can be rescheduled
// any number of times before judgment.
func (l LegalAction) ScheduleHearing(hearingDate time.Time, now time.Time) (LegalAction, error) {
	if err := l.requireStatus("schedule hearing for",
		valueobject.LegalActionStatusFiled, valueobject.LegalActionStatusHearingScheduled); err != nil {
		return l, err
	}
	if hearingDate.IsZero() {
		return l, valueobject.NewValidation("hearing_date", "is required")
	}
	next := l.mutate(now)
	next.status = valueobject.LegalActionStatusHearingScheduled
	next.nextHearingDate = DateOf(hearingDate)
	next.domainEvents = append(next.domainEvents, next.changed("hearing_scheduled", decimal.Zero, now))
	return next, nil
}

// RecordJudgment records the court's decision.
func (l LegalAction) RecordJudgment(
	judgmentDate time.Time,
	inFavor bool,
	judgmentAmount decimal.NullDecimal,
	summary string,
	now time.Time,
) (LegalAction, error) {
	if err := l.requireStatus("record judgment for",
		valueobject.LegalActionStatusFiled, valueobject.LegalActionStatusHearingScheduled); err != nil {
		return l, err
	}
	if judgmentAmount.Valid && judgmentAmount.Decimal.IsNegative() {
		return l, valueobject.NewValidation("judgment_amount", "must not be negative")
	}
	if judgmentDate.IsZero() {
		judgmentDate = now
	}
	next := l.mutate(now)
	next.judgmentDate = DateOf(judgmentDate)
	next.judgmentAmount = judgmentAmount
	next.judgmentSummary = strings.TrimSpace(summary)
	next.nextHearingDate = time.Time{}
	if inFavor {
		next.status = valueobject.LegalActionStatusJudgmentWon
	} else {
		next.status = valueobject.LegalActionStatusJudgmentLost
	}
	next.domainEvents = append(next.domainEvents, next.changed("judgment_recorded", judgmentAmount.Decimal, now))
	return next, nil
}

// AddLegalCosts adds to the legal cost ledger at any open stage.
func (l LegalAction) AddLegalCosts(amount decimal.Decimal, description string, now time.Time) (LegalAction, error) {
	if err := l.guardOpen("add costs to"); err != nil {
		return l, err
	}
	if !amount.IsPositive() {
		return l, valueobject.NewValidation("amount", "must be positive")
	}
	next := l.mutate(now)
	next.legalCosts = l.legalCosts.Add(amount)
	next.notes = appendNote(l.notes, "Costs: "+strings.TrimSpace(description)+" - "+amount.StringFixed(2))
	next.domainEvents = append(next.domainEvents, next.changed("costs_added", amount, now))
	return next, nil
}

// RecordRecovery adds money recovered through the proceedings.
func (l LegalAction) RecordRecovery(amount decimal.Decimal, now time.Time) (LegalAction, error) {
	if err := l.guardOpen("record recovery on"); err != nil {
		return l, err
	}
	if !amount.IsPositive() {
		return l, valueobject.NewValidation("amount", "must be positive")
	}
	next := l.mutate(now)
	next.amountRecovered = l.amountRecovered.Add(amount)
	next.domainEvents = append(next.domainEvents, next.changed("recovery_recorded", amount, now))
	return next, nil
}

// Settle ends the proceedings with an out-of-court settlement. The agreed
// amount is kept apart from what has actually been recovered.
func (l LegalAction) Settle(amount decimal.Decimal, terms string, now time.Time) (LegalAction, error) {
	if err := l.guardOpen("settle"); err != nil {
		return l, err
	}
	if !amount.IsPositive() {
		return l, valueobject.NewValidation("settlement_amount", "must be positive")
	}
	next := l.close(valueobject.LegalActionStatusSettled,
		"Settled for "+amount.StringFixed(2)+". Terms: "+strings.TrimSpace(terms), now)
	next.settlementAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
	next.domainEvents = append(next.domainEvents, next.changed("settled", amount, now))
	return next, nil
}

// Close ends the proceedings.
func (l LegalAction) Close(reason string, now time.Time) (LegalAction, error) {
	if err := l.guardOpen("close"); err != nil {
		return l, err
	}
	next := l.close(valueobject.LegalActionStatusClosed, "Closed: "+strings.TrimSpace(reason), now)
	next.domainEvents = append(next.domainEvents, next.changed("closed", decimal.Zero, now))
	return next, nil
}

// Withdraw abandons the proceedings, including after judgment.
func (l LegalAction) Withdraw(reason string, now time.Time) (LegalAction, error) {
	if err := l.guardOpen("withdraw"); err != nil {
		return l, err
	}
	next := l.close(valueobject.LegalActionStatusWithdrawn, "Withdrawn: "+strings.TrimSpace(reason), now)
	next.domainEvents = append(next.domainEvents, next.changed("withdrawn", decimal.Zero, now))
	return next, nil
}

func (l LegalAction) close(to valueobject.LegalActionStatus, note string, now time.Time) LegalAction {
	next := l.mutate(now)
	next.status = to
	next.closedDate = DateOf(now)
	next.nextHearingDate = time.Time{}
	next.notes = appendNote(l.notes, note)
	return next
}

// TotalCost is legal costs plus court fees.
func (l LegalAction) TotalCost() decimal.Decimal { return l.legalCosts.Add(l.courtFees) }

// NetRecovery is what was recovered minus what the proceedings cost.
func (l LegalAction) NetRecovery() decimal.Decimal { return l.amountRecovered.Sub(l.TotalCost()) }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l LegalAction) ID() string                              { return l.id }
func (l LegalAction) TenantID() string                        { return l.tenantID }
func (l LegalAction) CaseID() string                          { return l.caseID }
func (l LegalAction) LoanID() string                          { return l.loanID }
func (l LegalAction) MemberID() string                        { return l.memberID }
func (l LegalAction) ActionType() valueobject.LegalActionType { return l.actionType }
func (l LegalAction) Status() valueobject.LegalActionStatus   { return l.status }
func (l LegalAction) CaseReference() string                   { return l.caseReference }
func (l LegalAction) CourtName() string                       { return l.courtName }
func (l LegalAction) LawyerName() string                      { return l.lawyerName }
func (l LegalAction) ClaimAmount() decimal.Decimal            { return l.claimAmount }
func (l LegalAction) JudgmentAmount() decimal.NullDecimal     { return l.judgmentAmount }
func (l LegalAction) SettlementAmount() decimal.NullDecimal   { return l.settlementAmount }
func (l LegalAction) AmountRecovered() decimal.Decimal        { return l.amountRecovered }
func (l LegalAction) LegalCosts() decimal.Decimal             { return l.legalCosts }
func (l LegalAction) CourtFees() decimal.Decimal              { return l.courtFees }
func (l LegalAction) JudgmentSummary() string                 { return l.judgmentSummary }
func (l LegalAction) InitiatedDate() time.Time                { return l.initiatedDate }
func (l LegalAction) FiledDate() time.Time                    { return l.filedDate }
func (l LegalAction) NextHearingDate() time.Time              { return l.nextHearingDate }
func (l LegalAction) JudgmentDate() time.Time                 { return l.judgmentDate }
func (l LegalAction) ClosedDate() time.Time                   { return l.closedDate }
func (l LegalAction) Version() int                            { return l.version }
func (l LegalAction) CreatedAt() time.Time                    { return l.createdAt }
func (l LegalAction) UpdatedAt() time.Time                    { return l.updatedAt }
func (l LegalAction) DomainEvents() []event.DomainEvent       { return l.domainEvents }

// Notes returns a copy of the notes.
func (l LegalAction) Notes() []string {
	out := make([]string, len(l.notes))
	copy(out, l.notes)
	return out
}

// ClearEvents returns a copy with an empty event list.
func (l LegalAction) ClearEvents() LegalAction {
	next := l
	next.domainEvents = nil
	return next
}
