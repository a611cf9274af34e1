package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// CollectionAction entity (child of CollectionCase)
// ---------------------------------------------------------------------------

// CollectionAction is an immutable record of one outreach attempt. Only the
// free-text notes may change after it is attached to a case.
type CollectionAction struct {
	id              string
	caseID          string
	loanID          string
	tenantID        string
	actionType      valueobject.ActionType
	outcome         valueobject.ActionOutcome
	performedBy     string
	performedAt     time.Time
	description     string
	contactMethod   valueobject.ContactMethod
	phoneNumber     string
	contactPerson   string
	durationMinutes int
	latitude        decimal.NullDecimal
	longitude       decimal.NullDecimal
	followUpDate    time.Time
	promiseID       string
	notes           string
	createdAt       time.Time
}

// NewCollectionAction builds an action for the given case. Channel specific
// details are attached with the With* methods before the action is recorded.
func NewCollectionAction(
	caseID, loanID, tenantID string,
	actionType valueobject.ActionType,
	outcome valueobject.ActionOutcome,
	performedBy string,
	performedAt time.Time,
	description string,
	now time.Time,
) (CollectionAction, error) {
	if caseID == "" {
		return CollectionAction{}, valueobject.NewValidation("case_id", "is required")
	}
	if tenantID == "" {
		return CollectionAction{}, valueobject.NewValidation("tenant_id", "is required")
	}
	if actionType.IsZero() {
		return CollectionAction{}, valueobject.NewValidation("action_type", "is required")
	}
	if outcome.IsZero() {
		return CollectionAction{}, valueobject.NewValidation("outcome", "is required")
	}
	if performedBy == "" {
		return CollectionAction{}, valueobject.NewValidation("performed_by", "is required")
	}
	if performedAt.IsZero() {
		performedAt = now
	}
	return CollectionAction{
		id:          uuid.New().String(),
		caseID:      caseID,
		loanID:      loanID,
		tenantID:    tenantID,
		actionType:  actionType,
		outcome:     outcome,
		performedBy: performedBy,
		performedAt: performedAt.UTC(),
		description: strings.TrimSpace(description),
		createdAt:   now,
	}, nil
}

// CollectionActionState is the persisted form of an action.
type CollectionActionState struct {
	ID              string
	CaseID          string
	LoanID          string
	TenantID        string
	ActionType      valueobject.ActionType
	Outcome         valueobject.ActionOutcome
	PerformedBy     string
	PerformedAt     time.Time
	Description     string
	ContactMethod   valueobject.ContactMethod
	PhoneNumber     string
	ContactPerson   string
	DurationMinutes int
	Latitude        decimal.NullDecimal
	Longitude       decimal.NullDecimal
	FollowUpDate    time.Time
	PromiseID       string
	Notes           string
	CreatedAt       time.Time
}

// ReconstructCollectionAction rebuilds an action from persistence.
func ReconstructCollectionAction(s CollectionActionState) CollectionAction {
	return CollectionAction{
		id:              s.ID,
		caseID:          s.CaseID,
		loanID:          s.LoanID,
		tenantID:        s.TenantID,
		actionType:      s.ActionType,
		outcome:         s.Outcome,
		performedBy:     s.PerformedBy,
		performedAt:     s.PerformedAt,
		description:     s.Description,
		contactMethod:   s.ContactMethod,
		phoneNumber:     s.PhoneNumber,
		contactPerson:   s.ContactPerson,
		durationMinutes: s.DurationMinutes,
		latitude:        s.Latitude,
		longitude:       s.Longitude,
		followUpDate:    s.FollowUpDate,
		promiseID:       s.PromiseID,
		notes:           s.Notes,
		createdAt:       s.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Detail builders
// ---------------------------------------------------------------------------

// WithContactMethod records the medium used to reach the borrower.
func (a CollectionAction) WithContactMethod(m valueobject.ContactMethod) CollectionAction {
	next := a
	next.contactMethod = m
	return next
}

// WithPhoneCallDetails records the number dialled, who answered and the
// length of the call.
func (a CollectionAction) WithPhoneCallDetails(phoneNumber, contactPerson string, durationMinutes int) (CollectionAction, error) {
	if durationMinutes < 0 {
		return a, valueobject.NewValidation("duration_minutes", "must not be negative")
	}
	next := a
	next.phoneNumber = strings.TrimSpace(phoneNumber)
	next.contactPerson = strings.TrimSpace(contactPerson)
	next.durationMinutes = durationMinutes
	if next.contactMethod.IsZero() {
		next.contactMethod = valueobject.ContactMethodPhone
	}
	return next, nil
}

// WithFieldVisitDetails records where a field visit took place.
func (a CollectionAction) WithFieldVisitDetails(latitude, longitude decimal.Decimal, contactPerson string) (CollectionAction, error) {
	if latitude.Abs().GreaterThan(decimal.NewFromInt(90)) {
		return a, valueobject.NewValidation("latitude", "must be within [-90, 90]")
	}
	if longitude.Abs().GreaterThan(decimal.NewFromInt(180)) {
		return a, valueobject.NewValidation("longitude", "must be within [-180, 180]")
	}
	next := a
	next.latitude = decimal.NullDecimal{Decimal: latitude, Valid: true}
	next.longitude = decimal.NullDecimal{Decimal: longitude, Valid: true}
	next.contactPerson = strings.TrimSpace(contactPerson)
	if next.contactMethod.IsZero() {
		next.contactMethod = valueobject.ContactMethodInPerson
	}
	return next, nil
}

// WithFollowUp sets the date the collector should try again.
func (a CollectionAction) WithFollowUp(date time.Time) CollectionAction {
	next := a
	next.followUpDate = DateOf(date)
	return next
}

// WithNotes replaces the free-text notes.
func (a CollectionAction) WithNotes(notes string) CollectionAction {
	next := a
	next.notes = strings.TrimSpace(notes)
	return next
}

func (a CollectionAction) withPromise(promiseID string) CollectionAction {
	next := a
	next.promiseID = promiseID
	return next
}

// appendNotes adds text to the existing notes on a new line.
func (a CollectionAction) appendNotes(text string) CollectionAction {
	next := a
	next.notes = joinNote(a.notes, strings.TrimSpace(text))
	return next
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (a CollectionAction) ID() string                               { return a.id }
func (a CollectionAction) CaseID() string                           { return a.caseID }
func (a CollectionAction) LoanID() string                           { return a.loanID }
func (a CollectionAction) TenantID() string                         { return a.tenantID }
func (a CollectionAction) ActionType() valueobject.ActionType       { return a.actionType }
func (a CollectionAction) Outcome() valueobject.ActionOutcome       { return a.outcome }
func (a CollectionAction) PerformedBy() string                      { return a.performedBy }
func (a CollectionAction) PerformedAt() time.Time                   { return a.performedAt }
func (a CollectionAction) Description() string                      { return a.description }
func (a CollectionAction) ContactMethod() valueobject.ContactMethod { return a.contactMethod }
func (a CollectionAction) PhoneNumber() string                      { return a.phoneNumber }
func (a CollectionAction) ContactPerson() string                    { return a.contactPerson }
func (a CollectionAction) DurationMinutes() int                     { return a.durationMinutes }
func (a CollectionAction) Latitude() decimal.NullDecimal            { return a.latitude }
func (a CollectionAction) Longitude() decimal.NullDecimal           { return a.longitude }
func (a CollectionAction) FollowUpDate() time.Time                  { return a.followUpDate }
func (a CollectionAction) PromiseID() string                        { return a.promiseID }
func (a CollectionAction) Notes() string                            { return a.notes }
func (a CollectionAction) CreatedAt() time.Time                     { return a.createdAt }
