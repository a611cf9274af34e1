package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// CollectionStrategy aggregate root
// ---------------------------------------------------------------------------

// CollectionStrategy is a reusable rule: when a case matches its arrears and
// balance window, schedule an action of the given type. It holds no per-case
// state; repetition is tracked through StrategyExecution records.
type CollectionStrategy struct {
	id                   string
	tenantID             string
	code                 string
	name                 string
	description          string
	loanProductID        string
	triggerDaysPastDue   int
	maxDaysPastDue       *int
	minOutstandingAmount decimal.NullDecimal
	maxOutstandingAmount decimal.NullDecimal
	actionType           valueobject.ActionType
	messageTemplate      string
	priority             int
	repeatIntervalDays   int
	maxRepetitions       int
	escalateOnFailure    bool
	requiresApproval     bool
	active               bool
	effectiveFrom        time.Time
	effectiveTo          time.Time
	version              int
	createdAt            time.Time
	updatedAt            time.Time
	domainEvents         []event.DomainEvent
}

// NewCollectionStrategy creates an active strategy. Codes are trimmed and
// upper-cased. Escalation on failure is on by default, approval is off.
func NewCollectionStrategy(
	tenantID, code, name string,
	triggerDaysPastDue int,
	actionType valueobject.ActionType,
	priority int,
	now time.Time,
) (CollectionStrategy, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	switch {
	case tenantID == "":
		return CollectionStrategy{}, valueobject.NewValidation("tenant_id", "is required")
	case code == "":
		return CollectionStrategy{}, valueobject.NewValidation("code", "is required")
	case name == "":
		return CollectionStrategy{}, valueobject.NewValidation("name", "is required")
	case triggerDaysPastDue < 0:
		return CollectionStrategy{}, valueobject.NewValidation("trigger_days_past_due", "must not be negative")
	case actionType.IsZero():
		return CollectionStrategy{}, valueobject.NewValidation("action_type", "is required")
	case priority < 0:
		return CollectionStrategy{}, valueobject.NewValidation("priority", "must not be negative")
	}

	s := CollectionStrategy{
		id:                 uuid.New().String(),
		tenantID:           tenantID,
		code:               code,
		name:               name,
		triggerDaysPastDue: triggerDaysPastDue,
		actionType:         actionType,
		priority:           priority,
		escalateOnFailure:  true,
		active:             true,
		createdAt:          now,
		updatedAt:          now,
	}
	s.domainEvents = append(s.domainEvents, event.NewStrategyChanged(s.id, tenantID, "created", code, true, now))
	return s, nil
}

// CollectionStrategyState is the persisted form of a strategy.
type CollectionStrategyState struct {
	ID                   string
	TenantID             string
	Code                 string
	Name                 string
	Description          string
	LoanProductID        string
	TriggerDaysPastDue   int
	MaxDaysPastDue       *int
	MinOutstandingAmount decimal.NullDecimal
	MaxOutstandingAmount decimal.NullDecimal
	ActionType           valueobject.ActionType
	MessageTemplate      string
	Priority             int
	RepeatIntervalDays   int
	MaxRepetitions       int
	EscalateOnFailure    bool
	RequiresApproval     bool
	Active               bool
	EffectiveFrom        time.Time
	EffectiveTo          time.Time
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ReconstructCollectionStrategy rebuilds a strategy from persistence.
func ReconstructCollectionStrategy(s CollectionStrategyState) CollectionStrategy {
	return CollectionStrategy{
		id:                   s.ID,
		tenantID:             s.TenantID,
		code:                 s.Code,
		name:                 s.Name,
		description:          s.Description,
		loanProductID:        s.LoanProductID,
		triggerDaysPastDue:   s.TriggerDaysPastDue,
		maxDaysPastDue:       s.MaxDaysPastDue,
		minOutstandingAmount: s.MinOutstandingAmount,
		maxOutstandingAmount: s.MaxOutstandingAmount,
		actionType:           s.ActionType,
		messageTemplate:      s.MessageTemplate,
		priority:             s.Priority,
		repeatIntervalDays:   s.RepeatIntervalDays,
		maxRepetitions:       s.MaxRepetitions,
		escalateOnFailure:    s.EscalateOnFailure,
		requiresApproval:     s.RequiresApproval,
		active:               s.Active,
		effectiveFrom:        s.EffectiveFrom,
		effectiveTo:          s.EffectiveTo,
		version:              s.Version,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// StrategyUpdate holds the fields Update may change. Nil fields are left
// untouched.
type StrategyUpdate struct {
	Name               *string
	Description        *string
	TriggerDaysPastDue *int
	MaxDaysPastDue     *int
	ActionType         *valueobject.ActionType
	MessageTemplate    *string
	Priority           *int
}

// Update applies a partial change to the strategy's core fields.
func (s CollectionStrategy) Update(u StrategyUpdate, now time.Time) (CollectionStrategy, error) {
	next := s
	if u.Name != nil {
		if name := strings.TrimSpace(*u.Name); name != "" {
			next.name = name
		}
	}
	if u.Description != nil {
		next.description = strings.TrimSpace(*u.Description)
	}
	if u.TriggerDaysPastDue != nil {
		if *u.TriggerDaysPastDue < 0 {
			return s, valueobject.NewValidation("trigger_days_past_due", "must not be negative")
		}
		next.triggerDaysPastDue = *u.TriggerDaysPastDue
	}
	if u.MaxDaysPastDue != nil {
		v := *u.MaxDaysPastDue
		next.maxDaysPastDue = &v
	}
	if u.ActionType != nil && !u.ActionType.IsZero() {
		next.actionType = *u.ActionType
	}
	if u.MessageTemplate != nil {
		next.messageTemplate = strings.TrimSpace(*u.MessageTemplate)
	}
	if u.Priority != nil {
		if *u.Priority < 0 {
			return s, valueobject.NewValidation("priority", "must not be negative")
		}
		next.priority = *u.Priority
	}
	if next.maxDaysPastDue != nil && *next.maxDaysPastDue < next.triggerDaysPastDue {
		return s, valueobject.NewValidation("max_days_past_due", "must not be below the trigger")
	}
	return next.touch("updated", now), nil
}

// WithAmountThresholds bounds the outstanding amount the strategy applies to.
// Either bound may be left invalid to mean unbounded.
func (s CollectionStrategy) WithAmountThresholds(minAmount, maxAmount decimal.NullDecimal) (CollectionStrategy, error) {
	if minAmount.Valid && minAmount.Decimal.IsNegative() {
		return s, valueobject.NewValidation("min_outstanding_amount", "must not be negative")
	}
	if minAmount.Valid && maxAmount.Valid && minAmount.Decimal.GreaterThan(maxAmount.Decimal) {
		return s, valueobject.NewValidation("max_outstanding_amount", "must not be below the minimum")
	}
	next := s
	next.minOutstandingAmount = minAmount
	next.maxOutstandingAmount = maxAmount
	return next, nil
}

// WithDescription sets the free-text description.
func (s CollectionStrategy) WithDescription(description string) CollectionStrategy {
	next := s
	next.description = strings.TrimSpace(description)
	return next
}

// WithMaxDaysPastDue caps the arrears window. Nil leaves it open ended.
func (s CollectionStrategy) WithMaxDaysPastDue(maxDays *int) (CollectionStrategy, error) {
	next := s
	next.maxDaysPastDue = nil
	if maxDays != nil {
		if *maxDays < s.triggerDaysPastDue {
			return s, valueobject.NewValidation("max_days_past_due", "must not be below the trigger")
		}
		v := *maxDays
		next.maxDaysPastDue = &v
	}
	return next, nil
}

// ForLoanProduct scopes the strategy to one loan product. An empty id
// removes the scope.
func (s CollectionStrategy) ForLoanProduct(loanProductID string) CollectionStrategy {
	next := s
	next.loanProductID = loanProductID
	return next
}

// WithMessageTemplate sets the text sent with the scheduled action.
func (s CollectionStrategy) WithMessageTemplate(template string) CollectionStrategy {
	next := s
	next.messageTemplate = strings.TrimSpace(template)
	return next
}

// WithRepetition lets the strategy fire again every intervalDays, at most
// maxRepetitions times per case. Zero for both turns repetition off.
func (s CollectionStrategy) WithRepetition(intervalDays, maxRepetitions int) (CollectionStrategy, error) {
	if intervalDays < 0 || maxRepetitions < 0 {
		return s, valueobject.NewValidation("repetition", "must not be negative")
	}
	next := s
	next.repeatIntervalDays = intervalDays
	next.maxRepetitions = maxRepetitions
	return next, nil
}

// WithEscalation controls whether a failed action escalates the case.
func (s CollectionStrategy) WithEscalation(escalateOnFailure bool) CollectionStrategy {
	next := s
	next.escalateOnFailure = escalateOnFailure
	return next
}

// WithApprovalRequired controls whether a supervisor must approve the action.
func (s CollectionStrategy) WithApprovalRequired(required bool) CollectionStrategy {
	next := s
	next.requiresApproval = required
	return next
}

// WithEffectiveDates limits the calendar window the strategy is live in.
// Zero dates leave that side open.
func (s CollectionStrategy) WithEffectiveDates(from, to time.Time) (CollectionStrategy, error) {
	from, to = DateOf(from), DateOf(to)
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return s, valueobject.NewValidation("effective_to", "must not precede effective_from")
	}
	next := s
	next.effectiveFrom = from
	next.effectiveTo = to
	return next, nil
}

// Activate turns the strategy on.
func (s CollectionStrategy) Activate(now time.Time) CollectionStrategy {
	next := s
	next.active = true
	return next.touch("activated", now)
}

// Deactivate turns the strategy off.
func (s CollectionStrategy) Deactivate(now time.Time) CollectionStrategy {
	next := s
	next.active = false
	return next.touch("deactivated", now)
}

func (s CollectionStrategy) touch(eventType string, now time.Time) CollectionStrategy {
	next := s
	next.updatedAt = now
	next.domainEvents = copyEvents(s.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewStrategyChanged(s.id, s.tenantID, eventType, s.code, s.active, now))
	return next
}

// ---------------------------------------------------------------------------
// Matching
// ---------------------------------------------------------------------------

// AppliesTo reports whether the strategy matches a case with the given
// arrears, outstanding balance and loan product on the given day.
func (s CollectionStrategy) AppliesTo(daysPastDue int, outstanding decimal.Decimal, loanProductID string, today time.Time) bool {
	if !s.active {
		return false
	}
	if daysPastDue < s.triggerDaysPastDue {
		return false
	}
	if s.maxDaysPastDue != nil && daysPastDue > *s.maxDaysPastDue {
		return false
	}
	if s.minOutstandingAmount.Valid && outstanding.LessThan(s.minOutstandingAmount.Decimal) {
		return false
	}
	if s.maxOutstandingAmount.Valid && outstanding.GreaterThan(s.maxOutstandingAmount.Decimal) {
		return false
	}
	if s.loanProductID != "" && s.loanProductID != loanProductID {
		return false
	}
	day := DateOf(today)
	if !s.effectiveFrom.IsZero() && day.Before(s.effectiveFrom) {
		return false
	}
	if !s.effectiveTo.IsZero() && day.After(s.effectiveTo) {
		return false
	}
	return true
}

// Repeats reports whether the strategy may fire more than once per case.
func (s CollectionStrategy) Repeats() bool { return s.repeatIntervalDays > 0 }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (s CollectionStrategy) ID() string                                { return s.id }
func (s CollectionStrategy) TenantID() string                          { return s.tenantID }
func (s CollectionStrategy) Code() string                              { return s.code }
func (s CollectionStrategy) Name() string                              { return s.name }
func (s CollectionStrategy) Description() string                       { return s.description }
func (s CollectionStrategy) LoanProductID() string                     { return s.loanProductID }
func (s CollectionStrategy) TriggerDaysPastDue() int                   { return s.triggerDaysPastDue }
func (s CollectionStrategy) MinOutstandingAmount() decimal.NullDecimal { return s.minOutstandingAmount }
func (s CollectionStrategy) MaxOutstandingAmount() decimal.NullDecimal { return s.maxOutstandingAmount }
func (s CollectionStrategy) ActionType() valueobject.ActionType        { return s.actionType }
func (s CollectionStrategy) MessageTemplate() string                   { return s.messageTemplate }
func (s CollectionStrategy) Priority() int                             { return s.priority }
func (s CollectionStrategy) RepeatIntervalDays() int                   { return s.repeatIntervalDays }
func (s CollectionStrategy) MaxRepetitions() int                       { return s.maxRepetitions }
func (s CollectionStrategy) EscalateOnFailure() bool                   { return s.escalateOnFailure }
func (s CollectionStrategy) RequiresApproval() bool                    { return s.requiresApproval }
func (s CollectionStrategy) IsActive() bool                            { return s.active }
func (s CollectionStrategy) EffectiveFrom() time.Time                  { return s.effectiveFrom }
func (s CollectionStrategy) EffectiveTo() time.Time                    { return s.effectiveTo }
func (s CollectionStrategy) Version() int                              { return s.version }
func (s CollectionStrategy) CreatedAt() time.Time                      { return s.createdAt }
func (s CollectionStrategy) UpdatedAt() time.Time                      { return s.updatedAt }
func (s CollectionStrategy) DomainEvents() []event.DomainEvent         { return s.domainEvents }

// MaxDaysPastDue returns the upper arrears bound and whether one is set.
func (s CollectionStrategy) MaxDaysPastDue() (int, bool) {
	if s.maxDaysPastDue == nil {
		return 0, false
	}
	return *s.maxDaysPastDue, true
}

// ClearEvents returns a copy with an empty event list.
func (s CollectionStrategy) ClearEvents() CollectionStrategy {
	next := s
	next.domainEvents = nil
	return next
}
