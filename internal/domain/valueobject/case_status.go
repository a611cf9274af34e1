package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// CaseStatus – immutable value object
// ---------------------------------------------------------------------------

// CaseStatus represents the lifecycle stage of a collection case.
type CaseStatus struct {
	value string
}

const (
	caseStatusOpen         = "OPEN"
	caseStatusAssigned     = "ASSIGNED"
	caseStatusInProgress   = "IN_PROGRESS"
	caseStatusPromiseToPay = "PROMISE_TO_PAY"
	caseStatusLegal        = "LEGAL"
	caseStatusRecovered    = "RECOVERED"
	caseStatusWrittenOff   = "WRITTEN_OFF"
	caseStatusSettled      = "SETTLED"
	caseStatusClosed       = "CLOSED"
)

var (
	CaseStatusOpen         = CaseStatus{value: caseStatusOpen}
	CaseStatusAssigned     = CaseStatus{value: caseStatusAssigned}
	CaseStatusInProgress   = CaseStatus{value: caseStatusInProgress}
	CaseStatusPromiseToPay = CaseStatus{value: caseStatusPromiseToPay}
	CaseStatusLegal        = CaseStatus{value: caseStatusLegal}
	CaseStatusRecovered    = CaseStatus{value: caseStatusRecovered}
	CaseStatusWrittenOff   = CaseStatus{value: caseStatusWrittenOff}
	CaseStatusSettled      = CaseStatus{value: caseStatusSettled}
	CaseStatusClosed       = CaseStatus{value: caseStatusClosed}
)

var validCaseStatuses = map[string]CaseStatus{
	caseStatusOpen:         CaseStatusOpen,
	caseStatusAssigned:     CaseStatusAssigned,
	caseStatusInProgress:   CaseStatusInProgress,
	caseStatusPromiseToPay: CaseStatusPromiseToPay,
	caseStatusLegal:        CaseStatusLegal,
	caseStatusRecovered:    CaseStatusRecovered,
	caseStatusWrittenOff:   CaseStatusWrittenOff,
	caseStatusSettled:      CaseStatusSettled,
	caseStatusClosed:       CaseStatusClosed,
}

// NewCaseStatus creates a CaseStatus from a raw string.
func NewCaseStatus(s string) (CaseStatus, error) {
	v, ok := validCaseStatuses[s]
	if !ok {
		return CaseStatus{}, fmt.Errorf("%w: invalid case status %q", ErrValidation, s)
	}
	return v, nil
}

// String returns the string representation.
func (s CaseStatus) String() string { return s.value }

// IsZero returns true when not initialised.
func (s CaseStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses match.
func (s CaseStatus) Equal(other CaseStatus) bool { return s.value == other.value }

// IsTerminal reports whether no further case transitions are accepted.
// LEGAL is deliberately not terminal: the legal workflow runs beside the case.
func (s CaseStatus) IsTerminal() bool {
	switch s.value {
	case caseStatusRecovered, caseStatusWrittenOff, caseStatusSettled, caseStatusClosed:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// CasePriority
// ---------------------------------------------------------------------------

// CasePriority ranks how urgently a case needs collector attention.
type CasePriority struct {
	value string
}

const (
	casePriorityLow      = "LOW"
	casePriorityMedium   = "MEDIUM"
	casePriorityHigh     = "HIGH"
	casePriorityCritical = "CRITICAL"
)

var (
	CasePriorityLow      = CasePriority{value: casePriorityLow}
	CasePriorityMedium   = CasePriority{value: casePriorityMedium}
	CasePriorityHigh     = CasePriority{value: casePriorityHigh}
	CasePriorityCritical = CasePriority{value: casePriorityCritical}
)

var validCasePriorities = map[string]CasePriority{
	casePriorityLow:      CasePriorityLow,
	casePriorityMedium:   CasePriorityMedium,
	casePriorityHigh:     CasePriorityHigh,
	casePriorityCritical: CasePriorityCritical,
}

// NewCasePriority creates a CasePriority from a raw string.
func NewCasePriority(s string) (CasePriority, error) {
	v, ok := validCasePriorities[s]
	if !ok {
		return CasePriority{}, fmt.Errorf("%w: invalid case priority %q", ErrValidation, s)
	}
	return v, nil
}

func (p CasePriority) String() string               { return p.value }
func (p CasePriority) IsZero() bool                 { return p.value == "" }
func (p CasePriority) Equal(other CasePriority) bool { return p.value == other.value }

// ---------------------------------------------------------------------------
// Classification (portfolio-at-risk bucket)
// ---------------------------------------------------------------------------

// Classification is the PAR bucket derived from days past due.
type Classification struct {
	value string
}

const (
	classificationCurrent     = "CURRENT"
	classificationWatch       = "WATCH"
	classificationSubstandard = "SUBSTANDARD"
	classificationDoubtful    = "DOUBTFUL"
	classificationLoss        = "LOSS"
)

var (
	ClassificationCurrent     = Classification{value: classificationCurrent}
	ClassificationWatch       = Classification{value: classificationWatch}
	ClassificationSubstandard = Classification{value: classificationSubstandard}
	ClassificationDoubtful    = Classification{value: classificationDoubtful}
	ClassificationLoss        = Classification{value: classificationLoss}
)

var validClassifications = map[string]Classification{
	classificationCurrent:     ClassificationCurrent,
	classificationWatch:       ClassificationWatch,
	classificationSubstandard: ClassificationSubstandard,
	classificationDoubtful:    ClassificationDoubtful,
	classificationLoss:        ClassificationLoss,
}

// AllClassifications lists the buckets from least to most severe.
func AllClassifications() []Classification {
	return []Classification{
		ClassificationCurrent,
		ClassificationWatch,
		ClassificationSubstandard,
		ClassificationDoubtful,
		ClassificationLoss,
	}
}

// NewClassification creates a Classification from a raw string.
func NewClassification(s string) (Classification, error) {
	v, ok := validClassifications[s]
	if !ok {
		return Classification{}, fmt.Errorf("%w: invalid classification %q", ErrValidation, s)
	}
	return v, nil
}

func (c Classification) String() string                 { return c.value }
func (c Classification) IsZero() bool                   { return c.value == "" }
func (c Classification) Equal(other Classification) bool { return c.value == other.value }
