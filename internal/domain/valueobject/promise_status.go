package valueobject

import "fmt"

// PromiseStatus tracks fulfilment of a promise to pay.
type PromiseStatus struct {
	value string
}

const (
	promiseStatusPending     = "PENDING"
	promiseStatusKept        = "KEPT"
	promiseStatusPartial     = "PARTIAL"
	promiseStatusBroken      = "BROKEN"
	promiseStatusRescheduled = "RESCHEDULED"
	promiseStatusCancelled   = "CANCELLED"
)

var (
	PromiseStatusPending     = PromiseStatus{value: promiseStatusPending}
	PromiseStatusKept        = PromiseStatus{value: promiseStatusKept}
	PromiseStatusPartial     = PromiseStatus{value: promiseStatusPartial}
	PromiseStatusBroken      = PromiseStatus{value: promiseStatusBroken}
	PromiseStatusRescheduled = PromiseStatus{value: promiseStatusRescheduled}
	PromiseStatusCancelled   = PromiseStatus{value: promiseStatusCancelled}
)

var validPromiseStatuses = map[string]PromiseStatus{
	promiseStatusPending:     PromiseStatusPending,
	promiseStatusKept:        PromiseStatusKept,
	promiseStatusPartial:     PromiseStatusPartial,
	promiseStatusBroken:      PromiseStatusBroken,
	promiseStatusRescheduled: PromiseStatusRescheduled,
	promiseStatusCancelled:   PromiseStatusCancelled,
}

// NewPromiseStatus creates a PromiseStatus from a raw string.
func NewPromiseStatus(s string) (PromiseStatus, error) {
	v, ok := validPromiseStatuses[s]
	if !ok {
		return PromiseStatus{}, fmt.Errorf("%w: invalid promise status %q", ErrValidation, s)
	}
	return v, nil
}

// String returns the string representation.
func (s PromiseStatus) String() string { return s.value }

// IsZero returns true when not initialised.
func (s PromiseStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses match.
func (s PromiseStatus) Equal(other PromiseStatus) bool { return s.value == other.value }

// IsAwaiting reports whether the promise still waits on its payment date.
// A rescheduled promise is awaiting again.
func (s PromiseStatus) IsAwaiting() bool {
	return s.value == promiseStatusPending || s.value == promiseStatusRescheduled
}
