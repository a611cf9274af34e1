package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// WriteOffType
// ---------------------------------------------------------------------------

// WriteOffType distinguishes full, partial and technical write-offs.
type WriteOffType struct {
	value string
}

const (
	writeOffTypeFull      = "FULL"
	writeOffTypePartial   = "PARTIAL"
	writeOffTypeTechnical = "TECHNICAL"
)

var (
	WriteOffTypeFull      = WriteOffType{value: writeOffTypeFull}
	WriteOffTypePartial   = WriteOffType{value: writeOffTypePartial}
	WriteOffTypeTechnical = WriteOffType{value: writeOffTypeTechnical}
)

var validWriteOffTypes = map[string]WriteOffType{
	writeOffTypeFull:      WriteOffTypeFull,
	writeOffTypePartial:   WriteOffTypePartial,
	writeOffTypeTechnical: WriteOffTypeTechnical,
}

// NewWriteOffType creates a WriteOffType from a raw string.
func NewWriteOffType(s string) (WriteOffType, error) {
	v, ok := validWriteOffTypes[s]
	if !ok {
		return WriteOffType{}, fmt.Errorf("%w: invalid write-off type %q", ErrValidation, s)
	}
	return v, nil
}

func (t WriteOffType) String() string               { return t.value }
func (t WriteOffType) IsZero() bool                 { return t.value == "" }
func (t WriteOffType) Equal(other WriteOffType) bool { return t.value == other.value }

// ---------------------------------------------------------------------------
// WriteOffStatus
// ---------------------------------------------------------------------------

// WriteOffStatus represents the lifecycle stage of a loan write-off.
type WriteOffStatus struct {
	value string
}

const (
	writeOffStatusDraft           = "DRAFT"
	writeOffStatusPendingApproval = "PENDING_APPROVAL"
	writeOffStatusApproved        = "APPROVED"
	writeOffStatusRejected        = "REJECTED"
	writeOffStatusProcessed       = "PROCESSED"
	writeOffStatusRecovered       = "RECOVERED"
	writeOffStatusCancelled       = "CANCELLED"
)

var (
	WriteOffStatusDraft           = WriteOffStatus{value: writeOffStatusDraft}
	WriteOffStatusPendingApproval = WriteOffStatus{value: writeOffStatusPendingApproval}
	WriteOffStatusApproved        = WriteOffStatus{value: writeOffStatusApproved}
	WriteOffStatusRejected        = WriteOffStatus{value: writeOffStatusRejected}
	WriteOffStatusProcessed       = WriteOffStatus{value: writeOffStatusProcessed}
	WriteOffStatusRecovered       = WriteOffStatus{value: writeOffStatusRecovered}
	WriteOffStatusCancelled       = WriteOffStatus{value: writeOffStatusCancelled}
)

var validWriteOffStatuses = map[string]WriteOffStatus{
	writeOffStatusDraft:           WriteOffStatusDraft,
	writeOffStatusPendingApproval: WriteOffStatusPendingApproval,
	writeOffStatusApproved:        WriteOffStatusApproved,
	writeOffStatusRejected:        WriteOffStatusRejected,
	writeOffStatusProcessed:       WriteOffStatusProcessed,
	writeOffStatusRecovered:       WriteOffStatusRecovered,
	writeOffStatusCancelled:       WriteOffStatusCancelled,
}

// NewWriteOffStatus creates a WriteOffStatus from a raw string.
func NewWriteOffStatus(s string) (WriteOffStatus, error) {
	v, ok := validWriteOffStatuses[s]
	if !ok {
		return WriteOffStatus{}, fmt.Errorf("%w: invalid write-off status %q", ErrValidation, s)
	}
	return v, nil
}

// String returns the string representation.
func (s WriteOffStatus) String() string { return s.value }

// IsZero returns true when not initialised.
func (s WriteOffStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses match.
func (s WriteOffStatus) Equal(other WriteOffStatus) bool { return s.value == other.value }
