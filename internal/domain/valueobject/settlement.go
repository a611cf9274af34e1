package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// SettlementType
// ---------------------------------------------------------------------------

// SettlementType describes how a negotiated settlement is paid off.
type SettlementType struct {
	value string
}

const (
	settlementTypeLumpSum       = "LUMP_SUM"
	settlementTypeInstallment   = "INSTALLMENT"
	settlementTypePrincipalOnly = "PRINCIPAL_ONLY"
	settlementTypePartial       = "PARTIAL"
)

var (
	SettlementTypeLumpSum       = SettlementType{value: settlementTypeLumpSum}
	SettlementTypeInstallment   = SettlementType{value: settlementTypeInstallment}
	SettlementTypePrincipalOnly = SettlementType{value: settlementTypePrincipalOnly}
	SettlementTypePartial       = SettlementType{value: settlementTypePartial}
)

var validSettlementTypes = map[string]SettlementType{
	settlementTypeLumpSum:       SettlementTypeLumpSum,
	settlementTypeInstallment:   SettlementTypeInstallment,
	settlementTypePrincipalOnly: SettlementTypePrincipalOnly,
	settlementTypePartial:       SettlementTypePartial,
}

// NewSettlementType creates a SettlementType from a raw string.
func NewSettlementType(s string) (SettlementType, error) {
	v, ok := validSettlementTypes[s]
	if !ok {
		return SettlementType{}, fmt.Errorf("%w: invalid settlement type %q", ErrValidation, s)
	}
	return v, nil
}

func (t SettlementType) String() string                 { return t.value }
func (t SettlementType) IsZero() bool                   { return t.value == "" }
func (t SettlementType) Equal(other SettlementType) bool { return t.value == other.value }

// ---------------------------------------------------------------------------
// SettlementStatus
// ---------------------------------------------------------------------------

// SettlementStatus represents the lifecycle stage of a debt settlement.
type SettlementStatus struct {
	value string
}

const (
	settlementStatusProposed        = "PROPOSED"
	settlementStatusPendingApproval = "PENDING_APPROVAL"
	settlementStatusApproved        = "APPROVED"
	settlementStatusRejected        = "REJECTED"
	settlementStatusAccepted        = "ACCEPTED"
	settlementStatusInProgress      = "IN_PROGRESS"
	settlementStatusCompleted       = "COMPLETED"
	settlementStatusDefaulted       = "DEFAULTED"
	settlementStatusCancelled       = "CANCELLED"
)

var (
	SettlementStatusProposed        = SettlementStatus{value: settlementStatusProposed}
	SettlementStatusPendingApproval = SettlementStatus{value: settlementStatusPendingApproval}
	SettlementStatusApproved        = SettlementStatus{value: settlementStatusApproved}
	SettlementStatusRejected        = SettlementStatus{value: settlementStatusRejected}
	SettlementStatusAccepted        = SettlementStatus{value: settlementStatusAccepted}
	SettlementStatusInProgress      = SettlementStatus{value: settlementStatusInProgress}
	SettlementStatusCompleted       = SettlementStatus{value: settlementStatusCompleted}
	SettlementStatusDefaulted       = SettlementStatus{value: settlementStatusDefaulted}
	SettlementStatusCancelled       = SettlementStatus{value: settlementStatusCancelled}
)

var validSettlementStatuses = map[string]SettlementStatus{
	settlementStatusProposed:        SettlementStatusProposed,
	settlementStatusPendingApproval: SettlementStatusPendingApproval,
	settlementStatusApproved:        SettlementStatusApproved,
	settlementStatusRejected:        SettlementStatusRejected,
	settlementStatusAccepted:        SettlementStatusAccepted,
	settlementStatusInProgress:      SettlementStatusInProgress,
	settlementStatusCompleted:       SettlementStatusCompleted,
	settlementStatusDefaulted:       SettlementStatusDefaulted,
	settlementStatusCancelled:       SettlementStatusCancelled,
}

// NewSettlementStatus creates a SettlementStatus from a raw string.
func NewSettlementStatus(s string) (SettlementStatus, error) {
	v, ok := validSettlementStatuses[s]
	if !ok {
		return SettlementStatus{}, fmt.Errorf("%w: invalid settlement status %q", ErrValidation, s)
	}
	return v, nil
}

// String returns the string representation.
func (s SettlementStatus) String() string { return s.value }

// IsZero returns true when not initialised.
func (s SettlementStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses match.
func (s SettlementStatus) Equal(other SettlementStatus) bool { return s.value == other.value }
