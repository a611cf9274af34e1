package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// LegalActionType
// ---------------------------------------------------------------------------

// LegalActionType names the legal instrument pursued.
type LegalActionType struct {
	value string
}

const (
	legalTypeDemandLetter      = "DEMAND_LETTER"
	legalTypeCivilSuit         = "CIVIL_SUIT"
	legalTypeArbitration       = "ARBITRATION"
	legalTypeCollateralSeizure = "COLLATERAL_SEIZURE"
	legalTypeBankruptcy        = "BANKRUPTCY"
	legalTypeExecution         = "EXECUTION"
	legalTypeGarnishment       = "GARNISHMENT"
)

var (
	LegalActionTypeDemandLetter      = LegalActionType{value: legalTypeDemandLetter}
	LegalActionTypeCivilSuit         = LegalActionType{value: legalTypeCivilSuit}
	LegalActionTypeArbitration       = LegalActionType{value: legalTypeArbitration}
	LegalActionTypeCollateralSeizure = LegalActionType{value: legalTypeCollateralSeizure}
	LegalActionTypeBankruptcy        = LegalActionType{value: legalTypeBankruptcy}
	LegalActionTypeExecution         = LegalActionType{value: legalTypeExecution}
	LegalActionTypeGarnishment       = LegalActionType{value: legalTypeGarnishment}
)

var validLegalActionTypes = map[string]LegalActionType{
	legalTypeDemandLetter:      LegalActionTypeDemandLetter,
	legalTypeCivilSuit:         LegalActionTypeCivilSuit,
	legalTypeArbitration:       LegalActionTypeArbitration,
	legalTypeCollateralSeizure: LegalActionTypeCollateralSeizure,
	legalTypeBankruptcy:        LegalActionTypeBankruptcy,
	legalTypeExecution:         LegalActionTypeExecution,
	legalTypeGarnishment:       LegalActionTypeGarnishment,
}

// NewLegalActionType creates a LegalActionType from a raw string.
func NewLegalActionType(s string) (LegalActionType, error) {
	v, ok := validLegalActionTypes[s]
	if !ok {
		return LegalActionType{}, fmt.Errorf("%w: invalid legal action type %q", ErrValidation, s)
	}
	return v, nil
}

func (t LegalActionType) String() string                  { return t.value }
func (t LegalActionType) IsZero() bool                    { return t.value == "" }
func (t LegalActionType) Equal(other LegalActionType) bool { return t.value == other.value }

// ---------------------------------------------------------------------------
// LegalActionStatus
// ---------------------------------------------------------------------------

// LegalActionStatus represents the lifecycle stage of a legal action.
type LegalActionStatus struct {
	value string
}

const (
	legalStatusInitiated        = "INITIATED"
	legalStatusFiled            = "FILED"
	legalStatusHearingScheduled = "HEARING_SCHEDULED"
	legalStatusJudgmentWon      = "JUDGMENT_WON"
	legalStatusJudgmentLost     = "JUDGMENT_LOST"
	legalStatusSettled          = "SETTLED"
	legalStatusClosed           = "CLOSED"
	legalStatusWithdrawn        = "WITHDRAWN"
)

var (
	LegalActionStatusInitiated        = LegalActionStatus{value: legalStatusInitiated}
	LegalActionStatusFiled            = LegalActionStatus{value: legalStatusFiled}
	LegalActionStatusHearingScheduled = LegalActionStatus{value: legalStatusHearingScheduled}
	LegalActionStatusJudgmentWon      = LegalActionStatus{value: legalStatusJudgmentWon}
	LegalActionStatusJudgmentLost     = LegalActionStatus{value: legalStatusJudgmentLost}
	LegalActionStatusSettled          = LegalActionStatus{value: legalStatusSettled}
	LegalActionStatusClosed           = LegalActionStatus{value: legalStatusClosed}
	LegalActionStatusWithdrawn        = LegalActionStatus{value: legalStatusWithdrawn}
)

var validLegalActionStatuses = map[string]LegalActionStatus{
	legalStatusInitiated:        LegalActionStatusInitiated,
	legalStatusFiled:            LegalActionStatusFiled,
	legalStatusHearingScheduled: LegalActionStatusHearingScheduled,
	legalStatusJudgmentWon:      LegalActionStatusJudgmentWon,
	legalStatusJudgmentLost:     LegalActionStatusJudgmentLost,
	legalStatusSettled:          LegalActionStatusSettled,
	legalStatusClosed:           LegalActionStatusClosed,
	legalStatusWithdrawn:        LegalActionStatusWithdrawn,
}

// NewLegalActionStatus creates a LegalActionStatus from a raw string.
func NewLegalActionStatus(s string) (LegalActionStatus, error) {
	v, ok := validLegalActionStatuses[s]
	if !ok {
		return LegalActionStatus{}, fmt.Errorf("%w: invalid legal action status %q", ErrValidation, s)
	}
	return v, nil
}

// String returns the string representation.
func (s LegalActionStatus) String() string { return s.value }

// IsZero returns true when not initialised.
func (s LegalActionStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses match.
func (s LegalActionStatus) Equal(other LegalActionStatus) bool { return s.value == other.value }

// IsClosed reports whether the legal action has been resolved.
func (s LegalActionStatus) IsClosed() bool {
	switch s.value {
	case legalStatusSettled, legalStatusClosed, legalStatusWithdrawn:
		return true
	}
	return false
}
