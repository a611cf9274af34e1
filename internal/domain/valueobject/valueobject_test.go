package valueobject_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		days int
		want valueobject.Classification
	}{
		{name: "negative days are current", days: -3, want: valueobject.ClassificationCurrent},
		{name: "zero days is current", days: 0, want: valueobject.ClassificationCurrent},
		{name: "one day is watch", days: 1, want: valueobject.ClassificationWatch},
		{name: "exactly 30 stays watch", days: 30, want: valueobject.ClassificationWatch},
		{name: "31 is substandard", days: 31, want: valueobject.ClassificationSubstandard},
		{name: "exactly 90 stays substandard", days: 90, want: valueobject.ClassificationSubstandard},
		{name: "91 is doubtful", days: 91, want: valueobject.ClassificationDoubtful},
		{name: "exactly 180 stays doubtful", days: 180, want: valueobject.ClassificationDoubtful},
		{name: "181 is loss", days: 181, want: valueobject.ClassificationLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valueobject.Classify(tt.days)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, valueobject.Classify(tt.days), "classification must be idempotent")
		})
	}
}

func TestPrioritize(t *testing.T) {
	tests := []struct {
		name   string
		days   int
		amount int64
		want   valueobject.CasePriority
	}{
		{name: "nothing overdue is low", days: 0, amount: 0, want: valueobject.CasePriorityLow},
		{name: "exactly 30 days and 10000 stays low", days: 30, amount: 10_000, want: valueobject.CasePriorityLow},
		{name: "31 days is medium", days: 31, amount: 0, want: valueobject.CasePriorityMedium},
		{name: "10001 is medium", days: 0, amount: 10_001, want: valueobject.CasePriorityMedium},
		{name: "exactly 60 days stays medium", days: 60, amount: 0, want: valueobject.CasePriorityMedium},
		{name: "61 days is high", days: 61, amount: 0, want: valueobject.CasePriorityHigh},
		{name: "exactly 50000 stays medium", days: 0, amount: 50_000, want: valueobject.CasePriorityMedium},
		{name: "50001 is high", days: 0, amount: 50_001, want: valueobject.CasePriorityHigh},
		{name: "exactly 90 days stays high", days: 90, amount: 0, want: valueobject.CasePriorityHigh},
		{name: "91 days is critical", days: 91, amount: 0, want: valueobject.CasePriorityCritical},
		{name: "exactly 100000 stays high", days: 0, amount: 100_000, want: valueobject.CasePriorityHigh},
		{name: "100001 is critical", days: 0, amount: 100_001, want: valueobject.CasePriorityCritical},
		{name: "45 days with 75000 is high", days: 45, amount: 75_000, want: valueobject.CasePriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valueobject.Prioritize(tt.days, decimal.NewFromInt(tt.amount))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCaseStatus_IsTerminal(t *testing.T) {
	terminal := []valueobject.CaseStatus{
		valueobject.CaseStatusRecovered,
		valueobject.CaseStatusWrittenOff,
		valueobject.CaseStatusSettled,
		valueobject.CaseStatusClosed,
	}
	open := []valueobject.CaseStatus{
		valueobject.CaseStatusOpen,
		valueobject.CaseStatusAssigned,
		valueobject.CaseStatusInProgress,
		valueobject.CaseStatusPromiseToPay,
		valueobject.CaseStatusLegal,
	}

	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), s.String())
	}
	for _, s := range open {
		assert.False(t, s.IsTerminal(), s.String())
	}
}

func TestParseStatuses(t *testing.T) {
	t.Run("known values round trip", func(t *testing.T) {
		cs, err := valueobject.NewCaseStatus("PROMISE_TO_PAY")
		require.NoError(t, err)
		assert.True(t, cs.Equal(valueobject.CaseStatusPromiseToPay))

		ss, err := valueobject.NewSettlementStatus("PENDING_APPROVAL")
		require.NoError(t, err)
		assert.Equal(t, "PENDING_APPROVAL", ss.String())

		ws, err := valueobject.NewWriteOffStatus("PROCESSED")
		require.NoError(t, err)
		assert.True(t, ws.Equal(valueobject.WriteOffStatusProcessed))

		ls, err := valueobject.NewLegalActionStatus("HEARING_SCHEDULED")
		require.NoError(t, err)
		assert.False(t, ls.IsClosed())
	})

	t.Run("unknown values are rejected", func(t *testing.T) {
		_, err := valueobject.NewCaseStatus("RESOLVED")
		assert.Error(t, err)
		_, err = valueobject.NewPromiseStatus("kept")
		assert.Error(t, err)
		_, err = valueobject.NewWriteOffType("Full")
		assert.Error(t, err)
	})

	t.Run("empty contact method is allowed", func(t *testing.T) {
		m, err := valueobject.NewContactMethod("")
		require.NoError(t, err)
		assert.True(t, m.IsZero())
	})
}

func TestErrorTaxonomy(t *testing.T) {
	conflict := fmt.Errorf("approve settlement: %w",
		valueobject.NewStateConflict("settlement", "approve", "PROPOSED"))
	validation := valueobject.NewValidation("amount", "must be positive")
	invariant := valueobject.NewInvariantViolation("settlement", "remaining balance is already zero")

	assert.True(t, errors.Is(conflict, valueobject.ErrStateConflict))
	assert.True(t, errors.Is(conflict, valueobject.ErrInvalidStatusTransition))
	assert.Contains(t, conflict.Error(), "PROPOSED")

	var sce *valueobject.StateConflictError
	require.True(t, errors.As(conflict, &sce))
	assert.Equal(t, "approve", sce.Operation)

	assert.True(t, errors.Is(validation, valueobject.ErrValidation))
	assert.True(t, errors.Is(invariant, valueobject.ErrInvariantViolation))

	assert.True(t, valueobject.IsClientError(conflict))
	assert.True(t, valueobject.IsClientError(validation))
	assert.False(t, valueobject.IsClientError(errors.New("connection reset")))

	assert.True(t, valueobject.IsRetryable(fmt.Errorf("save: %w", valueobject.ErrConcurrentModification)))
	assert.False(t, valueobject.IsRetryable(conflict))
}
