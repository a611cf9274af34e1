package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

func testProposal(original, amount string) model.SettlementProposal {
	return model.SettlementProposal{
		TenantID:            "tenant-1",
		ReferenceNumber:     " DS-2026-001 ",
		CaseID:              "case-1",
		LoanID:              "loan-1",
		MemberID:            "member-1",
		OriginalOutstanding: dec(original),
		SettlementAmount:    dec(amount),
		DueDate:             testNow.AddDate(0, 3, 0),
		Terms:               "three monthly payments",
		ProposedBy:          "officer-1",
	}
}

func acceptedSettlement(t *testing.T, installments int) model.DebtSettlement {
	t.Helper()
	s, err := model.NewInstallmentSettlement(testProposal("100000", "75000"), installments, testNow)
	require.NoError(t, err)
	s, err = s.SubmitForApproval("hardship", testNow)
	require.NoError(t, err)
	s, err = s.Approve("manager-1", testNow)
	require.NoError(t, err)
	s, err = s.RecordAcceptance(testNow)
	require.NoError(t, err)
	return s
}

func TestNewDebtSettlement(t *testing.T) {
	t.Run("installment figures", func(t *testing.T) {
		s, err := model.NewInstallmentSettlement(testProposal("100000", "75000"), 3, testNow)
		require.NoError(t, err)

		assert.Equal(t, "DS-2026-001", s.ReferenceNumber())
		assert.Equal(t, valueobject.SettlementStatusProposed, s.Status())
		assert.True(t, s.DiscountAmount().Equal(dec("25000")))
		assert.True(t, s.DiscountPercentage().Equal(dec("25")))
		assert.True(t, s.InstallmentAmount().Equal(dec("25000")))
		assert.True(t, s.RemainingBalance().Equal(dec("75000")))
		require.Len(t, s.DomainEvents(), 1)
		assert.Equal(t, "collections.settlement.proposed", s.DomainEvents()[0].EventType())
	})

	t.Run("percentage and installment are rounded to two places", func(t *testing.T) {
		s, err := model.NewInstallmentSettlement(testProposal("30000", "20000"), 3, testNow)
		require.NoError(t, err)
		assert.Equal(t, "33.33", s.DiscountPercentage().StringFixed(2))
		assert.Equal(t, "6666.67", s.InstallmentAmount().StringFixed(2))
	})

	t.Run("lump sum has no installments", func(t *testing.T) {
		s, err := model.NewLumpSumSettlement(testProposal("1000", "1000"), testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.SettlementTypeLumpSum, s.SettlementType())
		assert.Equal(t, 0, s.NumberOfInstallments())
		assert.True(t, s.DiscountPercentage().IsZero())
	})

	tests := []struct {
		name         string
		proposal     model.SettlementProposal
		installments int
	}{
		{"amount above original", testProposal("1000", "1000.01"), 1},
		{"zero amount", testProposal("1000", "0"), 1},
		{"zero installments", testProposal("1000", "500"), 0},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := model.NewInstallmentSettlement(tt.proposal, tt.installments, testNow)
			assert.ErrorIs(t, err, valueobject.ErrValidation)
		})
	}
}

func TestDebtSettlement_Approval(t *testing.T) {
	s, err := model.NewLumpSumSettlement(testProposal("1000", "800"), testNow)
	require.NoError(t, err)

	t.Run("approve before submission is a conflict and mutates nothing", func(t *testing.T) {
		same, err := s.Approve("manager-1", testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
		assert.Equal(t, valueobject.SettlementStatusProposed, same.Status())
		assert.Empty(t, same.ApprovedBy())
	})

	pending, err := s.SubmitForApproval(" long arrears ", testNow)
	require.NoError(t, err)
	assert.Equal(t, "long arrears", pending.Justification())

	t.Run("approve", func(t *testing.T) {
		approved, err := pending.Approve("manager-1", testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.SettlementStatusApproved, approved.Status())
		assert.Equal(t, "manager-1", approved.ApprovedBy())
		assert.Equal(t, model.DateOf(testNow), approved.ApprovedDate())
	})

	t.Run("reject", func(t *testing.T) {
		rejected, err := pending.Reject("discount too deep", testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.SettlementStatusRejected, rejected.Status())
		assert.Equal(t, "Rejected: discount too deep", rejected.Notes())

		_, err = rejected.RecordAcceptance(testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})
}

func TestDebtSettlement_RecordPayment(t *testing.T) {
	t.Run("installments run to completion", func(t *testing.T) {
		s := acceptedSettlement(t, 3)

		s, err := s.RecordPayment(dec("25000"), testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.SettlementStatusInProgress, s.Status())

		s, err = s.RecordPayment(dec("25000"), testNow)
		require.NoError(t, err)
		assert.True(t, s.RemainingBalance().Equal(dec("25000")))

		s, err = s.RecordPayment(dec("25000"), testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.SettlementStatusCompleted, s.Status())
		assert.True(t, s.RemainingBalance().IsZero())
		assert.Equal(t, model.DateOf(testNow), s.CompletedDate())
		assert.True(t, s.InstallmentAmount().Equal(dec("25000")))
	})

	t.Run("overpayment floors remaining at zero", func(t *testing.T) {
		s, err := acceptedSettlement(t, 1).RecordPayment(dec("80000"), testNow)
		require.NoError(t, err)
		assert.True(t, s.RemainingBalance().IsZero())
		assert.True(t, s.AmountPaid().Equal(dec("80000")))
		assert.True(t, s.IsCompleted())
	})

	t.Run("payment before acceptance is a conflict", func(t *testing.T) {
		s, err := model.NewLumpSumSettlement(testProposal("1000", "800"), testNow)
		require.NoError(t, err)
		_, err = s.RecordPayment(dec("100"), testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})
}

func TestDebtSettlement_DefaultAndCancel(t *testing.T) {
	s := acceptedSettlement(t, 3)
	inProgress, err := s.RecordPayment(dec("100"), testNow)
	require.NoError(t, err)

	defaulted, err := inProgress.MarkAsDefaulted("stopped paying", testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.SettlementStatusDefaulted, defaulted.Status())

	cancelled, err := defaulted.Cancel("superseded", testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.SettlementStatusCancelled, cancelled.Status())

	completed, err := s.RecordPayment(dec("75000"), testNow)
	require.NoError(t, err)
	_, err = completed.Cancel("oops", testNow)
	assert.ErrorIs(t, err, valueobject.ErrStateConflict)

	proposed, err := model.NewLumpSumSettlement(testProposal("1000", "800"), testNow)
	require.NoError(t, err)
	_, err = proposed.MarkAsDefaulted("x", testNow)
	assert.ErrorIs(t, err, valueobject.ErrStateConflict)
}
