package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/application/usecase"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

func (f *fixture) settlements() *usecase.SettlementCommands {
	return usecase.NewSettlementCommands(f.store, f.locker, f.ledger, nil, testLogger())
}

func (f *fixture) acceptedSettlement(t *testing.T, caseID, amount string) dto.SettlementResponse {
	t.Helper()
	ctx := context.Background()
	cmds := f.settlements()

	s, err := cmds.Propose(ctx, dto.ProposeSettlementRequest{
		TenantID:         testTenant,
		CaseID:           caseID,
		ReferenceNumber:  "STL-001",
		SettlementType:   "LUMP_SUM",
		SettlementAmount: dec(amount),
		DueDate:          days(30),
		Terms:            "Single payment",
		ProposedBy:       "officer-1",
	})
	require.NoError(t, err)

	decision := dto.SettlementDecisionRequest{TenantID: testTenant, SettlementID: s.ID, Actor: "manager-1", Reason: "Hardship"}
	_, err = cmds.Submit(ctx, decision)
	require.NoError(t, err)
	_, err = cmds.Approve(ctx, decision)
	require.NoError(t, err)
	s, err = cmds.Accept(ctx, decision)
	require.NoError(t, err)
	return s
}

func TestSettlementCommands_Propose(t *testing.T) {
	ctx := context.Background()

	t.Run("discount is computed from the case outstanding", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 100, "2000", "5000")

		s, err := f.settlements().Propose(ctx, dto.ProposeSettlementRequest{
			TenantID:             testTenant,
			CaseID:               c.ID,
			ReferenceNumber:      " STL-9 ",
			SettlementType:       "INSTALLMENT",
			SettlementAmount:     dec("4000"),
			NumberOfInstallments: 3,
			DueDate:              days(90),
			ProposedBy:           "officer-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "PROPOSED", s.Status)
		assert.Equal(t, "STL-9", s.ReferenceNumber)
		assert.Equal(t, "loan-1", s.LoanID)
		assert.True(t, dec("5000").Equal(s.OriginalOutstanding))
		assert.True(t, dec("1000").Equal(s.DiscountAmount))
		assert.True(t, dec("20").Equal(s.DiscountPercentage))
		assert.True(t, dec("1333.33").Equal(s.InstallmentAmount))
		assert.True(t, dec("4000").Equal(s.RemainingBalance))
		assert.Contains(t, f.outboxTypes(), "collections.settlement.proposed")
	})

	tests := []struct {
		name   string
		req    dto.ProposeSettlementRequest
		target error
	}{
		{
			name: "amount above outstanding",
			req: dto.ProposeSettlementRequest{
				ReferenceNumber: "STL-1", SettlementType: "LUMP_SUM", SettlementAmount: dec("5001"), DueDate: days(1), ProposedBy: "o",
			},
			target: valueobject.ErrValidation,
		},
		{
			name: "installment plan without installments",
			req: dto.ProposeSettlementRequest{
				ReferenceNumber: "STL-1", SettlementType: "INSTALLMENT", SettlementAmount: dec("100"), DueDate: days(1), ProposedBy: "o",
			},
			target: valueobject.ErrValidation,
		},
		{
			name: "unknown type",
			req: dto.ProposeSettlementRequest{
				ReferenceNumber: "STL-1", SettlementType: "BARTER", SettlementAmount: dec("100"), DueDate: days(1), ProposedBy: "o",
			},
			target: valueobject.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			c := f.openCase(t, "loan-1", 100, "2000", "5000")
			tt.req.TenantID = testTenant
			tt.req.CaseID = c.ID

			_, err := f.settlements().Propose(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
		})
	}

	t.Run("closed case cannot take a proposal", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 100, "2000", "5000")
		_, err := f.cases().Close(ctx, dto.CaseReasonRequest{TenantID: testTenant, CaseID: c.ID, Reason: "Disputed"})
		require.NoError(t, err)

		_, err = f.settlements().Propose(ctx, dto.ProposeSettlementRequest{
			TenantID: testTenant, CaseID: c.ID, ReferenceNumber: "STL-1", SettlementType: "LUMP_SUM",
			SettlementAmount: dec("100"), DueDate: days(1), ProposedBy: "o",
		})
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict))
	})
}

func TestSettlementCommands_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("paying off the settlement settles the case and posts to the ledger", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 100, "2000", "5000")
		s := f.acceptedSettlement(t, c.ID, "4000")
		assert.Equal(t, "ACCEPTED", s.Status)
		assert.Equal(t, "manager-1", s.ApprovedBy)
		assert.Equal(t, "Hardship", s.Justification)

		first, err := f.settlements().RecordPayment(ctx, dto.SettlementPaymentRequest{
			TenantID: testTenant, SettlementID: s.ID, Amount: dec("1500"),
		})
		require.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", first.Status)
		assert.True(t, dec("2500").Equal(first.RemainingBalance))
		assert.True(t, f.getCase(t, c.ID).ClosedDate == nil)

		done, err := f.settlements().RecordPayment(ctx, dto.SettlementPaymentRequest{
			TenantID: testTenant, SettlementID: s.ID, Amount: dec("2500"),
		})
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", done.Status)
		assert.True(t, done.RemainingBalance.IsZero())
		require.NotNil(t, done.CompletedDate)

		got := f.getCase(t, c.ID)
		assert.Equal(t, "SETTLED", got.Status)
		assert.Equal(t, "Settled for 4000.00. Terms: Single payment", got.ClosureReason)

		require.Len(t, f.ledger.postings, 2)
		assert.Equal(t, "STL-001", f.ledger.postings[1].reference)
		assert.True(t, dec("2500").Equal(f.ledger.postings[1].amount))
	})

	t.Run("ledger failure does not fail the payment", func(t *testing.T) {
		f := newFixture()
		f.ledger.postErr = errors.New("ledger unavailable")
		c := f.openCase(t, "loan-1", 100, "2000", "5000")
		s := f.acceptedSettlement(t, c.ID, "4000")

		resp, err := f.settlements().RecordPayment(ctx, dto.SettlementPaymentRequest{
			TenantID: testTenant, SettlementID: s.ID, Amount: dec("100"),
		})
		require.NoError(t, err)
		assert.True(t, dec("100").Equal(resp.AmountPaid))
	})

	t.Run("payment before acceptance conflicts", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 100, "2000", "5000")
		s, err := f.settlements().Propose(ctx, dto.ProposeSettlementRequest{
			TenantID: testTenant, CaseID: c.ID, ReferenceNumber: "STL-1", SettlementType: "LUMP_SUM",
			SettlementAmount: dec("100"), DueDate: days(1), ProposedBy: "o",
		})
		require.NoError(t, err)

		_, err = f.settlements().RecordPayment(ctx, dto.SettlementPaymentRequest{
			TenantID: testTenant, SettlementID: s.ID, Amount: dec("100"),
		})
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict))
		assert.Empty(t, f.ledger.postings)
	})

	t.Run("reject and cancel", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 100, "2000", "5000")
		cmds := f.settlements()
		s, err := cmds.Propose(ctx, dto.ProposeSettlementRequest{
			TenantID: testTenant, CaseID: c.ID, ReferenceNumber: "STL-1", SettlementType: "LUMP_SUM",
			SettlementAmount: dec("100"), DueDate: days(1), ProposedBy: "o",
		})
		require.NoError(t, err)
		ref := dto.SettlementDecisionRequest{TenantID: testTenant, SettlementID: s.ID, Reason: "Too deep a discount"}

		_, err = cmds.Reject(ctx, ref)
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict), "reject needs a submitted proposal")

		_, err = cmds.Submit(ctx, ref)
		require.NoError(t, err)
		_, err = cmds.Approve(ctx, dto.SettlementDecisionRequest{TenantID: testTenant, SettlementID: s.ID})
		assert.True(t, errors.Is(err, valueobject.ErrValidation), "approver is required")

		rejected, err := cmds.Reject(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, "REJECTED", rejected.Status)
		assert.Equal(t, "Rejected: Too deep a discount", rejected.Notes)

		cancelled, err := cmds.Cancel(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", cancelled.Status)

		_, err = cmds.Cancel(ctx, ref)
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict))

		listed, err := cmds.ListByCase(ctx, dto.CaseRef{TenantID: testTenant, CaseID: c.ID})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "CANCELLED", listed[0].Status)
	})

	t.Run("unknown settlement", func(t *testing.T) {
		f := newFixture()
		_, err := f.settlements().Get(ctx, dto.GetByIDRequest{TenantID: testTenant, ID: "missing"})
		assert.True(t, errors.Is(err, valueobject.ErrNotFound))
	})
}
