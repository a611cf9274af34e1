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

func (f *fixture) writeOffs() *usecase.WriteOffCommands {
	return usecase.NewWriteOffCommands(f.store, f.locker, f.ledger, nil, testLogger())
}

func writeOffRequest(loanID, caseID string) dto.RequestWriteOffRequest {
	return dto.RequestWriteOffRequest{
		TenantID:       testTenant,
		LoanID:         loanID,
		CaseID:         caseID,
		WriteOffNumber: "WO-2026-001",
		WriteOffType:   "FULL",
		Reason:         "Uncollectable after legal action",
		Principal:      dec("7000"),
		Interest:       dec("800"),
		Penalties:      dec("150"),
		Fees:           dec("50"),
	}
}

func (f *fixture) processedWriteOff(t *testing.T, req dto.RequestWriteOffRequest) dto.WriteOffResponse {
	t.Helper()
	ctx := context.Background()
	cmds := f.writeOffs()

	w, err := cmds.Request(ctx, req)
	require.NoError(t, err)
	decision := dto.WriteOffDecisionRequest{TenantID: testTenant, WriteOffID: w.ID, ActorID: "cfo-1", ActorName: "Chief Finance Officer"}
	_, err = cmds.Submit(ctx, decision)
	require.NoError(t, err)
	_, err = cmds.Approve(ctx, decision)
	require.NoError(t, err)
	w, err = cmds.Process(ctx, decision)
	require.NoError(t, err)
	return w
}

func TestWriteOffCommands_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots the case", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 200, "6000", "8000")
		_, err := f.cases().RecordContact(ctx, dto.RecordContactRequest{TenantID: testTenant, CaseID: c.ID})
		require.NoError(t, err)

		w, err := f.writeOffs().Request(ctx, writeOffRequest("loan-1", c.ID))
		require.NoError(t, err)
		assert.Equal(t, "DRAFT", w.Status)
		assert.Equal(t, 200, w.DaysPastDue)
		assert.Equal(t, 1, w.CollectionAttempts)
		assert.True(t, dec("8000").Equal(w.TotalWriteOff))
		assert.True(t, dec("8000").Equal(w.NetLoss))
		assert.Contains(t, f.outboxTypes(), "collections.write_off.requested")
	})

	t.Run("explicit snapshot wins", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 200, "6000", "8000")
		req := writeOffRequest("loan-1", c.ID)
		req.DaysPastDue = 210
		req.CollectionAttempts = 14

		w, err := f.writeOffs().Request(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 210, w.DaysPastDue)
		assert.Equal(t, 14, w.CollectionAttempts)
	})

	t.Run("case of another loan is rejected", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 200, "6000", "8000")

		_, err := f.writeOffs().Request(ctx, writeOffRequest("loan-2", c.ID))
		assert.True(t, errors.Is(err, valueobject.ErrValidation))
	})

	t.Run("nothing to write off", func(t *testing.T) {
		f := newFixture()
		req := writeOffRequest("loan-1", "")
		req.Principal, req.Interest, req.Penalties, req.Fees = dec("0"), dec("0"), dec("0"), dec("0")

		_, err := f.writeOffs().Request(ctx, req)
		assert.True(t, valueobject.IsClientError(err))
	})
}

func TestWriteOffCommands_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("processing closes the case and notifies the ledger", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 200, "6000", "8000")

		w := f.processedWriteOff(t, writeOffRequest("loan-1", c.ID))
		assert.Equal(t, "PROCESSED", w.Status)
		assert.Equal(t, "cfo-1", w.ApprovedByID)
		require.NotNil(t, w.WriteOffDate)

		got := f.getCase(t, c.ID)
		assert.Equal(t, "WRITTEN_OFF", got.Status)
		assert.Equal(t, "Loan written off: WO-2026-001", got.ClosureReason)
		assert.Equal(t, []string{"loan-1/" + w.ID}, f.ledger.writeOffs)
	})

	t.Run("write-off without a case", func(t *testing.T) {
		f := newFixture()
		w := f.processedWriteOff(t, writeOffRequest("loan-9", ""))
		assert.Equal(t, "PROCESSED", w.Status)

		listed, err := f.writeOffs().ListByLoan(ctx, testTenant, "loan-9")
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, w.ID, listed[0].ID)
	})

	t.Run("ledger failure does not undo processing", func(t *testing.T) {
		f := newFixture()
		f.ledger.writeOffErr = errors.New("ledger unavailable")
		w := f.processedWriteOff(t, writeOffRequest("loan-1", ""))

		got, err := f.writeOffs().Get(ctx, dto.GetByIDRequest{TenantID: testTenant, ID: w.ID})
		require.NoError(t, err)
		assert.Equal(t, "PROCESSED", got.Status)
	})

	t.Run("recoveries are capped at the amount written off", func(t *testing.T) {
		f := newFixture()
		w := f.processedWriteOff(t, writeOffRequest("loan-1", ""))
		cmds := f.writeOffs()

		rec, err := cmds.RecordRecovery(ctx, dto.WriteOffRecoveryRequest{TenantID: testTenant, WriteOffID: w.ID, Amount: dec("3000")})
		require.NoError(t, err)
		assert.Equal(t, "RECOVERED", rec.Status)
		assert.True(t, dec("5000").Equal(rec.NetLoss))
		require.Len(t, f.ledger.postings, 1)
		assert.Equal(t, "WO-2026-001", f.ledger.postings[0].reference)

		_, err = cmds.RecordRecovery(ctx, dto.WriteOffRecoveryRequest{TenantID: testTenant, WriteOffID: w.ID, Amount: dec("5000.01")})
		assert.True(t, errors.Is(err, valueobject.ErrInvariantViolation))
		assert.Len(t, f.ledger.postings, 1)

		_, err = cmds.Cancel(ctx, dto.WriteOffDecisionRequest{TenantID: testTenant, WriteOffID: w.ID, Reason: "x"})
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict))
	})

	t.Run("approval requires an approver", func(t *testing.T) {
		f := newFixture()
		cmds := f.writeOffs()
		w, err := cmds.Request(ctx, writeOffRequest("loan-1", ""))
		require.NoError(t, err)
		_, err = cmds.Submit(ctx, dto.WriteOffDecisionRequest{TenantID: testTenant, WriteOffID: w.ID})
		require.NoError(t, err)

		_, err = cmds.Approve(ctx, dto.WriteOffDecisionRequest{TenantID: testTenant, WriteOffID: w.ID})
		assert.True(t, errors.Is(err, valueobject.ErrValidation))

		rejected, err := cmds.Reject(ctx, dto.WriteOffDecisionRequest{
			TenantID: testTenant, WriteOffID: w.ID, ActorID: "board-1", Reason: "Pursue guarantor first",
		})
		require.NoError(t, err)
		assert.Equal(t, "REJECTED", rejected.Status)
		assert.Equal(t, "Pursue guarantor first", rejected.Notes)

		_, err = cmds.Process(ctx, dto.WriteOffDecisionRequest{TenantID: testTenant, WriteOffID: w.ID})
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict))
		assert.Empty(t, f.ledger.writeOffs)
	})

	t.Run("draft can be cancelled", func(t *testing.T) {
		f := newFixture()
		w, err := f.writeOffs().Request(ctx, writeOffRequest("loan-1", ""))
		require.NoError(t, err)

		cancelled, err := f.writeOffs().Cancel(ctx, dto.WriteOffDecisionRequest{TenantID: testTenant, WriteOffID: w.ID, Reason: "Borrower paid"})
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", cancelled.Status)
		assert.Contains(t, cancelled.Notes, "Cancelled: Borrower paid")
	})
}
