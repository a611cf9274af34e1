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

func (f *fixture) recordPromise(t *testing.T, caseID, amount string, payInDays int) dto.RecordActionResponse {
	t.Helper()
	uc := usecase.NewRecordActionUseCase(f.store, f.locker, nil, testLogger())
	resp, err := uc.Execute(context.Background(), dto.RecordActionRequest{
		TenantID:        testTenant,
		CaseID:          caseID,
		ActionType:      "PHONE_CALL",
		Outcome:         "PROMISED_TO_PAY",
		PerformedBy:     "collector-1",
		PhoneNumber:     "+254700000001",
		DurationMinutes: 4,
		Promise: &dto.PromiseTermsRequest{
			Amount:        dec(amount),
			PaymentDate:   days(payInDays),
			PaymentMethod: "MOBILE_MONEY",
		},
	})
	require.NoError(t, err)
	return resp
}

func TestRecordActionUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("action with a promise moves the case to PROMISE_TO_PAY", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")

		resp := f.recordPromise(t, c.ID, "500", 7)

		assert.NotEmpty(t, resp.ActionID)
		assert.NotEmpty(t, resp.PromiseID)
		assert.Equal(t, "PROMISE_TO_PAY", resp.Case.Status)
		assert.Equal(t, 1, resp.Case.ContactAttempts)
		require.Len(t, resp.Case.Actions, 1)
		require.Len(t, resp.Case.Promises, 1)
		assert.Equal(t, resp.PromiseID, resp.Case.Actions[0].PromiseID)
		assert.Equal(t, "PHONE", resp.Case.Actions[0].ContactMethod)
		assert.Equal(t, resp.ActionID, resp.Case.Promises[0].ActionID)
		assert.Equal(t, "PENDING", resp.Case.Promises[0].Status)
		assert.Contains(t, f.outboxTypes(), "collections.case.action_recorded")
		assert.Contains(t, f.outboxTypes(), "collections.promise.created")
	})

	t.Run("unanswered call is not a contact", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		uc := usecase.NewRecordActionUseCase(f.store, f.locker, nil, testLogger())

		resp, err := uc.Execute(ctx, dto.RecordActionRequest{
			TenantID:     testTenant,
			CaseID:       c.ID,
			ActionType:   "PHONE_CALL",
			Outcome:      "NO_ANSWER",
			PerformedBy:  "collector-1",
			FollowUpDate: days(1),
		})
		require.NoError(t, err)
		assert.Equal(t, "OPEN", resp.Case.Status)
		assert.Equal(t, 0, resp.Case.ContactAttempts)
		assert.Empty(t, resp.PromiseID)
		require.NotNil(t, resp.Case.NextFollowUpDate)
	})

	t.Run("field visit keeps coordinates", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		uc := usecase.NewRecordActionUseCase(f.store, f.locker, nil, testLogger())
		lat, long := dec("-1.2921"), dec("36.8219")

		resp, err := uc.Execute(ctx, dto.RecordActionRequest{
			TenantID:      testTenant,
			CaseID:        c.ID,
			ActionType:    "FIELD_VISIT",
			Outcome:       "CONTACTED",
			PerformedBy:   "collector-2",
			ContactPerson: "Spouse",
			Latitude:      &lat,
			Longitude:     &long,
		})
		require.NoError(t, err)
		require.Len(t, resp.Case.Actions, 1)
		a := resp.Case.Actions[0]
		assert.Equal(t, "IN_PERSON", a.ContactMethod)
		require.NotNil(t, a.Latitude)
		assert.True(t, lat.Equal(*a.Latitude))
		assert.Equal(t, "IN_PROGRESS", resp.Case.Status)
	})

	t.Run("rejects unknown enumerations", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		uc := usecase.NewRecordActionUseCase(f.store, f.locker, nil, testLogger())

		tests := []struct {
			name    string
			typ     string
			outcome string
		}{
			{"action type", "CARRIER_PIGEON", "CONTACTED"},
			{"outcome", "SMS", "MAYBE"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := uc.Execute(ctx, dto.RecordActionRequest{
					TenantID: testTenant, CaseID: c.ID, ActionType: tt.typ, Outcome: tt.outcome, PerformedBy: "c-1",
				})
				require.Error(t, err)
				assert.True(t, errors.Is(err, valueobject.ErrValidation))
			})
		}
		assert.Empty(t, f.getCase(t, c.ID).Actions)
	})

	t.Run("action note is appended", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		rec := f.recordPromise(t, c.ID, "500", 7)

		_, err := f.cases().AddActionNote(ctx, dto.AddActionNoteRequest{
			TenantID: testTenant, CaseID: c.ID, ActionID: rec.ActionID, Note: "Borrower sounded confident",
		})
		require.NoError(t, err)
		got := f.getCase(t, c.ID)
		require.Len(t, got.Actions, 1)
		assert.Contains(t, got.Actions[0].Notes, "Borrower sounded confident")
	})
}

func TestPromiseCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("payments settle the promise without touching case arrears", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		rec := f.recordPromise(t, c.ID, "500", 7)
		cmds := usecase.NewPromiseCommands(f.store, f.locker, nil, testLogger())

		partial, err := cmds.RecordPayment(ctx, dto.PromisePaymentRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, Amount: dec("200"),
		})
		require.NoError(t, err)
		assert.Equal(t, "PARTIAL", partial.Status)
		assert.Equal(t, "IN_PROGRESS", f.getCase(t, c.ID).Status)

		kept, err := cmds.RecordPayment(ctx, dto.PromisePaymentRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, Amount: dec("300"),
		})
		require.NoError(t, err)
		assert.Equal(t, "KEPT", kept.Status)
		assert.True(t, dec("500").Equal(kept.AmountPaid))

		got := f.getCase(t, c.ID)
		assert.Equal(t, "IN_PROGRESS", got.Status)
		assert.True(t, dec("1000").Equal(got.AmountOverdue))
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		rec := f.recordPromise(t, c.ID, "500", 7)
		cmds := usecase.NewPromiseCommands(f.store, f.locker, nil, testLogger())

		_, err := cmds.RecordPayment(ctx, dto.PromisePaymentRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, Amount: dec("501"),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, valueobject.ErrInvariantViolation))
	})

	t.Run("break then reschedule", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		rec := f.recordPromise(t, c.ID, "500", 7)
		cmds := usecase.NewPromiseCommands(f.store, f.locker, nil, testLogger())

		broken, err := cmds.Break(ctx, dto.PromiseReasonRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, Reason: "Lost job",
		})
		require.NoError(t, err)
		assert.Equal(t, "BROKEN", broken.Status)
		assert.Equal(t, "Lost job", broken.BreachReason)
		assert.Equal(t, "IN_PROGRESS", f.getCase(t, c.ID).Status)

		moved, err := cmds.Reschedule(ctx, dto.ReschedulePromiseRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, NewDate: days(14),
		})
		require.NoError(t, err)
		assert.Equal(t, "RESCHEDULED", moved.Status)
		assert.Equal(t, 1, moved.RescheduleCount)
		assert.Equal(t, "PROMISE_TO_PAY", f.getCase(t, c.ID).Status)

		_, err = cmds.Reschedule(ctx, dto.ReschedulePromiseRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, NewDate: days(21),
		})
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict), "second reschedule without a break")

		_, err = cmds.Break(ctx, dto.PromiseReasonRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: "missing",
		})
		assert.True(t, errors.Is(err, valueobject.ErrNotFound))
	})

	t.Run("cancelled promise cannot be paid", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		rec := f.recordPromise(t, c.ID, "500", 7)
		cmds := usecase.NewPromiseCommands(f.store, f.locker, nil, testLogger())

		_, err := cmds.Cancel(ctx, dto.PromiseReasonRequest{TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, Reason: "Entered twice"})
		require.NoError(t, err)

		_, err = cmds.RecordPayment(ctx, dto.PromisePaymentRequest{
			TenantID: testTenant, CaseID: c.ID, PromiseID: rec.PromiseID, Amount: dec("10"),
		})
		assert.True(t, errors.Is(err, valueobject.ErrStateConflict))
	})

	t.Run("sweep breaks only promises past the grace period", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		due := f.recordPromise(t, c.ID, "100", 1)
		later := f.recordPromise(t, c.ID, "100", 10)
		cmds := usecase.NewPromiseCommands(f.store, f.locker, nil, testLogger())

		broken, err := cmds.BreakOverdue(ctx, dto.BreakOverduePromisesRequest{
			TenantID: testTenant, CaseID: c.ID, AsOf: days(5), GraceDays: 2,
		})
		require.NoError(t, err)
		require.Len(t, broken, 1)
		assert.Equal(t, due.PromiseID, broken[0].ID)
		assert.Contains(t, broken[0].BreachReason, "No payment by")

		got := f.getCase(t, c.ID)
		assert.Equal(t, "PROMISE_TO_PAY", got.Status)
		for _, p := range got.Promises {
			if p.ID == later.PromiseID {
				assert.Equal(t, "PENDING", p.Status)
			}
		}

		again, err := cmds.BreakOverdue(ctx, dto.BreakOverduePromisesRequest{
			TenantID: testTenant, CaseID: c.ID, AsOf: days(5), GraceDays: 2,
		})
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}
