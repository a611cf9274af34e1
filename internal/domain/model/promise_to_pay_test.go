package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

func newTestPromise(t *testing.T, amount string) model.PromiseToPay {
	t.Helper()
	p, err := model.NewPromiseToPay(
		"case-1", "loan-1", "member-1", "tenant-1", "action-1",
		testNow,
		model.PromiseTerms{Amount: dec(amount), PaymentDate: testNow.AddDate(0, 0, 5), PaymentMethod: " MOBILE_MONEY "},
		"collector-1", testNow,
	)
	require.NoError(t, err)
	return p
}

func TestNewPromiseToPay(t *testing.T) {
	p := newTestPromise(t, "2500")
	assert.Equal(t, valueobject.PromiseStatusPending, p.Status())
	assert.Equal(t, "MOBILE_MONEY", p.PaymentMethod())
	assert.True(t, p.AmountPaid().IsZero())
	assert.Equal(t, 0, p.RescheduleCount())

	_, err := model.NewPromiseToPay("case-1", "", "", "t", "", testNow,
		model.PromiseTerms{Amount: dec("10"), PaymentDate: testNow.AddDate(0, 0, -1)}, "c", testNow)
	assert.ErrorIs(t, err, valueobject.ErrValidation)
}

func TestPromiseToPay_RecordPayment(t *testing.T) {
	tests := []struct {
		name     string
		payments []string
		status   valueobject.PromiseStatus
		paid     string
	}{
		{"single full payment", []string{"1000"}, valueobject.PromiseStatusKept, "1000"},
		{"single partial payment", []string{"250"}, valueobject.PromiseStatusPartial, "250"},
		{"partials reaching the promise", []string{"250", "250", "500"}, valueobject.PromiseStatusKept, "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPromise(t, "1000")
			for _, amt := range tt.payments {
				var err error
				p, err = p.RecordPayment(dec(amt), testNow, testNow)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.status, p.Status())
			assert.True(t, p.AmountPaid().Equal(dec(tt.paid)))
			assert.Equal(t, model.DateOf(testNow), p.ActualPaymentDate())
		})
	}

	t.Run("overpayment is an invariant violation", func(t *testing.T) {
		p := newTestPromise(t, "1000")
		_, err := p.RecordPayment(dec("1000.01"), testNow, testNow)
		assert.ErrorIs(t, err, valueobject.ErrInvariantViolation)
	})

	t.Run("broken promise can still be paid", func(t *testing.T) {
		p, err := newTestPromise(t, "1000").MarkAsBroken("missed", testNow)
		require.NoError(t, err)
		p, err = p.RecordPayment(dec("1000"), testNow, testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.PromiseStatusKept, p.Status())
	})

	t.Run("kept promise takes no more payments", func(t *testing.T) {
		p, err := newTestPromise(t, "10").RecordPayment(dec("10"), testNow, testNow)
		require.NoError(t, err)
		_, err = p.RecordPayment(dec("1"), testNow, testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})
}

func TestPromiseToPay_BreakAndReschedule(t *testing.T) {
	t.Run("only awaiting promises can be broken", func(t *testing.T) {
		p := newTestPromise(t, "1000")
		broken, err := p.MarkAsBroken("no funds", testNow)
		require.NoError(t, err)
		assert.Equal(t, "no funds", broken.BreachReason())

		_, err = broken.MarkAsBroken("again", testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)

		partial, err := p.RecordPayment(dec("1"), testNow, testNow)
		require.NoError(t, err)
		_, err = partial.MarkAsBroken("x", testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})

	t.Run("reschedule count survives break and reschedule cycles", func(t *testing.T) {
		p := newTestPromise(t, "1000")
		var err error
		for i := 1; i <= 3; i++ {
			p, err = p.Reschedule(testNow.AddDate(0, 0, 7*i), "asked for time", testNow)
			require.NoError(t, err)
			p, err = p.MarkAsBroken("missed again", testNow)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, p.RescheduleCount())
		assert.Equal(t, valueobject.PromiseStatusBroken, p.Status())

		p, err = p.Reschedule(testNow.AddDate(0, 1, 0), "", testNow)
		require.NoError(t, err)
		assert.Equal(t, 4, p.RescheduleCount())
		assert.Equal(t, model.DateOf(testNow.AddDate(0, 1, 0)), p.PaymentDate())
	})

	t.Run("new date before the promise date is rejected", func(t *testing.T) {
		_, err := newTestPromise(t, "1000").Reschedule(testNow.AddDate(0, 0, -2), "", testNow)
		assert.ErrorIs(t, err, valueobject.ErrValidation)
	})

	t.Run("rescheduled promise cannot move again until broken", func(t *testing.T) {
		p, err := newTestPromise(t, "1000").Reschedule(testNow.AddDate(0, 0, 7), "payday", testNow)
		require.NoError(t, err)
		require.Equal(t, valueobject.PromiseStatusRescheduled, p.Status())

		again, err := p.Reschedule(testNow.AddDate(0, 0, 14), "payday moved", testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
		assert.Equal(t, 1, again.RescheduleCount())
		assert.Equal(t, model.DateOf(testNow.AddDate(0, 0, 7)), again.PaymentDate())
	})

	t.Run("kept promise cannot be rescheduled", func(t *testing.T) {
		p, err := newTestPromise(t, "5").RecordPayment(dec("5"), time.Time{}, testNow)
		require.NoError(t, err)
		_, err = p.Reschedule(testNow.AddDate(0, 0, 3), "", testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})
}

func TestPromiseToPay_Cancel(t *testing.T) {
	p := newTestPromise(t, "1000")
	cancelled, err := p.Cancel("restructured", testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PromiseStatusCancelled, cancelled.Status())
	assert.Equal(t, "Cancelled: restructured", cancelled.Notes())

	_, err = cancelled.Cancel("again", testNow)
	assert.ErrorIs(t, err, valueobject.ErrStateConflict)

	kept, err := p.RecordPayment(dec("1000"), testNow, testNow)
	require.NoError(t, err)
	_, err = kept.Cancel("too late", testNow)
	assert.ErrorIs(t, err, valueobject.ErrStateConflict)
}
