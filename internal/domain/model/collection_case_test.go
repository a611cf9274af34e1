package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestCase(t *testing.T) model.CollectionCase {
	t.Helper()
	c, err := model.NewCollectionCase("tenant-1", " CC-0001 ", "loan-1", "member-1", 45, dec("75000"), dec("200000"), testNow)
	require.NoError(t, err)
	return c.ClearEvents()
}

func newTestAction(t *testing.T, c model.CollectionCase, outcome valueobject.ActionOutcome) model.CollectionAction {
	t.Helper()
	a, err := model.NewCollectionAction(
		c.ID(), c.LoanID(), c.TenantID(),
		valueobject.ActionTypePhoneCall, outcome,
		"collector-1", testNow, "called borrower", testNow,
	)
	require.NoError(t, err)
	return a
}

func withPromise(t *testing.T, c model.CollectionCase, amount string) (model.CollectionCase, model.PromiseToPay) {
	t.Helper()
	a := newTestAction(t, c, valueobject.ActionOutcomePromisedToPay)
	next, p, err := c.RecordAction(a, &model.PromiseTerms{Amount: dec(amount), PaymentDate: testNow.AddDate(0, 0, 7)}, testNow)
	require.NoError(t, err)
	require.NotNil(t, p)
	return next, *p
}

func TestNewCollectionCase(t *testing.T) {
	t.Run("opens with derived priority and classification", func(t *testing.T) {
		c, err := model.NewCollectionCase("tenant-1", " CC-0001 ", "loan-1", "member-1", 45, dec("75000"), dec("200000"), testNow)
		require.NoError(t, err)

		assert.NotEmpty(t, c.ID())
		assert.Equal(t, "CC-0001", c.CaseNumber())
		assert.Equal(t, valueobject.CaseStatusOpen, c.Status())
		assert.Equal(t, valueobject.CasePriorityHigh, c.Priority())
		assert.Equal(t, valueobject.ClassificationSubstandard, c.Classification())
		assert.Equal(t, 45, c.DaysPastDueAtOpen())
		assert.True(t, c.AmountRecovered().IsZero())
		assert.Equal(t, model.DateOf(testNow), c.OpenedDate())

		require.Len(t, c.DomainEvents(), 1)
		assert.Equal(t, "collections.case.opened", c.DomainEvents()[0].EventType())
		assert.Equal(t, c.ID(), c.DomainEvents()[0].AggregateID())
	})

	tests := []struct {
		name     string
		tenantID string
		number   string
		loanID   string
		memberID string
		days     int
		overdue  string
	}{
		{"missing tenant", "", "CC-1", "loan", "member", 1, "1"},
		{"blank case number", "t", "  ", "loan", "member", 1, "1"},
		{"missing loan", "t", "CC-1", "", "member", 1, "1"},
		{"missing member", "t", "CC-1", "loan", "", 1, "1"},
		{"negative days", "t", "CC-1", "loan", "member", -1, "1"},
		{"negative overdue", "t", "CC-1", "loan", "member", 1, "-1"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := model.NewCollectionCase(tt.tenantID, tt.number, tt.loanID, tt.memberID, tt.days, dec(tt.overdue), dec("10"), testNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, valueobject.ErrValidation)
		})
	}
}

func TestCollectionCase_Assign(t *testing.T) {
	t.Run("OPEN moves to ASSIGNED", func(t *testing.T) {
		c := newTestCase(t)
		followUp := testNow.AddDate(0, 0, 3)

		assigned, err := c.Assign("collector-9", followUp, testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.CaseStatusAssigned, assigned.Status())
		assert.Equal(t, "collector-9", assigned.AssignedCollectorID())
		assert.Equal(t, model.DateOf(followUp), assigned.NextFollowUpDate())
		require.Len(t, assigned.DomainEvents(), 2)
		assert.Equal(t, "collections.case.assigned", assigned.DomainEvents()[0].EventType())
		changed, ok := assigned.DomainEvents()[1].(event.CaseStatusChanged)
		require.True(t, ok)
		assert.Equal(t, "OPEN", changed.From)
		assert.Equal(t, "ASSIGNED", changed.To)

		// original untouched
		assert.Equal(t, valueobject.CaseStatusOpen, c.Status())
		assert.Empty(t, c.AssignedCollectorID())
	})

	t.Run("PROMISE_TO_PAY keeps its status", func(t *testing.T) {
		c, _ := withPromise(t, newTestCase(t), "1000")
		assigned, err := c.ClearEvents().Assign("collector-2", time.Time{}, testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.CaseStatusPromiseToPay, assigned.Status())
		assert.Equal(t, "collector-2", assigned.AssignedCollectorID())
		require.Len(t, assigned.DomainEvents(), 1)
		assert.Equal(t, "collections.case.assigned", assigned.DomainEvents()[0].EventType())
	})

	t.Run("terminal case is a state conflict", func(t *testing.T) {
		closed, err := newTestCase(t).Close("duplicate", testNow)
		require.NoError(t, err)

		_, err = closed.Assign("collector-1", time.Time{}, testNow)
		var conflict *valueobject.StateConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "CLOSED", conflict.Status)
	})

	t.Run("collector is required", func(t *testing.T) {
		_, err := newTestCase(t).Assign("", time.Time{}, testNow)
		assert.ErrorIs(t, err, valueobject.ErrValidation)
	})
}

func TestCollectionCase_RecordContact(t *testing.T) {
	c := newTestCase(t)
	contact := testNow.AddDate(0, 0, -1)

	var err error
	for i := 0; i < 3; i++ {
		c, err = c.RecordContact(contact, time.Time{}, testNow)
		require.NoError(t, err)
	}

	assert.Equal(t, valueobject.CaseStatusInProgress, c.Status())
	assert.Equal(t, 3, c.ContactAttempts())
	assert.Equal(t, model.DateOf(contact), c.LastContactDate())
}

func TestCollectionCase_RecordAction(t *testing.T) {
	t.Run("no answer does not count as contact", func(t *testing.T) {
		c := newTestCase(t)
		next, p, err := c.RecordAction(newTestAction(t, c, valueobject.ActionOutcomeNoAnswer), nil, testNow)
		require.NoError(t, err)
		assert.Nil(t, p)
		assert.Len(t, next.Actions(), 1)
		assert.Equal(t, 0, next.ContactAttempts())
		assert.Equal(t, valueobject.CaseStatusOpen, next.Status())
	})

	t.Run("reaching the borrower counts as contact", func(t *testing.T) {
		c := newTestCase(t)
		next, _, err := c.RecordAction(newTestAction(t, c, valueobject.ActionOutcomeContacted), nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, next.ContactAttempts())
		assert.Equal(t, valueobject.CaseStatusInProgress, next.Status())
	})

	t.Run("promise is created with the action", func(t *testing.T) {
		c, p := withPromise(t, newTestCase(t), "5000")

		assert.Equal(t, valueobject.CaseStatusPromiseToPay, c.Status())
		require.Len(t, c.Actions(), 1)
		require.Len(t, c.Promises(), 1)
		assert.Equal(t, p.ID(), c.Actions()[0].PromiseID())
		assert.Equal(t, c.Actions()[0].ID(), p.ActionID())
		assert.Equal(t, valueobject.PromiseStatusPending, p.Status())

		var types []string
		for _, e := range c.DomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Contains(t, types, "collections.case.action_recorded")
		assert.Contains(t, types, "collections.promise.created")
	})

	t.Run("invalid promise leaves the case untouched", func(t *testing.T) {
		c := newTestCase(t)
		a := newTestAction(t, c, valueobject.ActionOutcomePromisedToPay)
		next, p, err := c.RecordAction(a, &model.PromiseTerms{Amount: decimal.Zero, PaymentDate: testNow}, testNow)
		require.ErrorIs(t, err, valueobject.ErrValidation)
		assert.Nil(t, p)
		assert.Empty(t, next.Actions())
	})

	t.Run("action from another case is rejected", func(t *testing.T) {
		c := newTestCase(t)
		other := newTestCase(t)
		_, _, err := c.RecordAction(newTestAction(t, other, valueobject.ActionOutcomeContacted), nil, testNow)
		assert.ErrorIs(t, err, valueobject.ErrValidation)
	})

	t.Run("same action twice is rejected", func(t *testing.T) {
		c := newTestCase(t)
		a := newTestAction(t, c, valueobject.ActionOutcomeNoAnswer)
		c, _, err := c.RecordAction(a, nil, testNow)
		require.NoError(t, err)
		_, _, err = c.RecordAction(a, nil, testNow)
		assert.ErrorIs(t, err, valueobject.ErrInvariantViolation)
	})
}

func TestCollectionCase_AddActionNote(t *testing.T) {
	c := newTestCase(t)
	a := newTestAction(t, c, valueobject.ActionOutcomeNoAnswer).WithNotes("first")
	c, _, err := c.RecordAction(a, nil, testNow)
	require.NoError(t, err)

	c, err = c.AddActionNote(a.ID(), "second", testNow)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", c.Actions()[0].Notes())

	_, err = c.AddActionNote("missing", "x", testNow)
	assert.ErrorIs(t, err, valueobject.ErrNotFound)
}

func TestCollectionCase_RecordRecovery(t *testing.T) {
	t.Run("partial recovery reduces overdue", func(t *testing.T) {
		c := newTestCase(t)
		next, err := c.RecordRecovery(dec("30000"), testNow)
		require.NoError(t, err)

		assert.True(t, next.AmountRecovered().Equal(dec("30000")))
		assert.True(t, next.AmountOverdue().Equal(dec("45000")))
		assert.Equal(t, valueobject.CaseStatusOpen, next.Status())
		assert.Equal(t, valueobject.CasePriorityMedium, next.Priority())
	})

	t.Run("over-recovery floors overdue at zero and recovers the case", func(t *testing.T) {
		c := newTestCase(t)
		next, err := c.RecordRecovery(dec("80000"), testNow)
		require.NoError(t, err)

		assert.True(t, next.AmountOverdue().IsZero())
		assert.True(t, next.AmountRecovered().Equal(dec("80000")))
		assert.Equal(t, valueobject.CaseStatusRecovered, next.Status())
		assert.Equal(t, "Full recovery achieved", next.ClosureReason())
		assert.Equal(t, model.DateOf(testNow), next.ClosedDate())

		var recovered bool
		for _, e := range next.DomainEvents() {
			if e.EventType() == "collections.case.recovered" {
				recovered = true
			}
		}
		assert.True(t, recovered)

		_, err = next.RecordRecovery(dec("1"), testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := newTestCase(t).RecordRecovery(decimal.Zero, testNow)
		assert.ErrorIs(t, err, valueobject.ErrValidation)
	})

	t.Run("overdue never increases through recoveries", func(t *testing.T) {
		c := newTestCase(t)
		prev := c.AmountOverdue()
		for _, amt := range []string{"100", "2500.50", "0.01", "1000"} {
			var err error
			c, err = c.RecordRecovery(dec(amt), testNow)
			require.NoError(t, err)
			assert.True(t, c.AmountOverdue().LessThanOrEqual(prev))
			prev = c.AmountOverdue()
		}
		assert.True(t, c.AmountRecovered().Equal(dec("3600.51")))
	})
}

func TestCollectionCase_TerminalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		apply  func(model.CollectionCase) (model.CollectionCase, error)
		status valueobject.CaseStatus
	}{
		{"settle", func(c model.CollectionCase) (model.CollectionCase, error) {
			return c.Settle(dec("50000"), "lump sum by April", testNow)
		}, valueobject.CaseStatusSettled},
		{"close", func(c model.CollectionCase) (model.CollectionCase, error) {
			return c.Close("borrower deceased", testNow)
		}, valueobject.CaseStatusClosed},
		{"write off", func(c model.CollectionCase) (model.CollectionCase, error) {
			return c.MarkWrittenOff("WO-1", testNow)
		}, valueobject.CaseStatusWrittenOff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := tt.apply(newTestCase(t))
			require.NoError(t, err)
			assert.Equal(t, tt.status, next.Status())
			assert.True(t, next.Status().IsTerminal())
			assert.False(t, next.ClosedDate().IsZero())

			again, err := tt.apply(next)
			assert.ErrorIs(t, err, valueobject.ErrStateConflict)
			assert.Equal(t, next.Status(), again.Status())

			_, err = next.RecordContact(testNow, time.Time{}, testNow)
			assert.ErrorIs(t, err, valueobject.ErrStateConflict)
		})
	}

	t.Run("settle closure reason carries the amount", func(t *testing.T) {
		next, err := newTestCase(t).Settle(dec("50000"), "lump sum", testNow)
		require.NoError(t, err)
		assert.Equal(t, "Settled for 50000.00. Terms: lump sum", next.ClosureReason())
	})
}

func TestCollectionCase_EscalateToLegal(t *testing.T) {
	c := newTestCase(t)
	legal, err := c.EscalateToLegal("no response to demand notice", testNow)
	require.NoError(t, err)

	assert.Equal(t, valueobject.CaseStatusLegal, legal.Status())
	assert.False(t, legal.Status().IsTerminal())
	assert.Equal(t, []string{"Escalated to legal: no response to demand notice"}, legal.Notes())

	_, err = legal.EscalateToLegal("again", testNow)
	assert.ErrorIs(t, err, valueobject.ErrStateConflict)

	_, err = c.EscalateToLegal(" ", testNow)
	assert.ErrorIs(t, err, valueobject.ErrValidation)

	// recoveries still post while legal runs
	recovered, err := legal.RecordRecovery(dec("75000"), testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.CaseStatusRecovered, recovered.Status())
}

func TestCollectionCase_UpdateArrears(t *testing.T) {
	c, err := newTestCase(t).Assign("collector-1", time.Time{}, testNow)
	require.NoError(t, err)

	updated, err := c.UpdateArrears(181, dec("5000"), dec("9000"), testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.CaseStatusAssigned, updated.Status())
	assert.Equal(t, valueobject.ClassificationLoss, updated.Classification())
	assert.Equal(t, valueobject.CasePriorityCritical, updated.Priority())
	assert.Equal(t, 181, updated.CurrentDaysPastDue())
	assert.Equal(t, 45, updated.DaysPastDueAtOpen())

	boundary, err := updated.UpdateArrears(30, dec("10000"), dec("10000"), testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ClassificationWatch, boundary.Classification())
	assert.Equal(t, valueobject.CasePriorityLow, boundary.Priority())

	_, err = c.UpdateArrears(-1, dec("1"), dec("1"), testNow)
	assert.ErrorIs(t, err, valueobject.ErrValidation)
}

func TestCollectionCase_PromiseLifecycle(t *testing.T) {
	t.Run("partial then full payment keeps the promise", func(t *testing.T) {
		c, p := withPromise(t, newTestCase(t), "1000")

		c, err := c.RecordPromisePayment(p.ID(), dec("400"), testNow, testNow)
		require.NoError(t, err)
		got, err := c.Promise(p.ID())
		require.NoError(t, err)
		assert.Equal(t, valueobject.PromiseStatusPartial, got.Status())
		assert.Equal(t, valueobject.CaseStatusInProgress, c.Status())

		c, err = c.RecordPromisePayment(p.ID(), dec("600"), testNow, testNow)
		require.NoError(t, err)
		got, _ = c.Promise(p.ID())
		assert.Equal(t, valueobject.PromiseStatusKept, got.Status())
		assert.True(t, got.AmountPaid().Equal(dec("1000")))
	})

	t.Run("breaking the last awaiting promise returns the case to IN_PROGRESS", func(t *testing.T) {
		c, p := withPromise(t, newTestCase(t), "1000")

		c, err := c.BreakPromise(p.ID(), "no funds", testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.CaseStatusInProgress, c.Status())

		c, err = c.ReschedulePromise(p.ID(), testNow.AddDate(0, 0, 14), "salary delayed", testNow)
		require.NoError(t, err)
		assert.Equal(t, valueobject.CaseStatusPromiseToPay, c.Status())
		got, _ := c.Promise(p.ID())
		assert.Equal(t, 1, got.RescheduleCount())
	})

	t.Run("unknown promise is not found", func(t *testing.T) {
		_, err := newTestCase(t).BreakPromise("nope", "x", testNow)
		assert.ErrorIs(t, err, valueobject.ErrNotFound)
	})

	t.Run("cancel on a closed case is rejected", func(t *testing.T) {
		c, p := withPromise(t, newTestCase(t), "1000")
		c, err := c.Close("sold", testNow)
		require.NoError(t, err)
		_, err = c.CancelPromise(p.ID(), "case closed", testNow)
		assert.ErrorIs(t, err, valueobject.ErrStateConflict)
	})

	t.Run("overdue promises", func(t *testing.T) {
		c, p := withPromise(t, newTestCase(t), "1000")
		assert.Empty(t, c.OverduePromises(p.PaymentDate()))
		overdue := c.OverduePromises(p.PaymentDate().AddDate(0, 0, 1))
		require.Len(t, overdue, 1)
		assert.Equal(t, p.ID(), overdue[0].ID())
	})
}
