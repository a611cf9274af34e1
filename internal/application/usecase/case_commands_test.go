package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/application/usecase"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

func TestOpenCaseUseCase_Execute(t *testing.T) {
	t.Run("opens a case with derived priority and classification", func(t *testing.T) {
		f := newFixture()

		resp := f.openCase(t, "loan-1", 45, "12000", "80000")

		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, fmt.Sprintf("COL-%d-00001", time.Now().UTC().Year()), resp.CaseNumber)
		assert.Equal(t, "OPEN", resp.Status)
		assert.Equal(t, "MEDIUM", resp.Priority)
		assert.Equal(t, "SUBSTANDARD", resp.Classification)
		assert.Equal(t, 45, resp.DaysPastDueAtOpen)
		assert.True(t, dec("12000").Equal(resp.AmountOverdue))
		assert.Equal(t, []string{"collections.case.opened"}, f.outboxTypes())
	})

	t.Run("rejects a second active case for the same loan", func(t *testing.T) {
		f := newFixture()
		f.openCase(t, "loan-1", 10, "100", "1000")

		uc := usecase.NewOpenCaseUseCase(f.store, f.locker, nil, testLogger())
		_, err := uc.Execute(context.Background(), dto.OpenCaseRequest{
			TenantID:         testTenant,
			LoanID:           "loan-1",
			MemberID:         "member-1",
			DaysPastDue:      12,
			AmountOverdue:    dec("100"),
			TotalOutstanding: dec("1000"),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, valueobject.ErrInvariantViolation))
		assert.Len(t, f.outboxTypes(), 1)
	})

	t.Run("allows a new case once the previous one is closed", func(t *testing.T) {
		f := newFixture()
		first := f.openCase(t, "loan-1", 10, "100", "1000")
		_, err := f.cases().Close(context.Background(), dto.CaseReasonRequest{
			TenantID: testTenant, CaseID: first.ID, Reason: "Borrower deceased",
		})
		require.NoError(t, err)

		second := f.openCase(t, "loan-1", 5, "50", "900")
		assert.NotEqual(t, first.ID, second.ID)
		assert.NotEqual(t, first.CaseNumber, second.CaseNumber)
	})

	t.Run("rejects negative arrears", func(t *testing.T) {
		f := newFixture()
		uc := usecase.NewOpenCaseUseCase(f.store, f.locker, nil, testLogger())
		_, err := uc.Execute(context.Background(), dto.OpenCaseRequest{
			TenantID:         testTenant,
			LoanID:           "loan-1",
			MemberID:         "member-1",
			DaysPastDue:      10,
			AmountOverdue:    dec("-1"),
			TotalOutstanding: dec("1000"),
		})
		require.Error(t, err)
		assert.True(t, valueobject.IsClientError(err))
	})
}

func TestCaseCommands_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("assign then record contact", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "500", "5000")

		assigned, err := f.cases().Assign(ctx, dto.AssignCaseRequest{
			TenantID: testTenant, CaseID: c.ID, CollectorID: "collector-7", NextFollowUpDate: days(2),
		})
		require.NoError(t, err)
		assert.Equal(t, "ASSIGNED", assigned.Status)
		assert.Equal(t, "collector-7", assigned.AssignedCollectorID)
		assert.Equal(t, 2, assigned.Version)
		assert.Contains(t, f.outboxTypes(), "collections.case.status_changed")

		contacted, err := f.cases().RecordContact(ctx, dto.RecordContactRequest{TenantID: testTenant, CaseID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", contacted.Status)
		assert.Equal(t, 1, contacted.ContactAttempts)
		require.NotNil(t, contacted.LastContactDate)
		assert.Equal(t, 3, contacted.Version)
	})

	t.Run("full recovery closes the case", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")

		partial, err := f.cases().RecordRecovery(ctx, dto.CaseAmountRequest{TenantID: testTenant, CaseID: c.ID, Amount: dec("400")})
		require.NoError(t, err)
		assert.Equal(t, "OPEN", partial.Status)
		assert.True(t, dec("600").Equal(partial.AmountOverdue))

		full, err := f.cases().RecordRecovery(ctx, dto.CaseAmountRequest{TenantID: testTenant, CaseID: c.ID, Amount: dec("600")})
		require.NoError(t, err)
		assert.Equal(t, "RECOVERED", full.Status)
		assert.Equal(t, "Full recovery achieved", full.ClosureReason)
		assert.True(t, dec("1000").Equal(full.AmountRecovered))
		require.NotNil(t, full.ClosedDate)
		assert.Contains(t, f.outboxTypes(), "collections.case.recovered")
	})

	t.Run("terminal cases reject further work", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		_, err := f.cases().Settle(ctx, dto.SettleCaseRequest{TenantID: testTenant, CaseID: c.ID, Amount: dec("800"), Terms: "one-off"})
		require.NoError(t, err)

		tests := []struct {
			name string
			call func() error
		}{
			{"assign", func() error {
				_, err := f.cases().Assign(ctx, dto.AssignCaseRequest{TenantID: testTenant, CaseID: c.ID, CollectorID: "c-1"})
				return err
			}},
			{"recovery", func() error {
				_, err := f.cases().RecordRecovery(ctx, dto.CaseAmountRequest{TenantID: testTenant, CaseID: c.ID, Amount: dec("1")})
				return err
			}},
			{"escalate", func() error {
				_, err := f.cases().EscalateToLegal(ctx, dto.CaseReasonRequest{TenantID: testTenant, CaseID: c.ID, Reason: "x"})
				return err
			}},
			{"close", func() error {
				_, err := f.cases().Close(ctx, dto.CaseReasonRequest{TenantID: testTenant, CaseID: c.ID, Reason: "x"})
				return err
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.call()
				require.Error(t, err)
				assert.True(t, errors.Is(err, valueobject.ErrStateConflict))
			})
		}

		got := f.getCase(t, c.ID)
		assert.Equal(t, "SETTLED", got.Status)
		assert.Equal(t, "Settled for 800.00. Terms: one-off", got.ClosureReason)
	})

	t.Run("escalation adds a note and keeps the case active", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 120, "1000", "5000")

		resp, err := f.cases().EscalateToLegal(ctx, dto.CaseReasonRequest{TenantID: testTenant, CaseID: c.ID, Reason: "No response in 90 days"})
		require.NoError(t, err)
		assert.Equal(t, "LEGAL", resp.Status)
		assert.Contains(t, resp.Notes, "Escalated to legal: No response in 90 days")
		assert.Nil(t, resp.ClosedDate)
	})

	t.Run("unknown case is not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.cases().Close(ctx, dto.CaseReasonRequest{TenantID: testTenant, CaseID: "missing", Reason: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, valueobject.ErrNotFound))
	})

	t.Run("cases are isolated per tenant", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 20, "1000", "5000")
		_, err := f.cases().Close(ctx, dto.CaseReasonRequest{TenantID: "tenant-2", CaseID: c.ID, Reason: "x"})
		assert.True(t, errors.Is(err, valueobject.ErrNotFound))
	})
}

func TestCaseCommands_RefreshArrears(t *testing.T) {
	f := newFixture()
	c := f.openCase(t, "loan-1", 20, "1000", "5000")
	f.ledger.getArrearsFunc = func(_ context.Context, tenantID, loanID string) (port.LoanArrears, error) {
		assert.Equal(t, testTenant, tenantID)
		assert.Equal(t, "loan-1", loanID)
		return port.LoanArrears{LoanID: loanID, DaysPastDue: 95, AmountOverdue: dec("3000"), TotalOutstanding: dec("5200")}, nil
	}

	resp, err := f.cases().RefreshArrears(context.Background(), dto.CaseRef{TenantID: testTenant, CaseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, 95, resp.CurrentDaysPastDue)
	assert.Equal(t, 20, resp.DaysPastDueAtOpen)
	assert.Equal(t, "CRITICAL", resp.Priority)
	assert.Equal(t, "DOUBTFUL", resp.Classification)
	assert.Equal(t, "OPEN", resp.Status)
}

func TestCaseCommands_ConcurrentRecoveries(t *testing.T) {
	f := newFixture()
	c := f.openCase(t, "loan-1", 20, "1000", "5000")
	cmds := f.cases()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cmds.RecordRecovery(context.Background(), dto.CaseAmountRequest{
				TenantID: testTenant, CaseID: c.ID, Amount: dec("10"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got := f.getCase(t, c.ID)
	assert.True(t, dec("200").Equal(got.AmountRecovered), "recovered %s", got.AmountRecovered)
	assert.True(t, dec("800").Equal(got.AmountOverdue))
	assert.Equal(t, writers+1, got.Version)
}

func TestListCasesUseCase_Execute(t *testing.T) {
	f := newFixture()
	for i, dpd := range []int{10, 200, 60} {
		f.openCase(t, "loan-"+strconv.Itoa(i), dpd, "100", "1000")
	}
	uc := usecase.NewListCasesUseCase(f.store)

	t.Run("active cases worst arrears first", func(t *testing.T) {
		resp, err := uc.Execute(context.Background(), dto.ListCasesRequest{TenantID: testTenant})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Cases, 3)
		assert.Equal(t, 200, resp.Cases[0].CurrentDaysPastDue)
		assert.Equal(t, 60, resp.Cases[1].CurrentDaysPastDue)
		assert.Equal(t, 10, resp.Cases[2].CurrentDaysPastDue)
	})

	t.Run("paging", func(t *testing.T) {
		resp, err := uc.Execute(context.Background(), dto.ListCasesRequest{TenantID: testTenant, PageSize: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Cases, 1)
		assert.Equal(t, 10, resp.Cases[0].CurrentDaysPastDue)
	})

	t.Run("by loan", func(t *testing.T) {
		resp, err := uc.Execute(context.Background(), dto.ListCasesRequest{TenantID: testTenant, LoanID: "loan-1"})
		require.NoError(t, err)
		require.Len(t, resp.Cases, 1)
		assert.Equal(t, "loan-1", resp.Cases[0].LoanID)
	})
}
