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

func TestApplyLedgerEventUseCase_HandleArrears(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		existing    bool
		notice      dto.LoanArrearsNotice
		wantCases   int
		wantDPD     int
		wantOpenDPD int
	}{
		{
			name:        "opens a case for a newly delinquent loan",
			notice:      dto.LoanArrearsNotice{DaysPastDue: 12, AmountOverdue: dec("300"), TotalOutstanding: dec("4000")},
			wantCases:   1,
			wantDPD:     12,
			wantOpenDPD: 12,
		},
		{
			name:      "ignores a current loan without a case",
			notice:    dto.LoanArrearsNotice{DaysPastDue: 0, AmountOverdue: dec("0"), TotalOutstanding: dec("4000")},
			wantCases: 0,
		},
		{
			name:        "refreshes the active case",
			existing:    true,
			notice:      dto.LoanArrearsNotice{DaysPastDue: 64, AmountOverdue: dec("900"), TotalOutstanding: dec("4100")},
			wantCases:   1,
			wantDPD:     64,
			wantOpenDPD: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.existing {
				f.openCase(t, "loan-1", 30, "600", "4000")
			}
			uc := usecase.NewApplyLedgerEventUseCase(f.store, f.locker, nil, testLogger())
			tt.notice.TenantID = testTenant
			tt.notice.LoanID = "loan-1"
			tt.notice.MemberID = "member-1"

			require.NoError(t, uc.HandleArrears(ctx, tt.notice))

			listed, err := usecase.NewListCasesUseCase(f.store).Execute(ctx, dto.ListCasesRequest{TenantID: testTenant, LoanID: "loan-1"})
			require.NoError(t, err)
			require.Len(t, listed.Cases, tt.wantCases)
			if tt.wantCases == 0 {
				return
			}
			got := listed.Cases[0]
			assert.Equal(t, tt.wantDPD, got.CurrentDaysPastDue)
			assert.Equal(t, tt.wantOpenDPD, got.DaysPastDueAtOpen)
			assert.True(t, tt.notice.AmountOverdue.Equal(got.AmountOverdue))
		})
	}
}

func TestApplyLedgerEventUseCase_HandlePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("books a recovery on the active case", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 30, "600", "4000")
		uc := usecase.NewApplyLedgerEventUseCase(f.store, f.locker, nil, testLogger())

		err := uc.HandlePayment(ctx, dto.LoanPaymentNotice{
			TenantID: testTenant, LoanID: "loan-1", PaymentID: "pay-1", Amount: dec("600"),
		})
		require.NoError(t, err)

		got := f.getCase(t, c.ID)
		assert.Equal(t, "RECOVERED", got.Status)
		assert.True(t, dec("600").Equal(got.AmountRecovered))
		assert.Empty(t, f.ledger.postings, "ledger payments are not posted back")
	})

	t.Run("ignores loans without an active case", func(t *testing.T) {
		f := newFixture()
		uc := usecase.NewApplyLedgerEventUseCase(f.store, f.locker, nil, testLogger())

		err := uc.HandlePayment(ctx, dto.LoanPaymentNotice{
			TenantID: testTenant, LoanID: "loan-404", PaymentID: "pay-1", Amount: dec("10"),
		})
		require.NoError(t, err)
		assert.Empty(t, f.outboxTypes())
	})

	t.Run("redelivered payment is applied once", func(t *testing.T) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 30, "600", "4000")
		uc := usecase.NewApplyLedgerEventUseCase(f.store, f.locker, nil, testLogger())
		notice := dto.LoanPaymentNotice{TenantID: testTenant, LoanID: "loan-1", PaymentID: "pay-7", Amount: dec("200")}

		require.NoError(t, uc.HandlePayment(ctx, notice))
		require.NoError(t, uc.HandlePayment(ctx, notice))

		got := f.getCase(t, c.ID)
		assert.True(t, dec("200").Equal(got.AmountRecovered), "recovered %s", got.AmountRecovered)
		assert.True(t, dec("400").Equal(got.AmountOverdue), "overdue %s", got.AmountOverdue)

		notice.PaymentID = "pay-8"
		require.NoError(t, uc.HandlePayment(ctx, notice))
		got = f.getCase(t, c.ID)
		assert.True(t, dec("400").Equal(got.AmountRecovered))
	})

	t.Run("payment without an id is rejected", func(t *testing.T) {
		f := newFixture()
		f.openCase(t, "loan-1", 30, "600", "4000")
		uc := usecase.NewApplyLedgerEventUseCase(f.store, f.locker, nil, testLogger())

		err := uc.HandlePayment(ctx, dto.LoanPaymentNotice{TenantID: testTenant, LoanID: "loan-1", Amount: dec("10")})
		assert.True(t, errors.Is(err, valueobject.ErrValidation))
	})
}
