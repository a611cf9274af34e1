package kafka_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
	"github.com/bibbank/collections-service/internal/infrastructure/kafka"
	"github.com/bibbank/collections-service/pkg/events"
	pkgkafka "github.com/bibbank/collections-service/pkg/kafka"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockProducer struct {
	publishFunc func(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

func (m *mockProducer) Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error {
	return m.publishFunc(ctx, topic, messages...)
}

func TestOutboxPublisher_PublishEntries(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	entries := []events.OutboxEntry{
		{ID: "evt-1", AggregateID: "case-1", AggregateType: "CollectionCase", EventType: "collections.case.opened", TenantID: "t1", Payload: []byte(`{}`), CreatedAt: created},
		{ID: "evt-2", AggregateID: "case-1", AggregateType: "CollectionCase", EventType: "collections.case.assigned", TenantID: "t1", Payload: []byte(`{}`), CreatedAt: created},
	}

	t.Run("keys by aggregate and carries headers", func(t *testing.T) {
		var (
			gotTopic string
			got      []pkgkafka.Message
		)
		p := kafka.NewOutboxPublisher(&mockProducer{
			publishFunc: func(_ context.Context, topic string, messages ...pkgkafka.Message) error {
				gotTopic, got = topic, messages
				return nil
			},
		}, "collections.events", testLogger())

		require.NoError(t, p.PublishEntries(context.Background(), entries))
		assert.Equal(t, "collections.events", gotTopic)
		require.Len(t, got, 2)
		assert.Equal(t, "case-1", string(got[0].Key))
		assert.Equal(t, "collections.case.opened", got[0].Headers["event_type"])
		assert.Equal(t, "evt-2", got[1].Headers["event_id"])
		assert.Equal(t, "CollectionCase", got[1].Headers["aggregate_type"])
		assert.Equal(t, created, got[0].Time)
	})

	t.Run("wraps producer errors", func(t *testing.T) {
		p := kafka.NewOutboxPublisher(&mockProducer{
			publishFunc: func(context.Context, string, ...pkgkafka.Message) error { return errors.New("leader not available") },
		}, "collections.events", testLogger())

		err := p.PublishEntries(context.Background(), entries)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "leader not available")
	})
}

type mockLedgerHandler struct {
	arrearsFunc func(ctx context.Context, n dto.LoanArrearsNotice) error
	paymentFunc func(ctx context.Context, n dto.LoanPaymentNotice) error
}

func (m *mockLedgerHandler) HandleArrears(ctx context.Context, n dto.LoanArrearsNotice) error {
	if m.arrearsFunc == nil {
		return nil
	}
	return m.arrearsFunc(ctx, n)
}

func (m *mockLedgerHandler) HandlePayment(ctx context.Context, n dto.LoanPaymentNotice) error {
	if m.paymentFunc == nil {
		return nil
	}
	return m.paymentFunc(ctx, n)
}

func TestLedgerFeed_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("routes arrears by header", func(t *testing.T) {
		var got dto.LoanArrearsNotice
		feed := kafka.NewLedgerFeed(&mockLedgerHandler{
			arrearsFunc: func(_ context.Context, n dto.LoanArrearsNotice) error { got = n; return nil },
		}, testLogger())

		err := feed.Handle(ctx, pkgkafka.Message{
			Headers: map[string]string{"event_type": kafka.EventLoanArrearsUpdated},
			Value:   []byte(`{"tenant_id":"t1","loan_id":"loan-1","member_id":"m1","days_past_due":31,"amount_overdue":"250.00","total_outstanding":"4000"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "loan-1", got.LoanID)
		assert.Equal(t, 31, got.DaysPastDue)
		assert.True(t, decimal.RequireFromString("250").Equal(got.AmountOverdue))
	})

	t.Run("falls back to the body event type", func(t *testing.T) {
		var got dto.LoanPaymentNotice
		feed := kafka.NewLedgerFeed(&mockLedgerHandler{
			paymentFunc: func(_ context.Context, n dto.LoanPaymentNotice) error { got = n; return nil },
		}, testLogger())

		err := feed.Handle(ctx, pkgkafka.Message{
			Value: []byte(`{"event_type":"lending.loan.payment_received","tenant_id":"t1","loan_id":"loan-1","payment_id":"pay-9","amount":"100"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "pay-9", got.PaymentID)
	})

	t.Run("ignores other events", func(t *testing.T) {
		feed := kafka.NewLedgerFeed(&mockLedgerHandler{}, testLogger())
		err := feed.Handle(ctx, pkgkafka.Message{Headers: map[string]string{"event_type": "lending.loan.disbursed"}, Value: []byte(`{}`)})
		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		value    string
		handlErr error
		wantSkip bool
	}{
		{name: "malformed body", value: `{not json`, wantSkip: true},
		{name: "validation failure", value: `{}`, handlErr: valueobject.NewValidation("loan_id", "is required"), wantSkip: true},
		{name: "state conflict", value: `{}`, handlErr: valueobject.ErrStateConflict, wantSkip: true},
		{name: "lost race is retried", value: `{}`, handlErr: valueobject.ErrConcurrentModification},
		{name: "infrastructure failure is retried", value: `{}`, handlErr: errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := kafka.NewLedgerFeed(&mockLedgerHandler{
				arrearsFunc: func(context.Context, dto.LoanArrearsNotice) error { return tt.handlErr },
			}, testLogger())

			err := feed.Handle(ctx, pkgkafka.Message{
				Headers: map[string]string{"event_type": kafka.EventLoanArrearsUpdated},
				Value:   []byte(tt.value),
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantSkip, errors.Is(err, pkgkafka.ErrSkip))
		})
	}
}
