// Package kafka adapts the collections service to the Kafka event bus: the
// outbox publisher and the loan ledger feed handler.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
	pkgkafka "github.com/bibbank/collections-service/pkg/kafka"
)

// Ledger feed event types.
const (
	EventLoanArrearsUpdated = "lending.loan.arrears_updated"
	EventLoanPaymentPosted  = "lending.loan.payment_received"
)

// LedgerEventHandler applies ledger notices to collection cases.
type LedgerEventHandler interface {
	HandleArrears(ctx context.Context, n dto.LoanArrearsNotice) error
	HandlePayment(ctx context.Context, n dto.LoanPaymentNotice) error
}

// LedgerFeed decodes messages from the lending topic and dispatches them.
type LedgerFeed struct {
	handler LedgerEventHandler
	logger  *slog.Logger
}

func NewLedgerFeed(handler LedgerEventHandler, logger *slog.Logger) *LedgerFeed {
	return &LedgerFeed{handler: handler, logger: logger}
}

// envelope is the lending service's event body. The event type travels in
// the event_type header; the body field is the fallback.
type envelope struct {
	EventType string `json:"event_type"`
}

// Handle is a pkgkafka.Handler. Messages that can never apply (unknown
// type, bad JSON, failed validation) are skipped rather than retried.
func (f *LedgerFeed) Handle(ctx context.Context, msg pkgkafka.Message) error {
	eventType := msg.Headers["event_type"]
	if eventType == "" {
		var env envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			return fmt.Errorf("decode ledger event: %v: %w", err, pkgkafka.ErrSkip)
		}
		eventType = env.EventType
	}

	var err error
	switch eventType {
	case EventLoanArrearsUpdated:
		var n dto.LoanArrearsNotice
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			return fmt.Errorf("decode %s: %v: %w", eventType, err, pkgkafka.ErrSkip)
		}
		err = f.handler.HandleArrears(ctx, n)
	case EventLoanPaymentPosted:
		var n dto.LoanPaymentNotice
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			return fmt.Errorf("decode %s: %v: %w", eventType, err, pkgkafka.ErrSkip)
		}
		err = f.handler.HandlePayment(ctx, n)
	default:
		f.logger.DebugContext(ctx, "ignoring ledger event", "event_type", eventType, "topic", msg.Topic)
		return nil
	}

	if err == nil {
		return nil
	}
	if valueobject.IsClientError(err) {
		return fmt.Errorf("%s: %v: %w", eventType, err, pkgkafka.ErrSkip)
	}
	return fmt.Errorf("%s: %w", eventType, err)
}
