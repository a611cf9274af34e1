package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/event"
)

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}

func appendNote(notes []string, note string) []string {
	out := make([]string, len(notes)+1)
	copy(out, notes)
	out[len(notes)] = note
	return out
}

// DateOf truncates t to a UTC calendar date. Business dates (promise dates,
// hearing dates, follow-ups) carry no time of day.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// floorZero clamps negative balances to zero.
func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
