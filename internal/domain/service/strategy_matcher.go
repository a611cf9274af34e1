package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/model"
)

// CaseProfile is the slice of a case a strategy is matched against.
type CaseProfile struct {
	CaseID        string
	DaysPastDue   int
	Outstanding   decimal.Decimal
	LoanProductID string
}

// StrategyMatcher picks the strategies that should fire for a case.
type StrategyMatcher struct{}

// NewStrategyMatcher creates a new strategy matcher.
func NewStrategyMatcher() *StrategyMatcher {
	return &StrategyMatcher{}
}

// Match returns the strategies that apply to the case on the given day,
// ordered by priority ascending. Ties keep creation order.
func (m *StrategyMatcher) Match(strategies []model.CollectionStrategy, profile CaseProfile, today time.Time) []model.CollectionStrategy {
	matched := make([]model.CollectionStrategy, 0, len(strategies))
	for _, s := range strategies {
		if s.AppliesTo(profile.DaysPastDue, profile.Outstanding, profile.LoanProductID, today) {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority() != matched[j].Priority() {
			return matched[i].Priority() < matched[j].Priority()
		}
		return matched[i].CreatedAt().Before(matched[j].CreatedAt())
	})
	return matched
}

// Due drops strategies whose repetition rules say they should not fire again
// for this case yet. A strategy without a repeat interval fires once per
// case. With an interval it fires again once that many days have passed
// since its last run, up to MaxRepetitions runs in total (zero means no cap).
func (m *StrategyMatcher) Due(matched []model.CollectionStrategy, history []model.StrategyExecution, caseID string, today time.Time) []model.CollectionStrategy {
	day := model.DateOf(today)
	due := make([]model.CollectionStrategy, 0, len(matched))
	for _, s := range matched {
		runs, last := executionsFor(history, caseID, s.ID())
		switch {
		case runs == 0:
			due = append(due, s)
		case !s.Repeats():
		case s.MaxRepetitions() > 0 && runs >= s.MaxRepetitions():
		case day.Sub(last) >= time.Duration(s.RepeatIntervalDays())*24*time.Hour:
			due = append(due, s)
		}
	}
	return due
}

// Evaluate matches, orders and filters strategies for one case.
func (m *StrategyMatcher) Evaluate(
	strategies []model.CollectionStrategy,
	history []model.StrategyExecution,
	profile CaseProfile,
	today time.Time,
) []model.CollectionStrategy {
	return m.Due(m.Match(strategies, profile, today), history, profile.CaseID, today)
}

func executionsFor(history []model.StrategyExecution, caseID, strategyID string) (int, time.Time) {
	var (
		runs int
		last time.Time
	)
	for _, e := range history {
		if e.CaseID() != caseID || e.StrategyID() != strategyID {
			continue
		}
		runs++
		if e.ExecutedOn().After(last) {
			last = e.ExecutedOn()
		}
	}
	return runs, last
}
