// Package memory is a process-local implementation of the persistence ports.
// It backs the use case tests and single-instance development runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
	"github.com/bibbank/collections-service/pkg/events"
)

type tables struct {
	cases       map[string]model.CollectionCase
	strategies  map[string]model.CollectionStrategy
	executions  map[string]model.StrategyExecution
	settlements map[string]model.DebtSettlement
	legal       map[string]model.LegalAction
	writeOffs   map[string]model.LoanWriteOff
	sequences   map[string]int
	processed   map[string]time.Time
}

func newTables() tables {
	return tables{
		cases:       map[string]model.CollectionCase{},
		strategies:  map[string]model.CollectionStrategy{},
		executions:  map[string]model.StrategyExecution{},
		settlements: map[string]model.DebtSettlement{},
		legal:       map[string]model.LegalAction{},
		writeOffs:   map[string]model.LoanWriteOff{},
		sequences:   map[string]int{},
		processed:   map[string]time.Time{},
	}
}

func (t tables) clone() tables {
	return tables{
		cases:       maps.Clone(t.cases),
		strategies:  maps.Clone(t.strategies),
		executions:  maps.Clone(t.executions),
		settlements: maps.Clone(t.settlements),
		legal:       maps.Clone(t.legal),
		writeOffs:   maps.Clone(t.writeOffs),
		sequences:   maps.Clone(t.sequences),
		processed:   maps.Clone(t.processed),
	}
}

// Store holds every aggregate and the outbox. Units of work run one at a
// time against a copy of the tables that replaces the original on success.
type Store struct {
	mu     sync.Mutex
	data   tables
	outbox []events.OutboxEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

var (
	_ port.UnitOfWork         = (*Store)(nil)
	_ events.OutboxRepository = (*Store)(nil)
)

// Do runs fn against a private copy of the tables and commits it, together
// with the recorded events, only if fn succeeds.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	collector := &events.EventCollector{}
	repos := port.Repositories{
		Cases:        caseRepo{t: work},
		Strategies:   strategyRepo{t: work},
		Executions:   executionRepo{t: work},
		Settlements:  settlementRepo{t: work},
		LegalActions: legalRepo{t: work},
		WriteOffs:    writeOffRepo{t: work},
		Processed:    processedRepo{t: work},
		Events:       collector,
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	entries, err := events.NewOutboxEntries(collector.Events())
	if err != nil {
		return fmt.Errorf("build outbox entries: %w", err)
	}
	s.data = work
	s.outbox = append(s.outbox, entries...)
	return nil
}

// ---------------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------------

// Store appends entries to the outbox.
func (s *Store) Store(_ context.Context, entries []events.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, entries...)
	return nil
}

// FetchUnpublished returns up to batchSize unpublished entries, oldest first.
func (s *Store) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.OutboxEntry
	for _, e := range s.outbox {
		if e.PublishedAt == nil {
			out = append(out, e)
			if len(out) == batchSize {
				break
			}
		}
	}
	return out, nil
}

// MarkPublished stamps the given entries as published.
func (s *Store) MarkPublished(_ context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range s.outbox {
		if want[s.outbox[i].ID] {
			published := at
			s.outbox[i].PublishedAt = &published
		}
	}
	return nil
}

// Outbox returns a copy of every outbox entry.
func (s *Store) Outbox() []events.OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.OutboxEntry(nil), s.outbox...)
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

func key(tenantID, id string) string { return tenantID + "/" + id }

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, valueobject.ErrNotFound)
}

func conflict(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, valueobject.ErrConcurrentModification)
}

// checkVersion enforces optimistic locking: the caller must hold the stored
// version, and a new row must start at zero.
func checkVersion(stored, incoming int, exists bool) bool {
	if !exists {
		return incoming == 0
	}
	return stored == incoming
}

type caseRepo struct{ t tables }

func (r caseRepo) Save(_ context.Context, c model.CollectionCase) error {
	k := key(c.TenantID(), c.ID())
	stored, ok := r.t.cases[k]
	if !checkVersion(stored.Version(), c.Version(), ok) {
		return conflict("collection case", c.ID())
	}
	for _, other := range r.t.cases {
		if other.TenantID() == c.TenantID() && other.CaseNumber() == c.CaseNumber() && other.ID() != c.ID() {
			return valueobject.NewValidation("case_number", "is already in use")
		}
	}
	st := c.State()
	st.Version++
	r.t.cases[k] = model.ReconstructCollectionCase(st, c.Actions(), c.Promises())
	return nil
}

func (r caseRepo) FindByID(_ context.Context, tenantID, id string) (model.CollectionCase, error) {
	c, ok := r.t.cases[key(tenantID, id)]
	if !ok {
		return model.CollectionCase{}, notFound("collection case", id)
	}
	return c, nil
}

func (r caseRepo) FindActiveByLoanID(_ context.Context, tenantID, loanID string) (model.CollectionCase, error) {
	for _, c := range r.t.cases {
		if c.TenantID() == tenantID && c.LoanID() == loanID && c.IsActive() {
			return c, nil
		}
	}
	return model.CollectionCase{}, notFound("active case for loan", loanID)
}

func (r caseRepo) ListByLoanID(_ context.Context, tenantID, loanID string) ([]model.CollectionCase, error) {
	var out []model.CollectionCase
	for _, c := range r.t.cases {
		if c.TenantID() == tenantID && c.LoanID() == loanID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (r caseRepo) ListActive(_ context.Context, tenantID string, limit, offset int) ([]model.CollectionCase, int, error) {
	var active []model.CollectionCase
	for _, c := range r.t.cases {
		if c.TenantID() == tenantID && c.IsActive() {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].CurrentDaysPastDue() != active[j].CurrentDaysPastDue() {
			return active[i].CurrentDaysPastDue() > active[j].CurrentDaysPastDue()
		}
		return active[i].CaseNumber() < active[j].CaseNumber()
	})
	total := len(active)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return active[offset:end], total, nil
}

func (r caseRepo) NextCaseNumber(_ context.Context, tenantID string, openedOn time.Time) (string, error) {
	year := openedOn.UTC().Year()
	k := fmt.Sprintf("%s/%d", tenantID, year)
	r.t.sequences[k]++
	return fmt.Sprintf("COL-%d-%05d", year, r.t.sequences[k]), nil
}

type strategyRepo struct{ t tables }

func (r strategyRepo) Save(_ context.Context, s model.CollectionStrategy) error {
	k := key(s.TenantID(), s.ID())
	stored, ok := r.t.strategies[k]
	if !checkVersion(stored.Version(), s.Version(), ok) {
		return conflict("collection strategy", s.ID())
	}
	st := s.State()
	st.Version++
	r.t.strategies[k] = model.ReconstructCollectionStrategy(st)
	return nil
}

func (r strategyRepo) FindByID(_ context.Context, tenantID, id string) (model.CollectionStrategy, error) {
	s, ok := r.t.strategies[key(tenantID, id)]
	if !ok {
		return model.CollectionStrategy{}, notFound("collection strategy", id)
	}
	return s, nil
}

func (r strategyRepo) FindByCode(_ context.Context, tenantID, code string) (model.CollectionStrategy, error) {
	for _, s := range r.t.strategies {
		if s.TenantID() == tenantID && s.Code() == code {
			return s, nil
		}
	}
	return model.CollectionStrategy{}, notFound("collection strategy", code)
}

func (r strategyRepo) ListActive(_ context.Context, tenantID string) ([]model.CollectionStrategy, error) {
	var out []model.CollectionStrategy
	for _, s := range r.t.strategies {
		if s.TenantID() == tenantID && s.IsActive() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

type executionRepo struct{ t tables }

func (r executionRepo) Save(_ context.Context, e model.StrategyExecution) error {
	r.t.executions[key(e.TenantID(), e.ID())] = e
	return nil
}

func (r executionRepo) ListByCase(_ context.Context, tenantID, caseID string) ([]model.StrategyExecution, error) {
	var out []model.StrategyExecution
	for _, e := range r.t.executions {
		if e.TenantID() == tenantID && e.CaseID() == caseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedOn().Before(out[j].ExecutedOn()) })
	return out, nil
}

type settlementRepo struct{ t tables }

func (r settlementRepo) Save(_ context.Context, s model.DebtSettlement) error {
	k := key(s.TenantID(), s.ID())
	stored, ok := r.t.settlements[k]
	if !checkVersion(stored.Version(), s.Version(), ok) {
		return conflict("debt settlement", s.ID())
	}
	st := s.State()
	st.Version++
	r.t.settlements[k] = model.ReconstructDebtSettlement(st)
	return nil
}

func (r settlementRepo) FindByID(_ context.Context, tenantID, id string) (model.DebtSettlement, error) {
	s, ok := r.t.settlements[key(tenantID, id)]
	if !ok {
		return model.DebtSettlement{}, notFound("debt settlement", id)
	}
	return s, nil
}

func (r settlementRepo) ListByCase(_ context.Context, tenantID, caseID string) ([]model.DebtSettlement, error) {
	var out []model.DebtSettlement
	for _, s := range r.t.settlements {
		if s.TenantID() == tenantID && s.CaseID() == caseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

type legalRepo struct{ t tables }

func (r legalRepo) Save(_ context.Context, l model.LegalAction) error {
	k := key(l.TenantID(), l.ID())
	stored, ok := r.t.legal[k]
	if !checkVersion(stored.Version(), l.Version(), ok) {
		return conflict("legal action", l.ID())
	}
	st := l.State()
	st.Version++
	r.t.legal[k] = model.ReconstructLegalAction(st)
	return nil
}

func (r legalRepo) FindByID(_ context.Context, tenantID, id string) (model.LegalAction, error) {
	l, ok := r.t.legal[key(tenantID, id)]
	if !ok {
		return model.LegalAction{}, notFound("legal action", id)
	}
	return l, nil
}

func (r legalRepo) ListByCase(_ context.Context, tenantID, caseID string) ([]model.LegalAction, error) {
	var out []model.LegalAction
	for _, l := range r.t.legal {
		if l.TenantID() == tenantID && l.CaseID() == caseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

type writeOffRepo struct{ t tables }

func (r writeOffRepo) Save(_ context.Context, w model.LoanWriteOff) error {
	k := key(w.TenantID(), w.ID())
	stored, ok := r.t.writeOffs[k]
	if !checkVersion(stored.Version(), w.Version(), ok) {
		return conflict("loan write-off", w.ID())
	}
	st := w.State()
	st.Version++
	r.t.writeOffs[k] = model.ReconstructLoanWriteOff(st)
	return nil
}

func (r writeOffRepo) FindByID(_ context.Context, tenantID, id string) (model.LoanWriteOff, error) {
	w, ok := r.t.writeOffs[key(tenantID, id)]
	if !ok {
		return model.LoanWriteOff{}, notFound("loan write-off", id)
	}
	return w, nil
}

func (r writeOffRepo) ListByLoan(_ context.Context, tenantID, loanID string) ([]model.LoanWriteOff, error) {
	var out []model.LoanWriteOff
	for _, w := range r.t.writeOffs {
		if w.TenantID() == tenantID && w.LoanID() == loanID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

type processedRepo struct{ t tables }

func (r processedRepo) MarkProcessed(_ context.Context, tenantID, eventID string, at time.Time) (bool, error) {
	k := key(tenantID, eventID)
	if _, seen := r.t.processed[k]; seen {
		return false, nil
	}
	r.t.processed[k] = at
	return true, nil
}
