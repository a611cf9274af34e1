package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

var _ port.LoanLedgerClient = (*StubLedgerClient)(nil)

// Posting is a recovery or write-off the stub ledger accepted.
type Posting struct {
	Kind      string
	TenantID  string
	LoanID    string
	Reference string
	Amount    decimal.Decimal
}

// StubLedgerClient is an in-process ledger for development and tests.
// Arrears come from Seed; postings are kept in memory.
type StubLedgerClient struct {
	mu       sync.Mutex
	arrears  map[string]port.LoanArrears
	postings []Posting
	logger   *slog.Logger
}

func NewStubLedgerClient(logger *slog.Logger) *StubLedgerClient {
	return &StubLedgerClient{arrears: make(map[string]port.LoanArrears), logger: logger}
}

func stubKey(tenantID, loanID string) string { return tenantID + "/" + loanID }

// Seed sets the arrears returned for a loan.
func (s *StubLedgerClient) Seed(tenantID string, a port.LoanArrears) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrears[stubKey(tenantID, a.LoanID)] = a
}

func (s *StubLedgerClient) GetArrears(_ context.Context, tenantID, loanID string) (port.LoanArrears, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arrears[stubKey(tenantID, loanID)]
	if !ok {
		return port.LoanArrears{}, fmt.Errorf("loan %s: %w", loanID, valueobject.ErrNotFound)
	}
	return a, nil
}

func (s *StubLedgerClient) NotifyWriteOff(ctx context.Context, tenantID, loanID, writeOffID string, total decimal.Decimal) error {
	s.record(ctx, Posting{Kind: "write_off", TenantID: tenantID, LoanID: loanID, Reference: writeOffID, Amount: total})
	return nil
}

func (s *StubLedgerClient) PostRecovery(ctx context.Context, tenantID, loanID, reference string, amount decimal.Decimal) error {
	s.record(ctx, Posting{Kind: "recovery", TenantID: tenantID, LoanID: loanID, Reference: reference, Amount: amount})
	return nil
}

func (s *StubLedgerClient) record(ctx context.Context, p Posting) {
	s.mu.Lock()
	s.postings = append(s.postings, p)
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "stub ledger posting", "kind", p.Kind, "tenant_id", p.TenantID, "loan_id", p.LoanID, "amount", p.Amount.String())
}

// Postings returns a copy of everything posted so far.
func (s *StubLedgerClient) Postings() []Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Posting(nil), s.postings...)
}
