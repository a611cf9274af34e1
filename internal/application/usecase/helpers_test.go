package usecase_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/application/usecase"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/infrastructure/memory"
)

const testTenant = "tenant-1"

// --- Mock implementations ---

type mockLedgerClient struct {
	mu             sync.Mutex
	getArrearsFunc func(ctx context.Context, tenantID, loanID string) (port.LoanArrears, error)
	writeOffErr    error
	postErr        error
	writeOffs      []string
	postings       []posting
}

type posting struct {
	loanID    string
	reference string
	amount    decimal.Decimal
}

func (m *mockLedgerClient) GetArrears(ctx context.Context, tenantID, loanID string) (port.LoanArrears, error) {
	if m.getArrearsFunc != nil {
		return m.getArrearsFunc(ctx, tenantID, loanID)
	}
	return port.LoanArrears{}, nil
}

func (m *mockLedgerClient) NotifyWriteOff(_ context.Context, _, loanID, writeOffID string, _ decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeOffErr != nil {
		return m.writeOffErr
	}
	m.writeOffs = append(m.writeOffs, loanID+"/"+writeOffID)
	return nil
}

func (m *mockLedgerClient) PostRecovery(_ context.Context, _, loanID, reference string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return m.postErr
	}
	m.postings = append(m.postings, posting{loanID: loanID, reference: reference, amount: amount})
	return nil
}

type mockReportStorage struct {
	uploadErr   error
	uploadedKey string
	contentType string
	body        []byte
}

func (m *mockReportStorage) Upload(_ context.Context, key, contentType string, body []byte) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.uploadedKey = key
	m.contentType = contentType
	m.body = body
	return nil
}

func (m *mockReportStorage) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://reports.example.com/" + key, nil
}

type mockRenderer struct {
	renderFunc func(cases []model.CollectionCase, asOf time.Time) ([]byte, error)
	rendered   []model.CollectionCase
}

func (m *mockRenderer) RenderPortfolio(cases []model.CollectionCase, asOf time.Time) ([]byte, error) {
	m.rendered = cases
	if m.renderFunc != nil {
		return m.renderFunc(cases, asOf)
	}
	return []byte("xlsx"), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Fixtures ---

type fixture struct {
	store  *memory.Store
	locker *memory.Locker
	ledger *mockLedgerClient
}

func newFixture() *fixture {
	return &fixture{
		store:  memory.NewStore(),
		locker: memory.NewLocker(),
		ledger: &mockLedgerClient{},
	}
}

func (f *fixture) openCase(t *testing.T, loanID string, dpd int, overdue, outstanding string) dto.CaseResponse {
	t.Helper()
	uc := usecase.NewOpenCaseUseCase(f.store, f.locker, nil, testLogger())
	resp, err := uc.Execute(context.Background(), dto.OpenCaseRequest{
		TenantID:         testTenant,
		LoanID:           loanID,
		MemberID:         "member-" + loanID,
		DaysPastDue:      dpd,
		AmountOverdue:    decimal.RequireFromString(overdue),
		TotalOutstanding: decimal.RequireFromString(outstanding),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) cases() *usecase.CaseCommands {
	return usecase.NewCaseCommands(f.store, f.locker, f.ledger, nil, testLogger())
}

func (f *fixture) getCase(t *testing.T, caseID string) dto.CaseResponse {
	t.Helper()
	resp, err := usecase.NewGetCaseUseCase(f.store).Execute(context.Background(), dto.CaseRef{TenantID: testTenant, CaseID: caseID})
	require.NoError(t, err)
	return resp
}

func (f *fixture) outboxTypes() []string {
	var out []string
	for _, e := range f.store.Outbox() {
		out = append(out, e.EventType)
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func days(n int) time.Time { return time.Now().UTC().AddDate(0, 0, n) }
