package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/pkg/events"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// CollectionCaseRepository persists cases together with the actions and
// promises they own. Save fails with valueobject.ErrConcurrentModification
// when the stored version moved since the case was loaded.
type CollectionCaseRepository interface {
	Save(ctx context.Context, c model.CollectionCase) error
	FindByID(ctx context.Context, tenantID, id string) (model.CollectionCase, error)
	// FindActiveByLoanID returns the single non-terminal case for a loan.
	FindActiveByLoanID(ctx context.Context, tenantID, loanID string) (model.CollectionCase, error)
	ListByLoanID(ctx context.Context, tenantID, loanID string) ([]model.CollectionCase, error)
	// ListActive pages through non-terminal cases, worst arrears first.
	ListActive(ctx context.Context, tenantID string, limit, offset int) ([]model.CollectionCase, int, error)
	// NextCaseNumber allocates a tenant-unique case number.
	NextCaseNumber(ctx context.Context, tenantID string, openedOn time.Time) (string, error)
}

// CollectionStrategyRepository persists strategy rules.
type CollectionStrategyRepository interface {
	Save(ctx context.Context, s model.CollectionStrategy) error
	FindByID(ctx context.Context, tenantID, id string) (model.CollectionStrategy, error)
	FindByCode(ctx context.Context, tenantID, code string) (model.CollectionStrategy, error)
	ListActive(ctx context.Context, tenantID string) ([]model.CollectionStrategy, error)
}

// StrategyExecutionRepository is the (case, strategy) run history.
type StrategyExecutionRepository interface {
	Save(ctx context.Context, e model.StrategyExecution) error
	ListByCase(ctx context.Context, tenantID, caseID string) ([]model.StrategyExecution, error)
}

// DebtSettlementRepository persists settlements.
type DebtSettlementRepository interface {
	Save(ctx context.Context, s model.DebtSettlement) error
	FindByID(ctx context.Context, tenantID, id string) (model.DebtSettlement, error)
	ListByCase(ctx context.Context, tenantID, caseID string) ([]model.DebtSettlement, error)
}

// LegalActionRepository persists legal actions.
type LegalActionRepository interface {
	Save(ctx context.Context, l model.LegalAction) error
	FindByID(ctx context.Context, tenantID, id string) (model.LegalAction, error)
	ListByCase(ctx context.Context, tenantID, caseID string) ([]model.LegalAction, error)
}

// LoanWriteOffRepository persists write-offs.
type LoanWriteOffRepository interface {
	Save(ctx context.Context, w model.LoanWriteOff) error
	FindByID(ctx context.Context, tenantID, id string) (model.LoanWriteOff, error)
	ListByLoan(ctx context.Context, tenantID, loanID string) ([]model.LoanWriteOff, error)
}

// ProcessedEventRepository remembers ledger events that were already applied.
type ProcessedEventRepository interface {
	// MarkProcessed records eventID and reports false when it was recorded
	// before.
	MarkProcessed(ctx context.Context, tenantID, eventID string, at time.Time) (bool, error)
}

// ---------------------------------------------------------------------------
// Unit of work
// ---------------------------------------------------------------------------

// Repositories is the set of repositories bound to one unit of work. Events
// recorded on Events are written to the outbox when the unit commits.
type Repositories struct {
	Cases        CollectionCaseRepository
	Strategies   CollectionStrategyRepository
	Executions   StrategyExecutionRepository
	Settlements  DebtSettlementRepository
	LegalActions LegalActionRepository
	WriteOffs    LoanWriteOffRepository
	Processed    ProcessedEventRepository
	Events       *events.EventCollector
}

// UnitOfWork runs fn atomically. Nothing fn saved or recorded survives if it
// returns an error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

// CaseLocker serialises writers on one case across service instances.
type CaseLocker interface {
	// Lock blocks until the lock is held or ctx is done. The returned func
	// releases it.
	Lock(ctx context.Context, tenantID, caseID string) (unlock func(context.Context) error, err error)
}

// ---------------------------------------------------------------------------
// External service ports
// ---------------------------------------------------------------------------

// LoanArrears is the ledger's view of a delinquent loan.
type LoanArrears struct {
	LoanID           string
	MemberID         string
	LoanProductID    string
	DaysPastDue      int
	AmountOverdue    decimal.Decimal
	TotalOutstanding decimal.Decimal
}

// LoanLedgerClient talks to the loan ledger. Notifications are
// fire-and-forget: callers log failures and carry on.
type LoanLedgerClient interface {
	GetArrears(ctx context.Context, tenantID, loanID string) (LoanArrears, error)
	NotifyWriteOff(ctx context.Context, tenantID, loanID, writeOffID string, total decimal.Decimal) error
	PostRecovery(ctx context.Context, tenantID, loanID, reference string, amount decimal.Decimal) error
}

// ReportStorage stores generated report files.
type ReportStorage interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// PortfolioRenderer turns a tenant's active cases into a portfolio-at-risk
// workbook.
type PortfolioRenderer interface {
	RenderPortfolio(cases []model.CollectionCase, asOf time.Time) ([]byte, error)
}
