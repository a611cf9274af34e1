// Package adapter holds the clients for systems the collections service
// talks to but does not own.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
	"github.com/bibbank/collections-service/pkg/rpcjson"
)

// LedgerService is the lending service's ledger API.
const LedgerService = "/bib.lending.v1.LoanLedgerService/"

var _ port.LoanLedgerClient = (*GRPCLedgerClient)(nil)

// LedgerClientConfig configures the connection to the loan ledger.
type LedgerClientConfig struct {
	Addr    string
	Timeout time.Duration
	// Creds defaults to plaintext.
	Creds credentials.TransportCredentials
	// TokenSource returns a bearer token for outgoing calls. Optional.
	TokenSource func(ctx context.Context) (string, error)
}

type getArrearsRequest struct {
	TenantID string `json:"tenant_id"`
	LoanID   string `json:"loan_id"`
}

type getArrearsResponse struct {
	LoanID           string          `json:"loan_id"`
	MemberID         string          `json:"member_id"`
	LoanProductID    string          `json:"loan_product_id"`
	DaysPastDue      int             `json:"days_past_due"`
	AmountOverdue    decimal.Decimal `json:"amount_overdue"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

type notifyWriteOffRequest struct {
	TenantID   string          `json:"tenant_id"`
	LoanID     string          `json:"loan_id"`
	WriteOffID string          `json:"write_off_id"`
	Total      decimal.Decimal `json:"total"`
}

type postRecoveryRequest struct {
	TenantID  string          `json:"tenant_id"`
	LoanID    string          `json:"loan_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

type ack struct {
	Accepted bool `json:"accepted"`
}

// GRPCLedgerClient calls the loan ledger over gRPC with the JSON codec.
type GRPCLedgerClient struct {
	conn   *grpc.ClientConn
	cfg    LedgerClientConfig
	logger *slog.Logger
}

// NewGRPCLedgerClient dials the ledger lazily; the first call connects.
func NewGRPCLedgerClient(cfg LedgerClientConfig, logger *slog.Logger, opts ...grpc.DialOption) (*GRPCLedgerClient, error) {
	if cfg.Addr == "" {
		return nil, errors.New("ledger client: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	creds := cfg.Creds
	if creds == nil {
		creds = insecure.NewCredentials()
	}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(rpcjson.CallOption()),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledger client: dial %s: %w", cfg.Addr, err)
	}
	return &GRPCLedgerClient{conn: conn, cfg: cfg, logger: logger}, nil
}

// Close releases the connection.
func (c *GRPCLedgerClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCLedgerClient) invoke(ctx context.Context, method string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.cfg.TokenSource != nil {
		token, err := c.cfg.TokenSource(ctx)
		if err != nil {
			return fmt.Errorf("ledger %s: token: %w", method, err)
		}
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}

	if err := c.conn.Invoke(ctx, LedgerService+method, req, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("ledger %s: %s: %w", method, status.Convert(err).Message(), valueobject.ErrNotFound)
		}
		return fmt.Errorf("ledger %s: %w", method, err)
	}
	return nil
}

func (c *GRPCLedgerClient) GetArrears(ctx context.Context, tenantID, loanID string) (port.LoanArrears, error) {
	var resp getArrearsResponse
	if err := c.invoke(ctx, "GetLoanArrears", &getArrearsRequest{TenantID: tenantID, LoanID: loanID}, &resp); err != nil {
		return port.LoanArrears{}, err
	}
	if resp.LoanID == "" {
		resp.LoanID = loanID
	}
	return port.LoanArrears{
		LoanID:           resp.LoanID,
		MemberID:         resp.MemberID,
		LoanProductID:    resp.LoanProductID,
		DaysPastDue:      resp.DaysPastDue,
		AmountOverdue:    resp.AmountOverdue,
		TotalOutstanding: resp.TotalOutstanding,
	}, nil
}

func (c *GRPCLedgerClient) NotifyWriteOff(ctx context.Context, tenantID, loanID, writeOffID string, total decimal.Decimal) error {
	var resp ack
	err := c.invoke(ctx, "NotifyWriteOff", &notifyWriteOffRequest{
		TenantID:   tenantID,
		LoanID:     loanID,
		WriteOffID: writeOffID,
		Total:      total,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("ledger NotifyWriteOff: write-off %s not accepted", writeOffID)
	}
	c.logger.InfoContext(ctx, "ledger notified of write-off", "tenant_id", tenantID, "loan_id", loanID, "write_off_id", writeOffID)
	return nil
}

func (c *GRPCLedgerClient) PostRecovery(ctx context.Context, tenantID, loanID, reference string, amount decimal.Decimal) error {
	var resp ack
	err := c.invoke(ctx, "PostRecovery", &postRecoveryRequest{
		TenantID:  tenantID,
		LoanID:    loanID,
		Reference: reference,
		Amount:    amount,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("ledger PostRecovery: recovery %s not accepted", reference)
	}
	return nil
}
