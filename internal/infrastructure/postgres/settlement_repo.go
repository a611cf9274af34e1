package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
	pgutil "github.com/bibbank/collections-service/pkg/postgres"
)

const settlementColumns = `
	id, tenant_id, reference_number, case_id, loan_id, member_id, settlement_type, status,
	original_outstanding, settlement_amount, discount_amount, discount_percentage, amount_paid,
	remaining_balance, number_of_installments, installment_amount, proposed_date, approved_date,
	due_date, completed_date, terms, justification, proposed_by, approved_by, notes,
	version, created_at, updated_at`

// SettlementRepository implements port.DebtSettlementRepository.
type SettlementRepository struct {
	db pgutil.Querier
}

func NewSettlementRepository(db pgutil.Querier) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) Save(ctx context.Context, s model.DebtSettlement) error {
	st := s.State()
	if st.Version == 0 {
		_, err := r.db.Exec(ctx, `
			INSERT INTO debt_settlements (`+settlementColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			        $18, $19, $20, $21, $22, $23, $24, $25, 1, $26, $27)`,
			st.ID, st.TenantID, st.ReferenceNumber, st.CaseID, st.LoanID, st.MemberID,
			st.SettlementType.String(), st.Status.String(),
			st.OriginalOutstanding, st.SettlementAmount, st.DiscountAmount, st.DiscountPercentage, st.AmountPaid,
			st.RemainingBalance, st.NumberOfInstallments, st.InstallmentAmount, st.ProposedDate, nullTime(st.ApprovedDate),
			st.DueDate, nullTime(st.CompletedDate), st.Terms, st.Justification, st.ProposedBy, st.ApprovedBy, st.Notes,
			st.CreatedAt, st.UpdatedAt,
		)
		if name, ok := violatedConstraint(err); ok && name == "debt_settlements_reference_key" {
			return valueobject.NewValidation("reference_number", "is already in use")
		}
		if err != nil {
			return fmt.Errorf("insert debt settlement: %w", err)
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE debt_settlements SET
			status = $3, amount_paid = $4, remaining_balance = $5, approved_date = $6,
			completed_date = $7, justification = $8, approved_by = $9, notes = $10,
			version = version + 1, updated_at = $11
		WHERE tenant_id = $1 AND id = $2 AND version = $12`,
		st.TenantID, st.ID, st.Status.String(), st.AmountPaid, st.RemainingBalance, nullTime(st.ApprovedDate),
		nullTime(st.CompletedDate), st.Justification, st.ApprovedBy, st.Notes,
		st.UpdatedAt, st.Version,
	)
	if err != nil {
		return fmt.Errorf("update debt settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return conflict("debt settlement", st.ID)
	}
	return nil
}

func (r *SettlementRepository) FindByID(ctx context.Context, tenantID, id string) (model.DebtSettlement, error) {
	row := r.db.QueryRow(ctx, `SELECT `+settlementColumns+` FROM debt_settlements WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	s, err := scanSettlement(row)
	if err != nil {
		return model.DebtSettlement{}, notFound(err, "debt settlement", id)
	}
	return s, nil
}

func (r *SettlementRepository) ListByCase(ctx context.Context, tenantID, caseID string) ([]model.DebtSettlement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+settlementColumns+` FROM debt_settlements
		WHERE tenant_id = $1 AND case_id = $2
		ORDER BY created_at`,
		tenantID, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query debt settlements: %w", err)
	}
	defer rows.Close()

	var out []model.DebtSettlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt settlement: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type settlementRow struct {
	id, tenantID, reference, caseID, loanID, memberID string
	settlementType, status                            string
	original, amount, discount, discountPct, paid     decimal.Decimal
	remaining                                         decimal.Decimal
	installments                                      int
	installmentAmount                                 decimal.Decimal
	proposedDate                                      time.Time
	approvedDate                                      *time.Time
	dueDate                                           time.Time
	completedDate                                     *time.Time
	terms, justification, proposedBy, approvedBy      string
	notes                                             string
	version                                           int
	createdAt, updatedAt                              time.Time
}

func (r settlementRow) state() (model.DebtSettlementState, error) {
	settlementType, err := valueobject.NewSettlementType(r.settlementType)
	if err != nil {
		return model.DebtSettlementState{}, fmt.Errorf("settlement %s: %w", r.id, err)
	}
	status, err := valueobject.NewSettlementStatus(r.status)
	if err != nil {
		return model.DebtSettlementState{}, fmt.Errorf("settlement %s: %w", r.id, err)
	}
	return model.DebtSettlementState{
		ID:                   r.id,
		TenantID:             r.tenantID,
		ReferenceNumber:      r.reference,
		CaseID:               r.caseID,
		LoanID:               r.loanID,
		MemberID:             r.memberID,
		SettlementType:       settlementType,
		Status:               status,
		OriginalOutstanding:  r.original,
		SettlementAmount:     r.amount,
		DiscountAmount:       r.discount,
		DiscountPercentage:   r.discountPct,
		AmountPaid:           r.paid,
		RemainingBalance:     r.remaining,
		NumberOfInstallments: r.installments,
		InstallmentAmount:    r.installmentAmount,
		ProposedDate:         r.proposedDate.UTC(),
		ApprovedDate:         timeOf(r.approvedDate),
		DueDate:              r.dueDate.UTC(),
		CompletedDate:        timeOf(r.completedDate),
		Terms:                r.terms,
		Justification:        r.justification,
		ProposedBy:           r.proposedBy,
		ApprovedBy:           r.approvedBy,
		Notes:                r.notes,
		Version:              r.version,
		CreatedAt:            r.createdAt.UTC(),
		UpdatedAt:            r.updatedAt.UTC(),
	}, nil
}

func scanSettlement(s scannable) (model.DebtSettlement, error) {
	var r settlementRow
	if err := s.Scan(
		&r.id, &r.tenantID, &r.reference, &r.caseID, &r.loanID, &r.memberID, &r.settlementType, &r.status,
		&r.original, &r.amount, &r.discount, &r.discountPct, &r.paid,
		&r.remaining, &r.installments, &r.installmentAmount, &r.proposedDate, &r.approvedDate,
		&r.dueDate, &r.completedDate, &r.terms, &r.justification, &r.proposedBy, &r.approvedBy, &r.notes,
		&r.version, &r.createdAt, &r.updatedAt,
	); err != nil {
		return model.DebtSettlement{}, err
	}
	st, err := r.state()
	if err != nil {
		return model.DebtSettlement{}, err
	}
	return model.ReconstructDebtSettlement(st), nil
}
