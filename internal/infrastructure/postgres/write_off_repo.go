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

const writeOffColumns = `
	id, tenant_id, loan_id, case_id, write_off_number, write_off_type, status, reason,
	principal_write_off, interest_write_off, penalties_write_off, fees_write_off, total_write_off,
	recovered_amount, days_past_due, collection_attempts, request_date, write_off_date,
	approved_by_id, approved_by_name, approved_at, notes, version, created_at, updated_at`

// WriteOffRepository implements port.LoanWriteOffRepository.
type WriteOffRepository struct {
	db pgutil.Querier
}

func NewWriteOffRepository(db pgutil.Querier) *WriteOffRepository {
	return &WriteOffRepository{db: db}
}

func (r *WriteOffRepository) Save(ctx context.Context, w model.LoanWriteOff) error {
	st := w.State()
	if st.Version == 0 {
		_, err := r.db.Exec(ctx, `
			INSERT INTO loan_write_offs (`+writeOffColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			        $18, $19, $20, $21, $22, 1, $23, $24)`,
			st.ID, st.TenantID, st.LoanID, st.CaseID, st.WriteOffNumber, st.WriteOffType.String(), st.Status.String(), st.Reason,
			st.PrincipalWriteOff, st.InterestWriteOff, st.PenaltiesWriteOff, st.FeesWriteOff, st.TotalWriteOff,
			st.RecoveredAmount, st.DaysPastDue, st.CollectionAttempts, st.RequestDate, nullTime(st.WriteOffDate),
			st.ApprovedByID, st.ApprovedByName, nullTime(st.ApprovedAt), st.Notes, st.CreatedAt, st.UpdatedAt,
		)
		if name, ok := violatedConstraint(err); ok && name == "loan_write_offs_number_key" {
			return valueobject.NewValidation("write_off_number", "is already in use")
		}
		if err != nil {
			return fmt.Errorf("insert loan write-off: %w", err)
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE loan_write_offs SET
			status = $3, recovered_amount = $4, write_off_date = $5, approved_by_id = $6,
			approved_by_name = $7, approved_at = $8, notes = $9,
			version = version + 1, updated_at = $10
		WHERE tenant_id = $1 AND id = $2 AND version = $11`,
		st.TenantID, st.ID, st.Status.String(), st.RecoveredAmount, nullTime(st.WriteOffDate), st.ApprovedByID,
		st.ApprovedByName, nullTime(st.ApprovedAt), st.Notes,
		st.UpdatedAt, st.Version,
	)
	if err != nil {
		return fmt.Errorf("update loan write-off: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return conflict("loan write-off", st.ID)
	}
	return nil
}

func (r *WriteOffRepository) FindByID(ctx context.Context, tenantID, id string) (model.LoanWriteOff, error) {
	row := r.db.QueryRow(ctx, `SELECT `+writeOffColumns+` FROM loan_write_offs WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	w, err := scanWriteOff(row)
	if err != nil {
		return model.LoanWriteOff{}, notFound(err, "loan write-off", id)
	}
	return w, nil
}

func (r *WriteOffRepository) ListByLoan(ctx context.Context, tenantID, loanID string) ([]model.LoanWriteOff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+writeOffColumns+` FROM loan_write_offs
		WHERE tenant_id = $1 AND loan_id = $2
		ORDER BY created_at`,
		tenantID, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("query loan write-offs: %w", err)
	}
	defer rows.Close()

	var out []model.LoanWriteOff
	for rows.Next() {
		w, err := scanWriteOff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan write-off: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type writeOffRow struct {
	id, tenantID, loanID, caseID, number string
	writeOffType, status, reason         string
	principal, interest, penalties, fees decimal.Decimal
	total, recovered                     decimal.Decimal
	dpd, attempts                        int
	requestDate                          time.Time
	writeOffDate                         *time.Time
	approvedByID, approvedByName         string
	approvedAt                           *time.Time
	notes                                string
	version                              int
	createdAt, updatedAt                 time.Time
}

func (r writeOffRow) state() (model.LoanWriteOffState, error) {
	writeOffType, err := valueobject.NewWriteOffType(r.writeOffType)
	if err != nil {
		return model.LoanWriteOffState{}, fmt.Errorf("write-off %s: %w", r.id, err)
	}
	status, err := valueobject.NewWriteOffStatus(r.status)
	if err != nil {
		return model.LoanWriteOffState{}, fmt.Errorf("write-off %s: %w", r.id, err)
	}
	return model.LoanWriteOffState{
		ID:                 r.id,
		TenantID:           r.tenantID,
		LoanID:             r.loanID,
		CaseID:             r.caseID,
		WriteOffNumber:     r.number,
		WriteOffType:       writeOffType,
		Status:             status,
		Reason:             r.reason,
		PrincipalWriteOff:  r.principal,
		InterestWriteOff:   r.interest,
		PenaltiesWriteOff:  r.penalties,
		FeesWriteOff:       r.fees,
		TotalWriteOff:      r.total,
		RecoveredAmount:    r.recovered,
		DaysPastDue:        r.dpd,
		CollectionAttempts: r.attempts,
		RequestDate:        r.requestDate.UTC(),
		WriteOffDate:       timeOf(r.writeOffDate),
		ApprovedByID:       r.approvedByID,
		ApprovedByName:     r.approvedByName,
		ApprovedAt:         timeOf(r.approvedAt),
		Notes:              r.notes,
		Version:            r.version,
		CreatedAt:          r.createdAt.UTC(),
		UpdatedAt:          r.updatedAt.UTC(),
	}, nil
}

func scanWriteOff(s scannable) (model.LoanWriteOff, error) {
	var r writeOffRow
	if err := s.Scan(
		&r.id, &r.tenantID, &r.loanID, &r.caseID, &r.number, &r.writeOffType, &r.status, &r.reason,
		&r.principal, &r.interest, &r.penalties, &r.fees, &r.total,
		&r.recovered, &r.dpd, &r.attempts, &r.requestDate, &r.writeOffDate,
		&r.approvedByID, &r.approvedByName, &r.approvedAt, &r.notes, &r.version, &r.createdAt, &r.updatedAt,
	); err != nil {
		return model.LoanWriteOff{}, err
	}
	st, err := r.state()
	if err != nil {
		return model.LoanWriteOff{}, err
	}
	return model.ReconstructLoanWriteOff(st), nil
}
