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

const legalColumns = `
	id, tenant_id, case_id, loan_id, member_id, action_type, status, case_reference,
	court_name, lawyer_name, claim_amount, judgment_amount, settlement_amount, amount_recovered,
	legal_costs, court_fees, judgment_summary, initiated_date, filed_date, next_hearing_date,
	judgment_date, closed_date, notes, version, created_at, updated_at`

// LegalRepository implements port.LegalActionRepository.
type LegalRepository struct {
	db pgutil.Querier
}

func NewLegalRepository(db pgutil.Querier) *LegalRepository {
	return &LegalRepository{db: db}
}

func (r *LegalRepository) Save(ctx context.Context, l model.LegalAction) error {
	st := l.State()
	if st.Version == 0 {
		_, err := r.db.Exec(ctx, `
			INSERT INTO legal_actions (`+legalColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			        $18, $19, $20, $21, $22, $23, 1, $24, $25)`,
			st.ID, st.TenantID, st.CaseID, st.LoanID, st.MemberID, st.ActionType.String(), st.Status.String(),
			st.CaseReference, st.CourtName, st.LawyerName, st.ClaimAmount, st.JudgmentAmount, st.SettlementAmount,
			st.AmountRecovered, st.LegalCosts, st.CourtFees, st.JudgmentSummary, st.InitiatedDate,
			nullTime(st.FiledDate), nullTime(st.NextHearingDate), nullTime(st.JudgmentDate), nullTime(st.ClosedDate),
			notesArray(st.Notes), st.CreatedAt, st.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert legal action: %w", err)
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE legal_actions SET
			status = $3, case_reference = $4, court_name = $5, lawyer_name = $6,
			judgment_amount = $7, settlement_amount = $8, amount_recovered = $9, legal_costs = $10,
			court_fees = $11, judgment_summary = $12, filed_date = $13, next_hearing_date = $14,
			judgment_date = $15, closed_date = $16, notes = $17,
			version = version + 1, updated_at = $18
		WHERE tenant_id = $1 AND id = $2 AND version = $19`,
		st.TenantID, st.ID, st.Status.String(), st.CaseReference, st.CourtName, st.LawyerName,
		st.JudgmentAmount, st.SettlementAmount, st.AmountRecovered, st.LegalCosts,
		st.CourtFees, st.JudgmentSummary, nullTime(st.FiledDate), nullTime(st.NextHearingDate),
		nullTime(st.JudgmentDate), nullTime(st.ClosedDate), notesArray(st.Notes),
		st.UpdatedAt, st.Version,
	)
	if err != nil {
		return fmt.Errorf("update legal action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return conflict("legal action", st.ID)
	}
	return nil
}

func (r *LegalRepository) FindByID(ctx context.Context, tenantID, id string) (model.LegalAction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+legalColumns+` FROM legal_actions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	l, err := scanLegalAction(row)
	if err != nil {
		return model.LegalAction{}, notFound(err, "legal action", id)
	}
	return l, nil
}

func (r *LegalRepository) ListByCase(ctx context.Context, tenantID, caseID string) ([]model.LegalAction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+legalColumns+` FROM legal_actions
		WHERE tenant_id = $1 AND case_id = $2
		ORDER BY created_at`,
		tenantID, caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query legal actions: %w", err)
	}
	defer rows.Close()

	var out []model.LegalAction
	for rows.Next() {
		l, err := scanLegalAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan legal action: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type legalRow struct {
	id, tenantID, caseID, loanID, memberID string
	actionType, status                     string
	caseReference, courtName, lawyerName   string
	claim                                  decimal.Decimal
	judgment, settlement                   decimal.NullDecimal
	recovered, legalCosts, courtFees       decimal.Decimal
	judgmentSummary                        string
	initiatedDate                          time.Time
	filedDate, nextHearing                 *time.Time
	judgmentDate, closedDate               *time.Time
	notes                                  []string
	version                                int
	createdAt, updatedAt                   time.Time
}

func (r legalRow) state() (model.LegalActionState, error) {
	actionType, err := valueobject.NewLegalActionType(r.actionType)
	if err != nil {
		return model.LegalActionState{}, fmt.Errorf("legal action %s: %w", r.id, err)
	}
	status, err := valueobject.NewLegalActionStatus(r.status)
	if err != nil {
		return model.LegalActionState{}, fmt.Errorf("legal action %s: %w", r.id, err)
	}
	return model.LegalActionState{
		ID:               r.id,
		TenantID:         r.tenantID,
		CaseID:           r.caseID,
		LoanID:           r.loanID,
		MemberID:         r.memberID,
		ActionType:       actionType,
		Status:           status,
		CaseReference:    r.caseReference,
		CourtName:        r.courtName,
		LawyerName:       r.lawyerName,
		ClaimAmount:      r.claim,
		JudgmentAmount:   r.judgment,
		SettlementAmount: r.settlement,
		AmountRecovered:  r.recovered,
		LegalCosts:       r.legalCosts,
		CourtFees:        r.courtFees,
		JudgmentSummary:  r.judgmentSummary,
		InitiatedDate:    r.initiatedDate.UTC(),
		FiledDate:        timeOf(r.filedDate),
		NextHearingDate:  timeOf(r.nextHearing),
		JudgmentDate:     timeOf(r.judgmentDate),
		ClosedDate:       timeOf(r.closedDate),
		Notes:            r.notes,
		Version:          r.version,
		CreatedAt:        r.createdAt.UTC(),
		UpdatedAt:        r.updatedAt.UTC(),
	}, nil
}

func scanLegalAction(s scannable) (model.LegalAction, error) {
	var r legalRow
	if err := s.Scan(
		&r.id, &r.tenantID, &r.caseID, &r.loanID, &r.memberID, &r.actionType, &r.status, &r.caseReference,
		&r.courtName, &r.lawyerName, &r.claim, &r.judgment, &r.settlement, &r.recovered,
		&r.legalCosts, &r.courtFees, &r.judgmentSummary, &r.initiatedDate, &r.filedDate, &r.nextHearing,
		&r.judgmentDate, &r.closedDate, &r.notes, &r.version, &r.createdAt, &r.updatedAt,
	); err != nil {
		return model.LegalAction{}, err
	}
	st, err := r.state()
	if err != nil {
		return model.LegalAction{}, err
	}
	return model.ReconstructLegalAction(st), nil
}
