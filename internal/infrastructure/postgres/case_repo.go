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

const (
	caseNumberConstraint = "collection_cases_case_number_key"
	activeLoanIndex      = "collection_cases_active_loan_idx"
)

const caseColumns = `
	id, tenant_id, case_number, loan_id, member_id, status, priority, classification,
	assigned_collector_id, assigned_date, opened_date, closed_date,
	days_past_due_at_open, current_days_past_due, amount_overdue, total_outstanding,
	amount_recovered, contact_attempts, last_contact_date, next_follow_up_date,
	closure_reason, notes, version, created_at, updated_at`

// CaseRepository implements port.CollectionCaseRepository. Actions and
// promises are written through the same Querier as their case.
type CaseRepository struct {
	db pgutil.Querier
}

// NewCaseRepository binds a repository to a pool or transaction.
func NewCaseRepository(db pgutil.Querier) *CaseRepository {
	return &CaseRepository{db: db}
}

// Save inserts a new case (version 0) or updates the stored one when its
// version still matches, then upserts the owned actions and promises.
func (r *CaseRepository) Save(ctx context.Context, c model.CollectionCase) error {
	st := c.State()
	if err := r.saveCase(ctx, st); err != nil {
		return err
	}
	for _, a := range c.Actions() {
		if err := r.insertAction(ctx, a.State()); err != nil {
			return err
		}
	}
	for _, p := range c.Promises() {
		if err := r.upsertPromise(ctx, p.State()); err != nil {
			return err
		}
	}
	return nil
}

func (r *CaseRepository) saveCase(ctx context.Context, st model.CollectionCaseState) error {
	if st.Version == 0 {
		_, err := r.db.Exec(ctx, `
			INSERT INTO collection_cases (`+caseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			        $14, $15, $16, $17, $18, $19, $20, $21, $22, 1, $23, $24)`,
			st.ID, st.TenantID, st.CaseNumber, st.LoanID, st.MemberID,
			st.Status.String(), st.Priority.String(), st.Classification.String(),
			st.AssignedCollectorID, nullTime(st.AssignedDate), st.OpenedDate, nullTime(st.ClosedDate),
			st.DaysPastDueAtOpen, st.CurrentDaysPastDue, st.AmountOverdue, st.TotalOutstanding,
			st.AmountRecovered, st.ContactAttempts, nullTime(st.LastContactDate), nullTime(st.NextFollowUpDate),
			st.ClosureReason, notesArray(st.Notes), st.CreatedAt, st.UpdatedAt,
		)
		return caseWriteError(err, st)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE collection_cases SET
			status = $3, priority = $4, classification = $5,
			assigned_collector_id = $6, assigned_date = $7, closed_date = $8,
			current_days_past_due = $9, amount_overdue = $10, total_outstanding = $11,
			amount_recovered = $12, contact_attempts = $13, last_contact_date = $14,
			next_follow_up_date = $15, closure_reason = $16, notes = $17,
			version = version + 1, updated_at = $18
		WHERE tenant_id = $1 AND id = $2 AND version = $19`,
		st.TenantID, st.ID, st.Status.String(), st.Priority.String(), st.Classification.String(),
		st.AssignedCollectorID, nullTime(st.AssignedDate), nullTime(st.ClosedDate),
		st.CurrentDaysPastDue, st.AmountOverdue, st.TotalOutstanding,
		st.AmountRecovered, st.ContactAttempts, nullTime(st.LastContactDate),
		nullTime(st.NextFollowUpDate), st.ClosureReason, notesArray(st.Notes),
		st.UpdatedAt, st.Version,
	)
	if err != nil {
		return caseWriteError(err, st)
	}
	if tag.RowsAffected() == 0 {
		return conflict("collection case", st.ID)
	}
	return nil
}

func caseWriteError(err error, st model.CollectionCaseState) error {
	if err == nil {
		return nil
	}
	switch name, ok := violatedConstraint(err); {
	case ok && name == caseNumberConstraint:
		return valueobject.NewValidation("case_number", "is already in use")
	case ok && name == activeLoanIndex:
		return valueobject.NewInvariantViolation("collection case", "loan "+st.LoanID+" already has an active case")
	case ok && name == "collection_cases_pkey":
		return conflict("collection case", st.ID)
	}
	return fmt.Errorf("save collection case: %w", err)
}

func (r *CaseRepository) insertAction(ctx context.Context, a model.CollectionActionState) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO collection_actions (
			id, case_id, loan_id, tenant_id, action_type, outcome, performed_by, performed_at,
			description, contact_method, phone_number, contact_person, duration_minutes,
			latitude, longitude, follow_up_date, promise_id, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.CaseID, a.LoanID, a.TenantID, a.ActionType.String(), a.Outcome.String(), a.PerformedBy, a.PerformedAt,
		a.Description, a.ContactMethod.String(), a.PhoneNumber, a.ContactPerson, a.DurationMinutes,
		a.Latitude, a.Longitude, nullTime(a.FollowUpDate), a.PromiseID, a.Notes, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert collection action: %w", err)
	}
	return nil
}

func (r *CaseRepository) upsertPromise(ctx context.Context, p model.PromiseToPayState) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO promises_to_pay (
			id, case_id, loan_id, member_id, tenant_id, action_id, promise_date, payment_date,
			promised_amount, amount_paid, actual_payment_date, status, payment_method,
			breach_reason, reschedule_count, recorded_by, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			payment_date = EXCLUDED.payment_date,
			promised_amount = EXCLUDED.promised_amount,
			amount_paid = EXCLUDED.amount_paid,
			actual_payment_date = EXCLUDED.actual_payment_date,
			status = EXCLUDED.status,
			payment_method = EXCLUDED.payment_method,
			breach_reason = EXCLUDED.breach_reason,
			reschedule_count = EXCLUDED.reschedule_count,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.CaseID, p.LoanID, p.MemberID, p.TenantID, p.ActionID, p.PromiseDate, p.PaymentDate,
		p.PromisedAmount, p.AmountPaid, nullTime(p.ActualPaymentDate), p.Status.String(), p.PaymentMethod,
		p.BreachReason, p.RescheduleCount, p.RecordedBy, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert promise to pay: %w", err)
	}
	return nil
}

// FindByID loads a case with its actions and promises.
func (r *CaseRepository) FindByID(ctx context.Context, tenantID, id string) (model.CollectionCase, error) {
	row := r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM collection_cases WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	st, err := scanCaseState(row)
	if err != nil {
		return model.CollectionCase{}, notFound(err, "collection case", id)
	}
	cases, err := r.attachChildren(ctx, []model.CollectionCaseState{st})
	if err != nil {
		return model.CollectionCase{}, err
	}
	return cases[0], nil
}

// FindActiveByLoanID returns the loan's non-terminal case.
func (r *CaseRepository) FindActiveByLoanID(ctx context.Context, tenantID, loanID string) (model.CollectionCase, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+caseColumns+` FROM collection_cases
		WHERE tenant_id = $1 AND loan_id = $2
		  AND status NOT IN ('RECOVERED', 'WRITTEN_OFF', 'SETTLED', 'CLOSED')`,
		tenantID, loanID,
	)
	st, err := scanCaseState(row)
	if err != nil {
		return model.CollectionCase{}, notFound(err, "active case for loan", loanID)
	}
	cases, err := r.attachChildren(ctx, []model.CollectionCaseState{st})
	if err != nil {
		return model.CollectionCase{}, err
	}
	return cases[0], nil
}

// ListByLoanID returns every case opened for a loan, oldest first.
func (r *CaseRepository) ListByLoanID(ctx context.Context, tenantID, loanID string) ([]model.CollectionCase, error) {
	states, _, err := r.queryCases(ctx, `
		SELECT `+caseColumns+`, 0 FROM collection_cases
		WHERE tenant_id = $1 AND loan_id = $2
		ORDER BY created_at`,
		tenantID, loanID,
	)
	if err != nil {
		return nil, err
	}
	return r.attachChildren(ctx, states)
}

// ListActive pages through non-terminal cases ordered by days past due,
// worst first, with the case number as tie breaker.
func (r *CaseRepository) ListActive(ctx context.Context, tenantID string, limit, offset int) ([]model.CollectionCase, int, error) {
	states, total, err := r.queryCases(ctx, `
		SELECT `+caseColumns+`, COUNT(*) OVER () FROM collection_cases
		WHERE tenant_id = $1
		  AND status NOT IN ('RECOVERED', 'WRITTEN_OFF', 'SETTLED', 'CLOSED')
		ORDER BY current_days_past_due DESC, case_number
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	if len(states) == 0 && offset > 0 {
		// The window count is empty past the last page.
		if err := r.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM collection_cases
			WHERE tenant_id = $1 AND status NOT IN ('RECOVERED', 'WRITTEN_OFF', 'SETTLED', 'CLOSED')`,
			tenantID,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count active cases: %w", err)
		}
	}
	cases, err := r.attachChildren(ctx, states)
	if err != nil {
		return nil, 0, err
	}
	return cases, total, nil
}

// NextCaseNumber allocates COL-<year>-<sequence> from a per-tenant, per-year
// counter. The counter row is locked until the surrounding transaction ends.
func (r *CaseRepository) NextCaseNumber(ctx context.Context, tenantID string, openedOn time.Time) (string, error) {
	year := openedOn.UTC().Year()
	var seq int
	err := r.db.QueryRow(ctx, `
		INSERT INTO case_number_sequences (tenant_id, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, year) DO UPDATE SET last_value = case_number_sequences.last_value + 1
		RETURNING last_value`,
		tenantID, year,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("allocate case number: %w", err)
	}
	return fmt.Sprintf("COL-%d-%05d", year, seq), nil
}

// queryCases runs a case query whose last column is a total count.
func (r *CaseRepository) queryCases(ctx context.Context, query string, args ...any) ([]model.CollectionCaseState, int, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query collection cases: %w", err)
	}
	defer rows.Close()

	var (
		states []model.CollectionCaseState
		total  int
	)
	for rows.Next() {
		var raw caseRow
		dest := append(raw.dest(), &total)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan collection case: %w", err)
		}
		st, err := raw.state()
		if err != nil {
			return nil, 0, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate collection cases: %w", err)
	}
	return states, total, nil
}

// attachChildren loads actions and promises for all states in two queries.
func (r *CaseRepository) attachChildren(ctx context.Context, states []model.CollectionCaseState) ([]model.CollectionCase, error) {
	if len(states) == 0 {
		return nil, nil
	}
	ids := make([]string, len(states))
	for i, st := range states {
		ids[i] = st.ID
	}
	tenantID := states[0].TenantID

	actions, err := r.loadActions(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	promises, err := r.loadPromises(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.CollectionCase, len(states))
	for i, st := range states {
		out[i] = model.ReconstructCollectionCase(st, actions[st.ID], promises[st.ID])
	}
	return out, nil
}

func (r *CaseRepository) loadActions(ctx context.Context, tenantID string, caseIDs []string) (map[string][]model.CollectionAction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, case_id, loan_id, tenant_id, action_type, outcome, performed_by, performed_at,
		       description, contact_method, phone_number, contact_person, duration_minutes,
		       latitude, longitude, follow_up_date, promise_id, notes, created_at
		FROM collection_actions
		WHERE tenant_id = $1 AND case_id = ANY($2)
		ORDER BY performed_at, created_at`,
		tenantID, caseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query collection actions: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.CollectionAction)
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out[a.CaseID()] = append(out[a.CaseID()], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection actions: %w", err)
	}
	return out, nil
}

func (r *CaseRepository) loadPromises(ctx context.Context, tenantID string, caseIDs []string) (map[string][]model.PromiseToPay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, case_id, loan_id, member_id, tenant_id, action_id, promise_date, payment_date,
		       promised_amount, amount_paid, actual_payment_date, status, payment_method,
		       breach_reason, reschedule_count, recorded_by, notes, created_at, updated_at
		FROM promises_to_pay
		WHERE tenant_id = $1 AND case_id = ANY($2)
		ORDER BY created_at`,
		tenantID, caseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query promises to pay: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.PromiseToPay)
	for rows.Next() {
		p, err := scanPromise(rows)
		if err != nil {
			return nil, err
		}
		out[p.CaseID()] = append(out[p.CaseID()], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promises to pay: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

// caseRow holds a collection_cases row as scanned, before enum parsing.
type caseRow struct {
	id, tenantID, caseNumber, loanID, memberID string
	status, priority, classification           string
	assignedCollectorID                        string
	assignedDate, closedDate                   *time.Time
	openedDate                                 time.Time
	dpdAtOpen, currentDPD                      int
	amountOverdue, totalOutstanding            decimal.Decimal
	amountRecovered                            decimal.Decimal
	contactAttempts                            int
	lastContactDate, nextFollowUpDate          *time.Time
	closureReason                              string
	notes                                      []string
	version                                    int
	createdAt, updatedAt                       time.Time
}

func (r *caseRow) dest() []any {
	return []any{
		&r.id, &r.tenantID, &r.caseNumber, &r.loanID, &r.memberID, &r.status, &r.priority, &r.classification,
		&r.assignedCollectorID, &r.assignedDate, &r.openedDate, &r.closedDate,
		&r.dpdAtOpen, &r.currentDPD, &r.amountOverdue, &r.totalOutstanding,
		&r.amountRecovered, &r.contactAttempts, &r.lastContactDate, &r.nextFollowUpDate,
		&r.closureReason, &r.notes, &r.version, &r.createdAt, &r.updatedAt,
	}
}

func (r caseRow) state() (model.CollectionCaseState, error) {
	status, err := valueobject.NewCaseStatus(r.status)
	if err != nil {
		return model.CollectionCaseState{}, fmt.Errorf("case %s: %w", r.id, err)
	}
	priority, err := valueobject.NewCasePriority(r.priority)
	if err != nil {
		return model.CollectionCaseState{}, fmt.Errorf("case %s: %w", r.id, err)
	}
	classification, err := valueobject.NewClassification(r.classification)
	if err != nil {
		return model.CollectionCaseState{}, fmt.Errorf("case %s: %w", r.id, err)
	}
	return model.CollectionCaseState{
		ID:                  r.id,
		TenantID:            r.tenantID,
		CaseNumber:          r.caseNumber,
		LoanID:              r.loanID,
		MemberID:            r.memberID,
		Status:              status,
		Priority:            priority,
		Classification:      classification,
		AssignedCollectorID: r.assignedCollectorID,
		AssignedDate:        timeOf(r.assignedDate),
		OpenedDate:          r.openedDate.UTC(),
		ClosedDate:          timeOf(r.closedDate),
		DaysPastDueAtOpen:   r.dpdAtOpen,
		CurrentDaysPastDue:  r.currentDPD,
		AmountOverdue:       r.amountOverdue,
		TotalOutstanding:    r.totalOutstanding,
		AmountRecovered:     r.amountRecovered,
		ContactAttempts:     r.contactAttempts,
		LastContactDate:     timeOf(r.lastContactDate),
		NextFollowUpDate:    timeOf(r.nextFollowUpDate),
		ClosureReason:       r.closureReason,
		Notes:               r.notes,
		Version:             r.version,
		CreatedAt:           r.createdAt.UTC(),
		UpdatedAt:           r.updatedAt.UTC(),
	}, nil
}

func scanCaseState(s scannable) (model.CollectionCaseState, error) {
	var raw caseRow
	if err := s.Scan(raw.dest()...); err != nil {
		return model.CollectionCaseState{}, err
	}
	return raw.state()
}

func notesArray(notes []string) []string {
	if notes == nil {
		return []string{}
	}
	return notes
}

type actionRow struct {
	id, caseID, loanID, tenantID     string
	actionType, outcome, performedBy string
	performedAt                      time.Time
	description, contactMethod       string
	phoneNumber, contactPerson       string
	durationMinutes                  int
	latitude, longitude              decimal.NullDecimal
	followUpDate                     *time.Time
	promiseID, notes                 string
	createdAt                        time.Time
}

func (r actionRow) state() (model.CollectionActionState, error) {
	actionType, err := valueobject.NewActionType(r.actionType)
	if err != nil {
		return model.CollectionActionState{}, fmt.Errorf("action %s: %w", r.id, err)
	}
	outcome, err := valueobject.NewActionOutcome(r.outcome)
	if err != nil {
		return model.CollectionActionState{}, fmt.Errorf("action %s: %w", r.id, err)
	}
	method, err := valueobject.NewContactMethod(r.contactMethod)
	if err != nil {
		return model.CollectionActionState{}, fmt.Errorf("action %s: %w", r.id, err)
	}
	return model.CollectionActionState{
		ID:              r.id,
		CaseID:          r.caseID,
		LoanID:          r.loanID,
		TenantID:        r.tenantID,
		ActionType:      actionType,
		Outcome:         outcome,
		PerformedBy:     r.performedBy,
		PerformedAt:     r.performedAt.UTC(),
		Description:     r.description,
		ContactMethod:   method,
		PhoneNumber:     r.phoneNumber,
		ContactPerson:   r.contactPerson,
		DurationMinutes: r.durationMinutes,
		Latitude:        r.latitude,
		Longitude:       r.longitude,
		FollowUpDate:    timeOf(r.followUpDate),
		PromiseID:       r.promiseID,
		Notes:           r.notes,
		CreatedAt:       r.createdAt.UTC(),
	}, nil
}

func scanAction(s scannable) (model.CollectionAction, error) {
	var r actionRow
	if err := s.Scan(
		&r.id, &r.caseID, &r.loanID, &r.tenantID, &r.actionType, &r.outcome, &r.performedBy, &r.performedAt,
		&r.description, &r.contactMethod, &r.phoneNumber, &r.contactPerson, &r.durationMinutes,
		&r.latitude, &r.longitude, &r.followUpDate, &r.promiseID, &r.notes, &r.createdAt,
	); err != nil {
		return model.CollectionAction{}, fmt.Errorf("scan collection action: %w", err)
	}
	st, err := r.state()
	if err != nil {
		return model.CollectionAction{}, err
	}
	return model.ReconstructCollectionAction(st), nil
}

type promiseRow struct {
	id, caseID, loanID, memberID, tenantID string
	actionID                               string
	promiseDate, paymentDate               time.Time
	promisedAmount, amountPaid             decimal.Decimal
	actualPaymentDate                      *time.Time
	status, paymentMethod, breachReason    string
	rescheduleCount                        int
	recordedBy, notes                      string
	createdAt, updatedAt                   time.Time
}

func (r promiseRow) state() (model.PromiseToPayState, error) {
	status, err := valueobject.NewPromiseStatus(r.status)
	if err != nil {
		return model.PromiseToPayState{}, fmt.Errorf("promise %s: %w", r.id, err)
	}
	return model.PromiseToPayState{
		ID:                r.id,
		CaseID:            r.caseID,
		LoanID:            r.loanID,
		MemberID:          r.memberID,
		TenantID:          r.tenantID,
		ActionID:          r.actionID,
		PromiseDate:       r.promiseDate.UTC(),
		PaymentDate:       r.paymentDate.UTC(),
		PromisedAmount:    r.promisedAmount,
		AmountPaid:        r.amountPaid,
		ActualPaymentDate: timeOf(r.actualPaymentDate),
		Status:            status,
		PaymentMethod:     r.paymentMethod,
		BreachReason:      r.breachReason,
		RescheduleCount:   r.rescheduleCount,
		RecordedBy:        r.recordedBy,
		Notes:             r.notes,
		CreatedAt:         r.createdAt.UTC(),
		UpdatedAt:         r.updatedAt.UTC(),
	}, nil
}

func scanPromise(s scannable) (model.PromiseToPay, error) {
	var r promiseRow
	if err := s.Scan(
		&r.id, &r.caseID, &r.loanID, &r.memberID, &r.tenantID, &r.actionID, &r.promiseDate, &r.paymentDate,
		&r.promisedAmount, &r.amountPaid, &r.actualPaymentDate, &r.status, &r.paymentMethod,
		&r.breachReason, &r.rescheduleCount, &r.recordedBy, &r.notes, &r.createdAt, &r.updatedAt,
	); err != nil {
		return model.PromiseToPay{}, fmt.Errorf("scan promise to pay: %w", err)
	}
	st, err := r.state()
	if err != nil {
		return model.PromiseToPay{}, err
	}
	return model.ReconstructPromiseToPay(st), nil
}
