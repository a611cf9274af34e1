// Package postgres implements the persistence ports on PostgreSQL via pgx.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const uniqueViolation = "23505"

type scannable interface {
	Scan(dest ...any) error
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// timeOf maps SQL NULL back to the zero time and normalises to UTC.
func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, valueobject.ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", entity, err)
}

func conflict(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, valueobject.ErrConcurrentModification)
}

// violatedConstraint returns the constraint name when err is a unique
// violation.
func violatedConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
