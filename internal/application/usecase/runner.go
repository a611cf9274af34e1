package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/collections-service/internal/domain/event"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
)

// runner executes a use case step inside one unit of work, optionally under
// the case's writer lock, and counts the events that were committed.
type runner struct {
	uow       port.UnitOfWork
	locker    port.CaseLocker
	telemetry *Telemetry
	logger    *slog.Logger
}

func newRunner(uow port.UnitOfWork, locker port.CaseLocker, telemetry *Telemetry, logger *slog.Logger) runner {
	if logger == nil {
		logger = slog.Default()
	}
	return runner{uow: uow, locker: locker, telemetry: orNoop(telemetry), logger: logger}
}

// inUnit runs fn atomically. Events fn records on repos.Events reach the
// outbox only if fn succeeds.
func (r runner) inUnit(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	var committed []event.DomainEvent
	err := r.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := fn(ctx, repos); err != nil {
			return err
		}
		committed = repos.Events.Events()
		return nil
	})
	if err != nil {
		return err
	}
	r.telemetry.committed(ctx, committed)
	return nil
}

// inCase is inUnit holding the writer lock for key, normally a case id.
func (r runner) inCase(ctx context.Context, tenantID, key string, fn func(ctx context.Context, repos port.Repositories) error) error {
	unlock, err := r.locker.Lock(ctx, tenantID, key)
	if err != nil {
		return fmt.Errorf("lock case: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("release case lock", "tenant_id", tenantID, "case_id", key, "error", err)
		}
	}()
	return r.inUnit(ctx, fn)
}

// updateCase loads a case under its lock, applies fn and saves the result.
// The case is re-read after the write so the returned version is current.
func (r runner) updateCase(
	ctx context.Context,
	tenantID, caseID string,
	fn func(c model.CollectionCase) (model.CollectionCase, error),
) (model.CollectionCase, error) {
	var out model.CollectionCase
	err := r.inCase(ctx, tenantID, caseID, func(ctx context.Context, repos port.Repositories) error {
		c, err := repos.Cases.FindByID(ctx, tenantID, caseID)
		if err != nil {
			return fmt.Errorf("find case: %w", err)
		}
		next, err := fn(c)
		if err != nil {
			return err
		}
		if err := saveCase(ctx, repos, next); err != nil {
			return err
		}
		out, err = repos.Cases.FindByID(ctx, tenantID, caseID)
		if err != nil {
			return fmt.Errorf("reload case: %w", err)
		}
		return nil
	})
	return out, err
}

// readUnit runs a read-only query in its own unit of work.
func (r runner) readUnit(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return r.uow.Do(ctx, fn)
}

func saveCase(ctx context.Context, repos port.Repositories, c model.CollectionCase) error {
	if err := repos.Cases.Save(ctx, c); err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	repos.Events.Record(c.DomainEvents()...)
	return nil
}
