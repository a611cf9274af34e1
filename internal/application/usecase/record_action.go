package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

// RecordActionUseCase appends an outreach action to a case. An action that
// carries a promise creates the promise in the same unit of work.
type RecordActionUseCase struct {
	run runner
}

// NewRecordActionUseCase wires dependencies.
func NewRecordActionUseCase(
	uow port.UnitOfWork,
	locker port.CaseLocker,
	telemetry *Telemetry,
	logger *slog.Logger,
) *RecordActionUseCase {
	return &RecordActionUseCase{run: newRunner(uow, locker, telemetry, logger)}
}

// Execute records the action.
func (uc *RecordActionUseCase) Execute(ctx context.Context, req dto.RecordActionRequest) (_ dto.RecordActionResponse, err error) {
	ctx, span := uc.run.telemetry.start(ctx, "RecordAction",
		attribute.String("tenant_id", req.TenantID),
		attribute.String("case_id", req.CaseID),
		attribute.String("action_type", req.ActionType))
	defer func() { end(span, err) }()

	now := time.Now().UTC()

	// 1. Parse the enumerations before touching the case.
	actionType, err := valueobject.NewActionType(req.ActionType)
	if err != nil {
		return dto.RecordActionResponse{}, err
	}
	outcome, err := valueobject.NewActionOutcome(req.Outcome)
	if err != nil {
		return dto.RecordActionResponse{}, err
	}
	var method valueobject.ContactMethod
	if req.ContactMethod != "" {
		if method, err = valueobject.NewContactMethod(req.ContactMethod); err != nil {
			return dto.RecordActionResponse{}, err
		}
	}
	var terms *model.PromiseTerms
	if req.Promise != nil {
		terms = &model.PromiseTerms{
			Amount:        req.Promise.Amount,
			PaymentDate:   req.Promise.PaymentDate,
			PaymentMethod: req.Promise.PaymentMethod,
			Notes:         req.Promise.Notes,
		}
	}

	var actionID, promiseID string
	c, err := uc.run.updateCase(ctx, req.TenantID, req.CaseID, func(c model.CollectionCase) (model.CollectionCase, error) {
		// 2. Build the action with its channel details.
		action, err := buildAction(c, req, actionType, outcome, method, now)
		if err != nil {
			return c, fmt.Errorf("build action: %w", err)
		}

		// 3. Append it, creating the promise when terms were given.
		next, promise, err := c.RecordAction(action, terms, now)
		if err != nil {
			return c, fmt.Errorf("record action: %w", err)
		}
		actionID = action.ID()
		if promise != nil {
			promiseID = promise.ID()
		}
		return next, nil
	})
	if err != nil {
		return dto.RecordActionResponse{}, err
	}

	return dto.RecordActionResponse{
		Case:      toCaseResponse(c, true),
		ActionID:  actionID,
		PromiseID: promiseID,
	}, nil
}

func buildAction(
	c model.CollectionCase,
	req dto.RecordActionRequest,
	actionType valueobject.ActionType,
	outcome valueobject.ActionOutcome,
	method valueobject.ContactMethod,
	now time.Time,
) (model.CollectionAction, error) {
	action, err := model.NewCollectionAction(
		c.ID(), c.LoanID(), c.TenantID(),
		actionType, outcome, req.PerformedBy, req.PerformedAt, req.Description, now,
	)
	if err != nil {
		return action, err
	}
	if !method.IsZero() {
		action = action.WithContactMethod(method)
	}
	if req.PhoneNumber != "" || req.DurationMinutes > 0 {
		if action, err = action.WithPhoneCallDetails(req.PhoneNumber, req.ContactPerson, req.DurationMinutes); err != nil {
			return action, err
		}
	}
	if req.Latitude != nil && req.Longitude != nil {
		if action, err = action.WithFieldVisitDetails(*req.Latitude, *req.Longitude, req.ContactPerson); err != nil {
			return action, err
		}
	}
	if !req.FollowUpDate.IsZero() {
		action = action.WithFollowUp(req.FollowUpDate)
	}
	if req.Notes != "" {
		action = action.WithNotes(req.Notes)
	}
	return action, nil
}
