package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/application/usecase"
	"github.com/bibbank/collections-service/internal/domain/service"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

func intPtr(v int) *int { return &v }

func (f *fixture) strategies() *usecase.StrategyCommands {
	return usecase.NewStrategyCommands(f.store, f.locker, nil, testLogger())
}

func (f *fixture) createStrategy(t *testing.T, req dto.CreateStrategyRequest) dto.StrategyResponse {
	t.Helper()
	req.TenantID = testTenant
	resp, err := f.strategies().Create(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestStrategyCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("create normalises the code and applies defaults", func(t *testing.T) {
		f := newFixture()
		resp := f.createStrategy(t, dto.CreateStrategyRequest{
			Code:               "  sms-early ",
			Name:               "Early SMS",
			TriggerDaysPastDue: 1,
			MaxDaysPastDue:     intPtr(30),
			ActionType:         "SMS",
			MessageTemplate:    "Dear {name}, your loan is overdue",
			Priority:           10,
		})

		assert.Equal(t, "SMS-EARLY", resp.Code)
		assert.True(t, resp.Active)
		assert.True(t, resp.EscalateOnFailure)
		assert.False(t, resp.RequiresApproval)
		require.NotNil(t, resp.MaxDaysPastDue)
		assert.Equal(t, 30, *resp.MaxDaysPastDue)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		f := newFixture()
		f.createStrategy(t, dto.CreateStrategyRequest{Code: "CALL", Name: "Call", TriggerDaysPastDue: 7, ActionType: "PHONE_CALL"})

		_, err := f.strategies().Create(ctx, dto.CreateStrategyRequest{
			TenantID: testTenant, Code: "call", Name: "Call again", TriggerDaysPastDue: 9, ActionType: "PHONE_CALL",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, valueobject.ErrValidation))
	})

	t.Run("max days below trigger is rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.strategies().Create(ctx, dto.CreateStrategyRequest{
			TenantID: testTenant, Code: "BAD", Name: "Bad", TriggerDaysPastDue: 30, MaxDaysPastDue: intPtr(10), ActionType: "SMS",
		})
		require.Error(t, err)
		assert.True(t, valueobject.IsClientError(err))
	})

	t.Run("update and deactivate", func(t *testing.T) {
		f := newFixture()
		s := f.createStrategy(t, dto.CreateStrategyRequest{Code: "LETTER", Name: "Letter", TriggerDaysPastDue: 30, ActionType: "LETTER"})

		name := "Formal letter"
		action := "DEMAND_NOTICE"
		updated, err := f.strategies().Update(ctx, dto.UpdateStrategyRequest{
			TenantID: testTenant, StrategyID: s.ID, Name: &name, ActionType: &action,
		})
		require.NoError(t, err)
		assert.Equal(t, "Formal letter", updated.Name)
		assert.Equal(t, "DEMAND_NOTICE", updated.ActionType)
		assert.Equal(t, 30, updated.TriggerDaysPastDue)

		off, err := f.strategies().SetActive(ctx, dto.SetStrategyActiveRequest{TenantID: testTenant, StrategyID: s.ID, Active: false})
		require.NoError(t, err)
		assert.False(t, off.Active)

		active, err := f.strategies().ListActive(ctx, testTenant)
		require.NoError(t, err)
		assert.Empty(t, active)
		assert.Contains(t, f.outboxTypes(), "collections.strategy.deactivated")
	})
}

func TestEvaluateStrategiesUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, dto.CaseResponse, dto.StrategyResponse) {
		f := newFixture()
		c := f.openCase(t, "loan-1", 45, "2000", "15000")
		f.createStrategy(t, dto.CreateStrategyRequest{
			Code: "SMS", Name: "Reminder", TriggerDaysPastDue: 1, MaxDaysPastDue: intPtr(30), ActionType: "SMS", Priority: 1,
		})
		call := f.createStrategy(t, dto.CreateStrategyRequest{
			Code: "CALL", Name: "Call", TriggerDaysPastDue: 31, ActionType: "PHONE_CALL", Priority: 2,
			RepeatIntervalDays: 7, MaxRepetitions: 2,
		})
		f.createStrategy(t, dto.CreateStrategyRequest{
			Code: "VISIT", Name: "Visit", TriggerDaysPastDue: 40, ActionType: "FIELD_VISIT", Priority: 1,
			MinOutstanding: decPtr("20000"),
		})
		f.createStrategy(t, dto.CreateStrategyRequest{
			Code: "DEMAND", Name: "Demand", TriggerDaysPastDue: 45, ActionType: "DEMAND_NOTICE", Priority: 5,
			RequiresApproval: true,
		})
		return f, c, call
	}

	evaluator := func(f *fixture) *usecase.EvaluateStrategiesUseCase {
		return usecase.NewEvaluateStrategiesUseCase(f.store, service.NewStrategyMatcher(), nil, testLogger())
	}

	t.Run("matches on arrears and amount, ordered by priority", func(t *testing.T) {
		f, c, _ := setup(t)

		plan, err := evaluator(f).Execute(ctx, dto.EvaluateStrategiesRequest{TenantID: testTenant, CaseID: c.ID})
		require.NoError(t, err)
		assert.Equal(t, 45, plan.DaysPastDue)
		require.Len(t, plan.Actions, 2)
		assert.Equal(t, "CALL", plan.Actions[0].Code)
		assert.Equal(t, "DEMAND", plan.Actions[1].Code)
		assert.True(t, plan.Actions[1].RequiresApproval)
	})

	t.Run("execution history holds back repeats until the interval passes", func(t *testing.T) {
		f, c, call := setup(t)
		record := usecase.NewRecordExecutionUseCase(f.store, f.locker, nil, testLogger())

		_, err := record.Execute(ctx, dto.RecordExecutionRequest{
			TenantID: testTenant, CaseID: c.ID, StrategyID: call.ID, ExecutedOn: days(0), Succeeded: true,
		})
		require.NoError(t, err)

		plan, err := evaluator(f).Execute(ctx, dto.EvaluateStrategiesRequest{TenantID: testTenant, CaseID: c.ID, AsOf: days(3)})
		require.NoError(t, err)
		require.Len(t, plan.Actions, 1)
		assert.Equal(t, "DEMAND", plan.Actions[0].Code)

		plan, err = evaluator(f).Execute(ctx, dto.EvaluateStrategiesRequest{TenantID: testTenant, CaseID: c.ID, AsOf: days(7)})
		require.NoError(t, err)
		require.Len(t, plan.Actions, 2)
		assert.Equal(t, "CALL", plan.Actions[0].Code)

		_, err = record.Execute(ctx, dto.RecordExecutionRequest{
			TenantID: testTenant, CaseID: c.ID, StrategyID: call.ID, ExecutedOn: days(7), Succeeded: false,
		})
		require.NoError(t, err)
		plan, err = evaluator(f).Execute(ctx, dto.EvaluateStrategiesRequest{TenantID: testTenant, CaseID: c.ID, AsOf: days(30)})
		require.NoError(t, err)
		require.Len(t, plan.Actions, 1, "max repetitions reached")
		assert.Equal(t, "DEMAND", plan.Actions[0].Code)
	})

	t.Run("closed case yields an empty plan", func(t *testing.T) {
		f, c, _ := setup(t)
		_, err := f.cases().Close(ctx, dto.CaseReasonRequest{TenantID: testTenant, CaseID: c.ID, Reason: "Paid elsewhere"})
		require.NoError(t, err)

		plan, err := evaluator(f).Execute(ctx, dto.EvaluateStrategiesRequest{TenantID: testTenant, CaseID: c.ID})
		require.NoError(t, err)
		assert.Empty(t, plan.Actions)
	})

	t.Run("recording against an unknown strategy fails", func(t *testing.T) {
		f, c, _ := setup(t)
		record := usecase.NewRecordExecutionUseCase(f.store, f.locker, nil, testLogger())
		_, err := record.Execute(ctx, dto.RecordExecutionRequest{TenantID: testTenant, CaseID: c.ID, StrategyID: "nope"})
		assert.True(t, errors.Is(err, valueobject.ErrNotFound))
	})
}
