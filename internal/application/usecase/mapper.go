package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
)

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func toActionResponse(a model.CollectionAction) dto.ActionResponse {
	return dto.ActionResponse{
		ID:              a.ID(),
		ActionType:      a.ActionType().String(),
		Outcome:         a.Outcome().String(),
		ContactMethod:   a.ContactMethod().String(),
		PerformedBy:     a.PerformedBy(),
		PerformedAt:     a.PerformedAt(),
		Description:     a.Description(),
		PhoneNumber:     a.PhoneNumber(),
		ContactPerson:   a.ContactPerson(),
		DurationMinutes: a.DurationMinutes(),
		Latitude:        optDecimal(a.Latitude()),
		Longitude:       optDecimal(a.Longitude()),
		FollowUpDate:    optTime(a.FollowUpDate()),
		PromiseID:       a.PromiseID(),
		Notes:           a.Notes(),
	}
}

func toPromiseResponse(p model.PromiseToPay) dto.PromiseResponse {
	return dto.PromiseResponse{
		ID:                p.ID(),
		ActionID:          p.ActionID(),
		Status:            p.Status().String(),
		PromiseDate:       p.PromiseDate(),
		PaymentDate:       p.PaymentDate(),
		PromisedAmount:    p.PromisedAmount(),
		AmountPaid:        p.AmountPaid(),
		ActualPaymentDate: optTime(p.ActualPaymentDate()),
		PaymentMethod:     p.PaymentMethod(),
		RescheduleCount:   p.RescheduleCount(),
		BreachReason:      p.BreachReason(),
		Notes:             p.Notes(),
	}
}

// toCaseResponse maps a case; children are included when withChildren is set.
func toCaseResponse(c model.CollectionCase, withChildren bool) dto.CaseResponse {
	resp := dto.CaseResponse{
		ID:                  c.ID(),
		TenantID:            c.TenantID(),
		CaseNumber:          c.CaseNumber(),
		LoanID:              c.LoanID(),
		MemberID:            c.MemberID(),
		Status:              c.Status().String(),
		Priority:            c.Priority().String(),
		Classification:      c.Classification().String(),
		AssignedCollectorID: c.AssignedCollectorID(),
		OpenedDate:          c.OpenedDate(),
		AssignedDate:        optTime(c.AssignedDate()),
		ClosedDate:          optTime(c.ClosedDate()),
		DaysPastDueAtOpen:   c.DaysPastDueAtOpen(),
		CurrentDaysPastDue:  c.CurrentDaysPastDue(),
		AmountOverdue:       c.AmountOverdue(),
		TotalOutstanding:    c.TotalOutstanding(),
		AmountRecovered:     c.AmountRecovered(),
		ContactAttempts:     c.ContactAttempts(),
		LastContactDate:     optTime(c.LastContactDate()),
		NextFollowUpDate:    optTime(c.NextFollowUpDate()),
		ClosureReason:       c.ClosureReason(),
		Notes:               c.Notes(),
		Version:             c.Version(),
		CreatedAt:           c.CreatedAt(),
		UpdatedAt:           c.UpdatedAt(),
	}
	if !withChildren {
		return resp
	}
	for _, a := range c.Actions() {
		resp.Actions = append(resp.Actions, toActionResponse(a))
	}
	for _, p := range c.Promises() {
		resp.Promises = append(resp.Promises, toPromiseResponse(p))
	}
	return resp
}

func toStrategyResponse(s model.CollectionStrategy) dto.StrategyResponse {
	resp := dto.StrategyResponse{
		ID:                 s.ID(),
		TenantID:           s.TenantID(),
		Code:               s.Code(),
		Name:               s.Name(),
		Description:        s.Description(),
		LoanProductID:      s.LoanProductID(),
		TriggerDaysPastDue: s.TriggerDaysPastDue(),
		MinOutstanding:     optDecimal(s.MinOutstandingAmount()),
		MaxOutstanding:     optDecimal(s.MaxOutstandingAmount()),
		ActionType:         s.ActionType().String(),
		MessageTemplate:    s.MessageTemplate(),
		Priority:           s.Priority(),
		RepeatIntervalDays: s.RepeatIntervalDays(),
		MaxRepetitions:     s.MaxRepetitions(),
		EscalateOnFailure:  s.EscalateOnFailure(),
		RequiresApproval:   s.RequiresApproval(),
		Active:             s.IsActive(),
		EffectiveFrom:      optTime(s.EffectiveFrom()),
		EffectiveTo:        optTime(s.EffectiveTo()),
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
	}
	if maxDays, ok := s.MaxDaysPastDue(); ok {
		resp.MaxDaysPastDue = &maxDays
	}
	return resp
}

func toExecutionResponse(e model.StrategyExecution) dto.ExecutionResponse {
	return dto.ExecutionResponse{
		ID:         e.ID(),
		CaseID:     e.CaseID(),
		StrategyID: e.StrategyID(),
		ActionID:   e.ActionID(),
		ExecutedOn: e.ExecutedOn(),
		Succeeded:  e.Succeeded(),
	}
}

func toSettlementResponse(s model.DebtSettlement) dto.SettlementResponse {
	return dto.SettlementResponse{
		ID:                   s.ID(),
		TenantID:             s.TenantID(),
		ReferenceNumber:      s.ReferenceNumber(),
		CaseID:               s.CaseID(),
		LoanID:               s.LoanID(),
		MemberID:             s.MemberID(),
		SettlementType:       s.SettlementType().String(),
		Status:               s.Status().String(),
		OriginalOutstanding:  s.OriginalOutstanding(),
		SettlementAmount:     s.SettlementAmount(),
		DiscountAmount:       s.DiscountAmount(),
		DiscountPercentage:   s.DiscountPercentage(),
		AmountPaid:           s.AmountPaid(),
		RemainingBalance:     s.RemainingBalance(),
		NumberOfInstallments: s.NumberOfInstallments(),
		InstallmentAmount:    s.InstallmentAmount(),
		ProposedDate:         s.ProposedDate(),
		ApprovedDate:         optTime(s.ApprovedDate()),
		DueDate:              s.DueDate(),
		CompletedDate:        optTime(s.CompletedDate()),
		Terms:                s.Terms(),
		Justification:        s.Justification(),
		ProposedBy:           s.ProposedBy(),
		ApprovedBy:           s.ApprovedBy(),
		Notes:                s.Notes(),
	}
}

func toLegalActionResponse(l model.LegalAction) dto.LegalActionResponse {
	return dto.LegalActionResponse{
		ID:               l.ID(),
		TenantID:         l.TenantID(),
		CaseID:           l.CaseID(),
		LoanID:           l.LoanID(),
		MemberID:         l.MemberID(),
		ActionType:       l.ActionType().String(),
		Status:           l.Status().String(),
		CaseReference:    l.CaseReference(),
		CourtName:        l.CourtName(),
		LawyerName:       l.LawyerName(),
		ClaimAmount:      l.ClaimAmount(),
		JudgmentAmount:   optDecimal(l.JudgmentAmount()),
		SettlementAmount: optDecimal(l.SettlementAmount()),
		AmountRecovered:  l.AmountRecovered(),
		LegalCosts:       l.LegalCosts(),
		CourtFees:        l.CourtFees(),
		NetRecovery:      l.NetRecovery(),
		JudgmentSummary:  l.JudgmentSummary(),
		InitiatedDate:    l.InitiatedDate(),
		FiledDate:        optTime(l.FiledDate()),
		NextHearingDate:  optTime(l.NextHearingDate()),
		JudgmentDate:     optTime(l.JudgmentDate()),
		ClosedDate:       optTime(l.ClosedDate()),
		Notes:            l.Notes(),
	}
}

func toWriteOffResponse(w model.LoanWriteOff) dto.WriteOffResponse {
	return dto.WriteOffResponse{
		ID:                 w.ID(),
		TenantID:           w.TenantID(),
		LoanID:             w.LoanID(),
		CaseID:             w.CaseID(),
		WriteOffNumber:     w.WriteOffNumber(),
		WriteOffType:       w.WriteOffType().String(),
		Status:             w.Status().String(),
		Reason:             w.Reason(),
		PrincipalWriteOff:  w.PrincipalWriteOff(),
		InterestWriteOff:   w.InterestWriteOff(),
		PenaltiesWriteOff:  w.PenaltiesWriteOff(),
		FeesWriteOff:       w.FeesWriteOff(),
		TotalWriteOff:      w.TotalWriteOff(),
		RecoveredAmount:    w.RecoveredAmount(),
		NetLoss:            w.NetLoss(),
		DaysPastDue:        w.DaysPastDue(),
		CollectionAttempts: w.CollectionAttempts(),
		RequestDate:        w.RequestDate(),
		WriteOffDate:       optTime(w.WriteOffDate()),
		ApprovedByID:       w.ApprovedByID(),
		ApprovedByName:     w.ApprovedByName(),
		Notes:              w.Notes(),
	}
}
