package model

// State snapshots are the inverse of the Reconstruct functions and are what
// repositories persist.

// State returns the persisted form of the collection action.
func (a CollectionAction) State() CollectionActionState {
	return CollectionActionState{
		ID:              a.id,
		CaseID:          a.caseID,
		LoanID:          a.loanID,
		TenantID:        a.tenantID,
		ActionType:      a.actionType,
		Outcome:         a.outcome,
		PerformedBy:     a.performedBy,
		PerformedAt:     a.performedAt,
		Description:     a.description,
		ContactMethod:   a.contactMethod,
		PhoneNumber:     a.phoneNumber,
		ContactPerson:   a.contactPerson,
		DurationMinutes: a.durationMinutes,
		Latitude:        a.latitude,
		Longitude:       a.longitude,
		FollowUpDate:    a.followUpDate,
		PromiseID:       a.promiseID,
		Notes:           a.notes,
		CreatedAt:       a.createdAt,
	}
}

// State returns the persisted form of the case. Actions and promises are read
// through Actions and Promises.
func (c CollectionCase) State() CollectionCaseState {
	return CollectionCaseState{
		ID:                  c.id,
		TenantID:            c.tenantID,
		CaseNumber:          c.caseNumber,
		LoanID:              c.loanID,
		MemberID:            c.memberID,
		Status:              c.status,
		Priority:            c.priority,
		Classification:      c.classification,
		AssignedCollectorID: c.assignedCollectorID,
		AssignedDate:        c.assignedDate,
		OpenedDate:          c.openedDate,
		ClosedDate:          c.closedDate,
		DaysPastDueAtOpen:   c.daysPastDueAtOpen,
		CurrentDaysPastDue:  c.currentDaysPastDue,
		AmountOverdue:       c.amountOverdue,
		TotalOutstanding:    c.totalOutstanding,
		AmountRecovered:     c.amountRecovered,
		ContactAttempts:     c.contactAttempts,
		LastContactDate:     c.lastContactDate,
		NextFollowUpDate:    c.nextFollowUpDate,
		ClosureReason:       c.closureReason,
		Notes:               append([]string(nil), c.notes...),
		Version:             c.version,
		CreatedAt:           c.createdAt,
		UpdatedAt:           c.updatedAt,
	}
}

// State returns the persisted form of the collection strategy.
func (s CollectionStrategy) State() CollectionStrategyState {
	return CollectionStrategyState{
		ID:                   s.id,
		TenantID:             s.tenantID,
		Code:                 s.code,
		Name:                 s.name,
		Description:          s.description,
		LoanProductID:        s.loanProductID,
		TriggerDaysPastDue:   s.triggerDaysPastDue,
		MaxDaysPastDue:       s.maxDaysPastDue,
		MinOutstandingAmount: s.minOutstandingAmount,
		MaxOutstandingAmount: s.maxOutstandingAmount,
		ActionType:           s.actionType,
		MessageTemplate:      s.messageTemplate,
		Priority:             s.priority,
		RepeatIntervalDays:   s.repeatIntervalDays,
		MaxRepetitions:       s.maxRepetitions,
		EscalateOnFailure:    s.escalateOnFailure,
		RequiresApproval:     s.requiresApproval,
		Active:               s.active,
		EffectiveFrom:        s.effectiveFrom,
		EffectiveTo:          s.effectiveTo,
		Version:              s.version,
		CreatedAt:            s.createdAt,
		UpdatedAt:            s.updatedAt,
	}
}

// State returns the persisted form of the debt settlement.
func (s DebtSettlement) State() DebtSettlementState {
	return DebtSettlementState{
		ID:                   s.id,
		TenantID:             s.tenantID,
		ReferenceNumber:      s.referenceNumber,
		CaseID:               s.caseID,
		LoanID:               s.loanID,
		MemberID:             s.memberID,
		SettlementType:       s.settlementType,
		Status:               s.status,
		OriginalOutstanding:  s.originalOutstanding,
		SettlementAmount:     s.settlementAmount,
		DiscountAmount:       s.discountAmount,
		DiscountPercentage:   s.discountPercentage,
		AmountPaid:           s.amountPaid,
		RemainingBalance:     s.remainingBalance,
		NumberOfInstallments: s.numberOfInstallments,
		InstallmentAmount:    s.installmentAmount,
		ProposedDate:         s.proposedDate,
		ApprovedDate:         s.approvedDate,
		DueDate:              s.dueDate,
		CompletedDate:        s.completedDate,
		Terms:                s.terms,
		Justification:        s.justification,
		ProposedBy:           s.proposedBy,
		ApprovedBy:           s.approvedBy,
		Notes:                s.notes,
		Version:              s.version,
		CreatedAt:            s.createdAt,
		UpdatedAt:            s.updatedAt,
	}
}

// State returns the persisted form of the legal action.
func (l LegalAction) State() LegalActionState {
	return LegalActionState{
		ID:               l.id,
		TenantID:         l.tenantID,
		CaseID:           l.caseID,
		LoanID:           l.loanID,
		MemberID:         l.memberID,
		ActionType:       l.actionType,
		Status:           l.status,
		CaseReference:    l.caseReference,
		CourtName:        l.courtName,
		LawyerName:       l.lawyerName,
		ClaimAmount:      l.claimAmount,
		JudgmentAmount:   l.judgmentAmount,
		SettlementAmount: l.settlementAmount,
		AmountRecovered:  l.amountRecovered,
		LegalCosts:       l.legalCosts,
		CourtFees:        l.courtFees,
		JudgmentSummary:  l.judgmentSummary,
		InitiatedDate:    l.initiatedDate,
		FiledDate:        l.filedDate,
		NextHearingDate:  l.nextHearingDate,
		JudgmentDate:     l.judgmentDate,
		ClosedDate:       l.closedDate,
		Notes:            append([]string(nil), l.notes...),
		Version:          l.version,
		CreatedAt:        l.createdAt,
		UpdatedAt:        l.updatedAt,
	}
}

// State returns the persisted form of the loan write off.
func (w LoanWriteOff) State() LoanWriteOffState {
	return LoanWriteOffState{
		ID:                 w.id,
		TenantID:           w.tenantID,
		LoanID:             w.loanID,
		CaseID:             w.caseID,
		WriteOffNumber:     w.writeOffNumber,
		WriteOffType:       w.writeOffType,
		Status:             w.status,
		Reason:             w.reason,
		PrincipalWriteOff:  w.principalWriteOff,
		InterestWriteOff:   w.interestWriteOff,
		PenaltiesWriteOff:  w.penaltiesWriteOff,
		FeesWriteOff:       w.feesWriteOff,
		TotalWriteOff:      w.totalWriteOff,
		RecoveredAmount:    w.recoveredAmount,
		DaysPastDue:        w.daysPastDue,
		CollectionAttempts: w.collectionAttempts,
		RequestDate:        w.requestDate,
		WriteOffDate:       w.writeOffDate,
		ApprovedByID:       w.approvedByID,
		ApprovedByName:     w.approvedByName,
		ApprovedAt:         w.approvedAt,
		Notes:              w.notes,
		Version:            w.version,
		CreatedAt:          w.createdAt,
		UpdatedAt:          w.updatedAt,
	}
}

// State returns the persisted form of the promise to pay.
func (p PromiseToPay) State() PromiseToPayState {
	return PromiseToPayState{
		ID:                p.id,
		CaseID:            p.caseID,
		LoanID:            p.loanID,
		MemberID:          p.memberID,
		TenantID:          p.tenantID,
		ActionID:          p.actionID,
		PromiseDate:       p.promiseDate,
		PaymentDate:       p.paymentDate,
		PromisedAmount:    p.promisedAmount,
		AmountPaid:        p.amountPaid,
		ActualPaymentDate: p.actualPaymentDate,
		Status:            p.status,
		PaymentMethod:     p.paymentMethod,
		BreachReason:      p.breachReason,
		RescheduleCount:   p.rescheduleCount,
		RecordedBy:        p.recordedBy,
		Notes:             p.notes,
		CreatedAt:         p.createdAt,
		UpdatedAt:         p.updatedAt,
	}
}
