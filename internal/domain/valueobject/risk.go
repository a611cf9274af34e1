package valueobject

import "github.com/shopspring/decimal"

// Thresholds are exclusive: a value exactly on a boundary stays in the lower band.
var (
	priorityCriticalAmount = decimal.NewFromInt(100_000)
	priorityHighAmount     = decimal.NewFromInt(50_000)
	priorityMediumAmount   = decimal.NewFromInt(10_000)
)

// Classify maps days past due onto a PAR bucket.
//
//	> 180 -> LOSS
//	>  90 -> DOUBTFUL
//	>  30 -> SUBSTANDARD
//	>   0 -> WATCH
//	else  -> CURRENT
func Classify(daysPastDue int) Classification {
	switch {
	case daysPastDue > 180:
		return ClassificationLoss
	case daysPastDue > 90:
		return ClassificationDoubtful
	case daysPastDue > 30:
		return ClassificationSubstandard
	case daysPastDue > 0:
		return ClassificationWatch
	default:
		return ClassificationCurrent
	}
}

// Prioritize ranks a case from its arrears age and overdue amount.
// The first matching rule wins, evaluated from most to least severe.
func Prioritize(daysPastDue int, amountOverdue decimal.Decimal) CasePriority {
	switch {
	case daysPastDue > 90 || amountOverdue.GreaterThan(priorityCriticalAmount):
		return CasePriorityCritical
	case daysPastDue > 60 || amountOverdue.GreaterThan(priorityHighAmount):
		return CasePriorityHigh
	case daysPastDue > 30 || amountOverdue.GreaterThan(priorityMediumAmount):
		return CasePriorityMedium
	default:
		return CasePriorityLow
	}
}
