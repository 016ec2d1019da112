package vendors

import (
	"time"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
)

// RepaymentOutcome is the slice of a completed repayment that feeds the
// vendor's credit history rollup.
type RepaymentOutcome struct {
	Principal   int64
	Discount    int64
	Interest    int64
	DaysElapsed int
	DueDays     int
	CompletedAt time.Time
}

// ApplyRepayment folds a completed repayment into the rollup and recomputes
// the credit score. On time means the repayment landed on or before the due
// day.
func ApplyRepayment(history models.VendorCreditHistory, outcome RepaymentOutcome) models.VendorCreditHistory {
	totalDays := history.AvgRepaymentDays*history.TotalRepayments + outcome.DaysElapsed

	history.TotalCreditTaken += outcome.Principal
	history.TotalRepaid += outcome.Principal
	history.TotalDiscountsEarned += outcome.Discount
	history.TotalInterestPaid += outcome.Interest
	history.TotalRepayments++
	history.AvgRepaymentDays = totalDays / history.TotalRepayments
	if outcome.DaysElapsed <= outcome.DueDays {
		history.OnTimeRepayments++
	} else {
		history.LateRepayments++
	}
	history.LastRepaymentDays = outcome.DaysElapsed
	completedAt := outcome.CompletedAt
	history.LastRepaymentAt = &completedAt
	history.CreditScore = creditScore(history)
	return history
}

// creditScore maps the rollup to a 0-100 score. A vendor with no history
// starts at 100; afterwards the score is the on-time share of repayments,
// with a small penalty when the average repayment drifts past the last due
// window.
func creditScore(history models.VendorCreditHistory) int {
	if history.TotalRepayments == 0 {
		return 100
	}
	score := history.OnTimeRepayments * 100 / history.TotalRepayments
	if history.LateRepayments > history.OnTimeRepayments {
		score -= 10
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
