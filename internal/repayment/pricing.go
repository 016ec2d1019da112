package repayment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrimandi/agrimandi-backend/internal/tiers"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
)

// AppliedTier names the tier a breakdown was priced under.
type AppliedTier struct {
	Name string
	Rate decimal.Decimal
}

// Breakdown is the full, auditable result of pricing one repayment. Exactly
// one of DiscountDeduction / InterestAddition is non-zero; when neither tier
// matches the vendor pays exactly the principal.
type Breakdown struct {
	DaysElapsed             int
	TierVersion             int
	Kind                    enums.TierKind
	Applied                 AppliedTier
	BaseAmount              money.Amount
	DiscountDeduction       money.Amount
	InterestAddition        money.Amount
	FinalPayable            money.Amount
	SavingsFromEarlyPayment money.Amount
	PenaltyFromLatePayment  money.Amount
}

// DaysBetween returns the number of whole days from purchase to repayment,
// truncating partial days.
func DaysBetween(purchaseDate, repaymentDate time.Time) int {
	return int(repaymentDate.Sub(purchaseDate).Hours() / 24)
}

// Price converts elapsed time into a discount- or interest-adjusted payable
// amount. Rounding happens exactly once, on the tier adjustment, half-up to
// the paisa; it is never accumulated across intermediate steps.
func Price(principal money.Amount, purchaseDate, repaymentDate time.Time, snap *tiers.Snapshot) (Breakdown, error) {
	if snap == nil {
		return Breakdown{}, apperrors.New(apperrors.CodeValidation, "tier snapshot is required")
	}
	if !principal.IsPositive() {
		return Breakdown{}, apperrors.New(apperrors.CodeValidation, "principal must be positive")
	}
	if repaymentDate.Before(purchaseDate) {
		return Breakdown{}, apperrors.New(apperrors.CodeValidation, "repayment date is before purchase date")
	}

	breakdown := Breakdown{
		DaysElapsed:  DaysBetween(purchaseDate, repaymentDate),
		TierVersion:  snap.Version,
		Kind:         enums.TierKindNone,
		BaseAmount:   principal,
		FinalPayable: principal,
	}

	tier, ok := snap.Match(breakdown.DaysElapsed)
	if !ok {
		return breakdown, nil
	}

	adjustment := principal.Percent(tier.Rate)
	breakdown.Kind = tier.Kind
	breakdown.Applied = AppliedTier{Name: tier.Name, Rate: tier.Rate}

	switch tier.Kind {
	case enums.TierKindDiscount:
		breakdown.DiscountDeduction = adjustment
		breakdown.SavingsFromEarlyPayment = adjustment
		breakdown.FinalPayable = principal.Sub(adjustment)
	case enums.TierKindInterest:
		breakdown.InterestAddition = adjustment
		breakdown.PenaltyFromLatePayment = adjustment
		breakdown.FinalPayable = principal.Add(adjustment)
	default:
		return Breakdown{}, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("unhandled tier kind %q", tier.Kind))
	}
	return breakdown, nil
}
