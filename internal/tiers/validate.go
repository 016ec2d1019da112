package tiers

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

var validate = validator.New()

var hundred = decimal.NewFromInt(100)

// ValidateSet checks a proposed tier table before it becomes a new snapshot
// version. Rules:
//
//   - every tier needs a name, a known kind, and a rate > 0
//   - discount rates stay below 100%
//   - periodEnd must be >= periodStart
//   - tiers of the same kind must not overlap
//   - every discount range must end before the first interest range begins
//
// A gap between the last discount day and the first interest day is legal:
// repayments landing there pay exactly the principal.
func ValidateSet(set []Tier) error {
	if len(set) == 0 {
		return apperrors.New(apperrors.CodeValidation, "at least one tier is required")
	}

	for _, tier := range set {
		if err := validate.Struct(tier); err != nil {
			return apperrors.Wrap(apperrors.CodeValidation, err, "invalid tier definition")
		}
		if tier.Kind != enums.TierKindDiscount && tier.Kind != enums.TierKindInterest {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown tier kind %q", tier.Kind))
		}
		if !tier.Rate.IsPositive() {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("tier %q rate must be positive", tier.Name))
		}
		if tier.Kind == enums.TierKindDiscount && tier.Rate.GreaterThanOrEqual(hundred) {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("discount tier %q rate must be below 100%%", tier.Name))
		}
		if tier.PeriodEnd < tier.PeriodStart {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("tier %q period end %d is before period start %d", tier.Name, tier.PeriodEnd, tier.PeriodStart))
		}
	}

	if err := checkOverlaps(filterKind(set, enums.TierKindDiscount)); err != nil {
		return err
	}
	if err := checkOverlaps(filterKind(set, enums.TierKindInterest)); err != nil {
		return err
	}

	lastDiscountEnd := -1
	for _, tier := range set {
		if tier.Kind == enums.TierKindDiscount && tier.PeriodEnd > lastDiscountEnd {
			lastDiscountEnd = tier.PeriodEnd
		}
	}
	for _, tier := range set {
		if tier.Kind == enums.TierKindInterest && tier.PeriodStart <= lastDiscountEnd {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf(
				"interest tier %q starts on day %d before discounts end on day %d",
				tier.Name, tier.PeriodStart, lastDiscountEnd))
		}
	}
	return nil
}

func filterKind(set []Tier, kind enums.TierKind) []Tier {
	var out []Tier
	for _, tier := range set {
		if tier.Kind == kind {
			out = append(out, tier)
		}
	}
	return out
}

func checkOverlaps(set []Tier) error {
	if len(set) < 2 {
		return nil
	}
	sorted := make([]Tier, len(set))
	copy(sorted, set)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PeriodStart < sorted[j].PeriodStart })
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if next.PeriodStart <= prev.PeriodEnd {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf(
				"tiers %q and %q overlap on days %d-%d",
				prev.Name, next.Name, next.PeriodStart, prev.PeriodEnd))
		}
	}
	return nil
}
