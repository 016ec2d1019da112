package tiers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// Tier is one day-range rate band inside a snapshot.
type Tier struct {
	Kind        enums.TierKind  `validate:"required"`
	Name        string          `validate:"required"`
	PeriodStart int             `validate:"min=0"`
	PeriodEnd   int             `validate:"min=0"`
	Rate        decimal.Decimal `validate:"required"`
}

// Covers reports whether daysElapsed falls inside the tier's inclusive range.
func (t Tier) Covers(daysElapsed int) bool {
	return daysElapsed >= t.PeriodStart && daysElapsed <= t.PeriodEnd
}

// Snapshot is an immutable, versioned tier table. Pricing always runs
// against a snapshot so any stored breakdown can be reproduced later from
// its version number.
type Snapshot struct {
	Version int
	Tiers   []Tier
}

// Match finds the tier that covers daysElapsed. Discount tiers are checked
// before interest tiers, each in declaration order, and the first covering
// tier wins. This ordering is the contract even when ranges are
// misconfigured with gaps or overlaps.
func (s *Snapshot) Match(daysElapsed int) (Tier, bool) {
	for _, kind := range []enums.TierKind{enums.TierKindDiscount, enums.TierKindInterest} {
		for _, tier := range s.Tiers {
			if tier.Kind == kind && tier.Covers(daysElapsed) {
				return tier, true
			}
		}
	}
	return Tier{}, false
}

// Discounts returns the discount tiers in declaration order.
func (s *Snapshot) Discounts() []Tier {
	return s.byKind(enums.TierKindDiscount)
}

// Interests returns the interest tiers in declaration order.
func (s *Snapshot) Interests() []Tier {
	return s.byKind(enums.TierKindInterest)
}

func (s *Snapshot) byKind(kind enums.TierKind) []Tier {
	var out []Tier
	for _, tier := range s.Tiers {
		if tier.Kind == kind {
			out = append(out, tier)
		}
	}
	return out
}

// BoundaryDays returns the distinct day marks where the applicable rate can
// change, in ascending order. Projection schedules are built from these.
func (s *Snapshot) BoundaryDays() []int {
	seen := map[int]bool{}
	var out []int
	for _, tier := range s.Tiers {
		for _, day := range []int{tier.PeriodStart, tier.PeriodEnd + 1} {
			if !seen[day] {
				seen[day] = true
				out = append(out, day)
			}
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func snapshotFromModels(version int, rows []models.RepaymentTier) (*Snapshot, error) {
	snap := &Snapshot{Version: version, Tiers: make([]Tier, 0, len(rows))}
	for _, row := range rows {
		rate, err := decimal.NewFromString(row.RatePercent)
		if err != nil {
			return nil, fmt.Errorf("tier %s has malformed rate %q: %w", row.Name, row.RatePercent, err)
		}
		snap.Tiers = append(snap.Tiers, Tier{
			Kind:        row.Kind,
			Name:        row.Name,
			PeriodStart: row.PeriodStart,
			PeriodEnd:   row.PeriodEnd,
			Rate:        rate,
		})
	}
	return snap, nil
}
