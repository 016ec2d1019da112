package enums

import "fmt"

// TierKind distinguishes early-payment discount tiers from late-payment
// interest tiers in the repayment schedule.
type TierKind string

const (
	TierKindDiscount TierKind = "discount"
	TierKindInterest TierKind = "interest"
	TierKindNone     TierKind = "none"
)

var validTierKinds = []TierKind{
	TierKindDiscount,
	TierKindInterest,
	TierKindNone,
}

// IsValid reports whether the value is a known TierKind.
func (k TierKind) IsValid() bool {
	for _, candidate := range validTierKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTierKind converts raw input into a TierKind.
func ParseTierKind(value string) (TierKind, error) {
	for _, candidate := range validTierKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier kind %q", value)
}
