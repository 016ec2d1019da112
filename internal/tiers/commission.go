package tiers

import (
	"github.com/shopspring/decimal"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
)

// CommissionPolicy is the two-tier commission step function: orders earn
// LowRate until the customer's monthly spend reaches ThresholdPaise, and
// HighRate from then on.
type CommissionPolicy struct {
	ThresholdPaise int64
	LowRate        decimal.Decimal
	HighRate       decimal.Decimal
}

// CommissionFromConfig builds the fallback policy from environment config.
func CommissionFromConfig(cfg config.CommissionConfig) CommissionPolicy {
	return CommissionPolicy{
		ThresholdPaise: cfg.ThresholdPaise,
		LowRate:        decimal.NewFromFloat(cfg.LowRate),
		HighRate:       decimal.NewFromFloat(cfg.HighRate),
	}
}

// Rate selects the commission rate for a customer whose monthly spend,
// including the order being settled, is newCumulativePaise. Crossing the
// threshold mid-order re-rates the entire order, not just the excess.
func (p CommissionPolicy) Rate(newCumulativePaise int64) decimal.Decimal {
	if newCumulativePaise >= p.ThresholdPaise {
		return p.HighRate
	}
	return p.LowRate
}

// Crosses reports whether this order moved the customer's monthly spend
// across the threshold for the first time.
func (p CommissionPolicy) Crosses(priorPaise, newCumulativePaise int64) bool {
	return priorPaise < p.ThresholdPaise && newCumulativePaise >= p.ThresholdPaise
}
