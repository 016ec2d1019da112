package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// RepaymentTier is one day-range rate band. Tiers are versioned as a set:
// editing tiers writes a whole new version and leaves old versions intact
// so frozen repayment breakdowns stay explainable.
type RepaymentTier struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Version     int            `gorm:"column:version;not null;index:idx_repayment_tiers_version"`
	Kind        enums.TierKind `gorm:"column:kind;type:tier_kind_enum;not null"`
	Name        string         `gorm:"column:name;type:text;not null"`
	PeriodStart int            `gorm:"column:period_start;not null"`
	PeriodEnd   int            `gorm:"column:period_end;not null"`
	RatePercent string         `gorm:"column:rate_percent;type:numeric(5,2);not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
