package models

import "time"

// Setting is a single keyed engine setting, e.g. the active tier version.
type Setting struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Setting keys.
const (
	SettingActiveTierVersion   = "active_tier_version"
	SettingCommissionThreshold = "commission_threshold_paise"
	SettingCommissionLowRate   = "commission_rate_low"
	SettingCommissionHighRate  = "commission_rate_high"
)
