package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a regional reseller that buys wholesale stock on credit.
type Vendor struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorCode      string    `gorm:"column:vendor_code;type:text;uniqueIndex;not null"`
	Name            string    `gorm:"column:name;type:text;not null"`
	CreditLimit     int64     `gorm:"column:credit_limit_paise;not null;default:0"`
	CreditUsed      int64     `gorm:"column:credit_used_paise;not null;default:0"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"`
	CreditHistory   VendorCreditHistory `gorm:"embedded;embeddedPrefix:ch_"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorCreditHistory is the rollup updated after every completed repayment.
// CreditScore is recomputed from the other fields, 0-100.
type VendorCreditHistory struct {
	TotalCreditTaken     int64      `gorm:"column:total_credit_taken_paise;not null;default:0"`
	TotalRepaid          int64      `gorm:"column:total_repaid_paise;not null;default:0"`
	TotalDiscountsEarned int64      `gorm:"column:total_discounts_earned_paise;not null;default:0"`
	TotalInterestPaid    int64      `gorm:"column:total_interest_paid_paise;not null;default:0"`
	AvgRepaymentDays     int        `gorm:"column:avg_repayment_days;not null;default:0"`
	OnTimeRepayments     int        `gorm:"column:on_time_repayments;not null;default:0"`
	LateRepayments       int        `gorm:"column:late_repayments;not null;default:0"`
	TotalRepayments      int        `gorm:"column:total_repayments;not null;default:0"`
	LastRepaymentDays    int        `gorm:"column:last_repayment_days;not null;default:0"`
	LastRepaymentAt      *time.Time `gorm:"column:last_repayment_at"`
	CreditScore          int        `gorm:"column:credit_score;not null;default:100"`
}

// CreditAvailable returns the unused part of the vendor's credit line.
func (v Vendor) CreditAvailable() int64 {
	return v.CreditLimit - v.CreditUsed
}
