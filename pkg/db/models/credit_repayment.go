package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// CreditRepayment is one attempt to repay a delivered credit purchase.
// The pricing breakdown is frozen at initiation together with the tier
// snapshot version that produced it; completion never re-prices.
type CreditRepayment struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RepaymentCode   string                `gorm:"column:repayment_code;type:text;uniqueIndex;not null"`
	VendorID        uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	PurchaseID      *uuid.UUID            `gorm:"column:purchase_id;type:uuid;index"`
	Status          enums.RepaymentStatus `gorm:"column:status;type:repayment_status_enum;not null;default:pending"`
	DaysElapsed     int                   `gorm:"column:days_elapsed;not null"`
	TierKind        enums.TierKind        `gorm:"column:tier_kind;type:tier_kind_enum;not null"`
	RatePercent     string                `gorm:"column:rate_percent;type:numeric(5,2);not null"`
	TierVersion     int                   `gorm:"column:tier_version;not null"`
	BaseAmount      int64                 `gorm:"column:base_amount_paise;not null"`
	DiscountAmount  int64                 `gorm:"column:discount_amount_paise;not null;default:0"`
	InterestAmount  int64                 `gorm:"column:interest_amount_paise;not null;default:0"`
	FinalPayable    int64                 `gorm:"column:final_payable_paise;not null"`
	CreditUsedBefore int64                `gorm:"column:credit_used_before_paise;not null"`
	CreditUsedAfter  int64                `gorm:"column:credit_used_after_paise;not null"`
	BankAccountID   *uuid.UUID            `gorm:"column:bank_account_id;type:uuid"`
	GatewayRef      *string               `gorm:"column:gateway_ref;type:text"`
	FailureReason   *string               `gorm:"column:failure_reason;type:text"`
	InitiatedAt     time.Time             `gorm:"column:initiated_at;not null"`
	CompletedAt     *time.Time            `gorm:"column:completed_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
