package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// Commission is the seller's cut of one settled order. One row per order,
// enforced by the unique index, so a settlement retry cannot pay twice.
type Commission struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommissionCode string                 `gorm:"column:commission_code;type:text;uniqueIndex;not null"`
	SellerID       uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID        uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	OrderAmount    int64                  `gorm:"column:order_amount_paise;not null"`
	MonthVolume    int64                  `gorm:"column:month_volume_paise;not null"`
	RatePercent    string                 `gorm:"column:rate_percent;type:numeric(5,2);not null"`
	Amount         int64                  `gorm:"column:amount_paise;not null"`
	Status         enums.CommissionStatus `gorm:"column:status;type:commission_status_enum;not null;default:pending"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
