package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// VendorEarning is the vendor's margin on one order line. The
// (order, product) pair is unique so settlement retries never double-pay.
type VendorEarning struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EarningCode  string              `gorm:"column:earning_code;type:text;uniqueIndex;not null"`
	VendorID     uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID      uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_vendor_earnings_order_product"`
	ProductID    uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_vendor_earnings_order_product"`
	Quantity     int                 `gorm:"column:quantity;not null"`
	UnitMargin   int64               `gorm:"column:unit_margin_paise;not null"`
	Amount       int64               `gorm:"column:amount_paise;not null"`
	Status       enums.EarningStatus `gorm:"column:status;type:earning_status_enum;not null;default:pending"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
