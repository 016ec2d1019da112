package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// CreditPurchase is a vendor's request for wholesale stock on credit.
// Status is set exactly once by an approver; DeliveryStatus only advances
// forward and is owned by the fulfillment tracker after approval.
type CreditPurchase struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseCode       string               `gorm:"column:purchase_code;type:text;uniqueIndex;not null"`
	VendorID           uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null;index:idx_credit_purchases_vendor_status"`
	TotalAmount        int64                `gorm:"column:total_amount_paise;not null"`
	Status             enums.PurchaseStatus `gorm:"column:status;type:purchase_status_enum;not null;default:requested;index:idx_credit_purchases_vendor_status"`
	DeliveryStatus     enums.DeliveryStatus `gorm:"column:delivery_status;type:delivery_status_enum;not null;default:scheduled"`
	ReviewedBy         *uuid.UUID           `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt         *time.Time           `gorm:"column:reviewed_at"`
	RejectionReason    *string              `gorm:"column:rejection_reason;type:text"`
	ExpectedDeliveryAt *time.Time           `gorm:"column:expected_delivery_at"`
	DeliveredAt        *time.Time           `gorm:"column:delivered_at"`
	DeliveryNotes      *string              `gorm:"column:delivery_notes;type:text"`
	Items              []CreditPurchaseItem `gorm:"foreignKey:PurchaseID"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// CreditPurchaseItem is one product line on a credit purchase.
type CreditPurchaseItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID  uuid.UUID `gorm:"column:purchase_id;type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName string    `gorm:"column:product_name;type:text;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	UnitCost    int64     `gorm:"column:unit_cost_paise;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
