package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// Order is a customer order placed against a vendor's regional inventory.
// Settlement runs once the order is fully paid and delivered.
type Order struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderCode       string                   `gorm:"column:order_code;type:text;uniqueIndex;not null"`
	VendorID        uuid.UUID                `gorm:"column:vendor_id;type:uuid;not null;index"`
	SellerID        *uuid.UUID               `gorm:"column:seller_id;type:uuid;index"`
	CustomerID      uuid.UUID                `gorm:"column:customer_id;type:uuid;not null"`
	TotalAmount     int64                    `gorm:"column:total_amount_paise;not null"`
	PaymentStatus   enums.OrderPaymentStatus `gorm:"column:payment_status;type:order_payment_status_enum;not null;default:unpaid"`
	Assignee        enums.OrderAssignee      `gorm:"column:assignee;type:order_assignee_enum;not null;default:vendor"`
	DeliveredAt     *time.Time               `gorm:"column:delivered_at"`
	FullyPaidAt     *time.Time               `gorm:"column:fully_paid_at"`
	SettledAt       *time.Time               `gorm:"column:settled_at"`
	Items           []OrderItem              `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one product line on a customer order. Unit prices are
// snapshotted at order time so later price changes never move settlement.
type OrderItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName   string    `gorm:"column:product_name;type:text;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	UnitRetail    int64     `gorm:"column:unit_retail_paise;not null"`
	UnitWholesale int64     `gorm:"column:unit_wholesale_paise;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
