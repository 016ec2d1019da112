package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryAssignment is the vendor's stock record for one product. The
// (vendor, product) pair is unique; stock never goes below zero.
type InventoryAssignment struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentCode string    `gorm:"column:assignment_code;type:text;uniqueIndex;not null"`
	VendorID       uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_inventory_vendor_product"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_vendor_product"`
	Stock          int       `gorm:"column:stock;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedBy      uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
