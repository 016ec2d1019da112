package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller is a referring partner that earns tiered commission on referred
// customers' orders. WalletBalance only moves through the settlement engine.
type Seller struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerCode    string    `gorm:"column:seller_code;type:text;uniqueIndex;not null"`
	Name          string    `gorm:"column:name;type:text;not null"`
	WalletBalance int64     `gorm:"column:wallet_balance_paise;not null;default:0"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
