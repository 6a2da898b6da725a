package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog subset the order engine needs: current price
// for checkout validation and the owning seller for fulfillment
// authorization. Soft-deleted so historical order items resolve a
// removed product to "unavailable" instead of a broken reference.
type Product struct {
	ID       string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SellerID string          `gorm:"type:varchar(36);not null;index" json:"seller_id"`
	Name     string          `gorm:"type:varchar(200);not null" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
