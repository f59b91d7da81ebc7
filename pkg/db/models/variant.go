package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a purchasable SKU (color/size combination) of a product.
// Orders snapshot its name/sku/price at creation time, never a live
// reference.
type Variant struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        string         `gorm:"column:sku;uniqueIndex;not null"`
	Color      string         `gorm:"column:color"`
	Size       string         `gorm:"column:size"`
	PriceCents int            `gorm:"column:price_cents;not null"`
	Product    *Product       `gorm:"foreignKey:ProductID"`
	Inventory  *InventoryItem `gorm:"foreignKey:VariantID"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
