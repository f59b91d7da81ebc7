package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a line-item snapshot copied from the variant at order
// creation, never re-derived from the live catalog.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	SKU            string     `gorm:"column:sku;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	WeightGram     int        `gorm:"column:weight_gram;not null;default:0"`
	TotalCents     int        `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
