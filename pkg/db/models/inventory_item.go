package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks stock and reserved counts per variant.
// Invariant: 0 <= reserved <= stock after every mutation; availability is
// always stock - reserved.
type InventoryItem struct {
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
	Reserved  int       `gorm:"column:reserved;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns the quantity open to new reservations.
func (i InventoryItem) Available() int {
	return i.Stock - i.Reserved
}
