package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the parent of sellable variants. Weight lives here and is
// inherited by every variant.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Slug           string    `gorm:"column:slug;uniqueIndex;not null"`
	Name           string    `gorm:"column:name;not null"`
	BaseWeightGram int       `gorm:"column:base_weight_gram;not null;default:0"`
	Active         bool      `gorm:"column:active;not null;default:true"`
	Variants       []Variant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
