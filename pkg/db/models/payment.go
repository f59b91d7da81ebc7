package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/pkg/enums"
	"github.com/annisahuljannah/cadoobag/pkg/types"
)

// Payment is one manual-transfer payment attempt against an order: proof
// upload, free-form transfer metadata, and the admin verification audit
// trail.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Method        string              `gorm:"column:method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'UNPAID'"`
	ProofImageURL *string             `gorm:"column:proof_image_url"`
	Meta          types.JSONMap       `gorm:"column:meta;serializer:json"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	VerifiedAt    *time.Time          `gorm:"column:verified_at"`
	VerifiedBy    *string             `gorm:"column:verified_by"`
	RejectedAt    *time.Time          `gorm:"column:rejected_at"`
	RejectionNote *string             `gorm:"column:rejection_note"`
	Order         *Order              `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
