package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/pkg/enums"
)

// Voucher is a discount code with a quota and an active window.
// Invariant: used <= quota; used increments exactly once per order that
// applies the voucher, inside the order-creation transaction.
type Voucher struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code          string            `gorm:"column:code;uniqueIndex;not null"`
	Type          enums.VoucherType `gorm:"column:type;not null"`
	Value         int               `gorm:"column:value;not null"`
	MinSpendCents int               `gorm:"column:min_spend_cents;not null;default:0"`
	StartAt       time.Time         `gorm:"column:start_at;not null"`
	EndAt         time.Time         `gorm:"column:end_at;not null"`
	Active        bool              `gorm:"column:active;not null;default:true"`
	Quota         int               `gorm:"column:quota;not null"`
	Used          int               `gorm:"column:used;not null;default:0"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
