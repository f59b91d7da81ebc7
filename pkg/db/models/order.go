package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/pkg/enums"
)

// Order is the aggregate root for a checkout: line-item snapshots, totals,
// a flat shipping snapshot, and the two independent status axes. Orders are
// never deleted; cancellation is a status transition.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;uniqueIndex;not null"`

	CustomerName  string `gorm:"column:customer_name;not null"`
	CustomerEmail string `gorm:"column:customer_email;not null"`
	CustomerPhone string `gorm:"column:customer_phone;not null"`

	// Shipping snapshot: flat strings, not foreign keys. Carrier and
	// address data live outside this system and may change under us.
	Courier        string `gorm:"column:courier;not null"`
	CourierService string `gorm:"column:courier_service;not null"`
	AddressLine    string `gorm:"column:address_line;not null"`
	Subdistrict    string `gorm:"column:subdistrict"`
	City           string `gorm:"column:city;not null"`
	Province       string `gorm:"column:province;not null"`
	PostalCode     string `gorm:"column:postal_code"`

	SubtotalCents     int `gorm:"column:subtotal_cents;not null"`
	ShippingCostCents int `gorm:"column:shipping_cost_cents;not null;default:0"`
	DiscountCents     int `gorm:"column:discount_cents;not null;default:0"`
	PaymentFeeCents   int `gorm:"column:payment_fee_cents;not null;default:0"`
	TotalCents        int `gorm:"column:total_cents;not null"`
	TotalWeightGram   int `gorm:"column:total_weight_gram;not null;default:0"`

	PaymentMethod string     `gorm:"column:payment_method;not null"`
	GatewayRef    *string    `gorm:"column:gateway_ref;index"`
	VoucherID     *uuid.UUID `gorm:"column:voucher_id;type:uuid"`

	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'PENDING'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'UNPAID'"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
