package checkout

import (
	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
)

// LineInput is one requested cart line.
type LineInput struct {
	VariantID uuid.UUID
	Qty       int
}

// CustomerInput identifies the buyer on the order snapshot.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// ShippingInput is the courier selection plus the quoted cost and the
// destination address, all snapshotted onto the order as flat strings.
type ShippingInput struct {
	Courier     string
	Service     string
	CostCents   int
	AddressLine string
	Subdistrict string
	City        string
	Province    string
	PostalCode  string
}

// Input is everything needed to place an order.
type Input struct {
	Items         []LineInput
	Customer      CustomerInput
	Shipping      ShippingInput
	PaymentMethod string
	VoucherCode   string
}

// PreviewInput prices a cart without placing an order.
type PreviewInput struct {
	Items             []LineInput
	ShippingCostCents int
	PaymentMethod     string
	VoucherCode       string
}

// Quote is the computed price breakdown for a preview.
type Quote struct {
	SubtotalCents     int `json:"subtotal_cents"`
	ShippingCostCents int `json:"shipping_cost_cents"`
	DiscountCents     int `json:"discount_cents"`
	PaymentFeeCents   int `json:"payment_fee_cents"`
	TotalCents        int `json:"total_cents"`
	TotalWeightGram   int `json:"total_weight_gram"`
}

// Result is a placed order plus whatever the buyer needs to pay it.
type Result struct {
	Order        *models.Order
	Payment      *models.Payment // manual transfer only
	GatewayRef   string
	PayCode      string
	CheckoutURL  string
	Instructions []paygate.Instruction
}
