package paygate

import "time"

// Channel describes a payment channel offered by the gateway.
type Channel struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Group      string `json:"group"`
	Active     bool   `json:"active"`
	FeeFlat    int64  `json:"fee_flat"`
	FeePercent string `json:"fee_percent"`
	MinimumFee int64  `json:"minimum_fee"`
	MaximumFee int64  `json:"maximum_fee"`
}

// OrderItem is the line-item payload sent when creating a transaction.
type OrderItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// CreateTransactionRequest carries everything the gateway needs to open
// a payment transaction for an order.
type CreateTransactionRequest struct {
	Method        string
	MerchantRef   string
	AmountCents   int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Items         []OrderItem
	ExpiredAt     time.Time
}

// Instruction is one block of payment instructions returned by the gateway.
type Instruction struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// Transaction is the gateway's view of a payment transaction.
type Transaction struct {
	Reference    string        `json:"reference"`
	MerchantRef  string        `json:"merchant_ref"`
	Method       string        `json:"payment_method"`
	Status       string        `json:"status"`
	AmountCents  int64         `json:"amount"`
	FeeCents     int64         `json:"total_fee"`
	PayCode      string        `json:"pay_code"`
	CheckoutURL  string        `json:"checkout_url"`
	ExpiredTime  int64         `json:"expired_time"`
	Instructions []Instruction `json:"instructions"`
}

// CallbackPayload is the body the gateway posts to our callback endpoint.
type CallbackPayload struct {
	Reference      string `json:"reference"`
	MerchantRef    string `json:"merchant_ref"`
	PaymentMethod  string `json:"payment_method"`
	Status         string `json:"status"`
	AmountReceived int64  `json:"amount_received"`
	PaidAt         int64  `json:"paid_at"`
	Note           string `json:"note"`
}
