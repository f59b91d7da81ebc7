package pricing

import (
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
)

// LineItem is the minimal shape the engine needs to price a cart line.
type LineItem struct {
	UnitPriceCents int
	Qty            int
	WeightGram     int
}

// Subtotal sums price times quantity over all lines. All monetary math is
// integer minor units.
func Subtotal(items []LineItem) int {
	subtotal := 0
	for _, item := range items {
		subtotal += item.UnitPriceCents * item.Qty
	}
	return subtotal
}

// Discount computes the voucher discount against a subtotal. Returns 0 for
// a nil voucher, a subtotal below the minimum spend, or an unknown voucher
// type. The result is never negative and never exceeds the subtotal,
// whatever value the voucher row carries.
func Discount(subtotalCents int, voucher *models.Voucher) int {
	if voucher == nil {
		return 0
	}
	if subtotalCents < voucher.MinSpendCents {
		return 0
	}

	switch voucher.Type {
	case enums.VoucherTypePercent:
		if voucher.Value <= 0 {
			return 0
		}
		if voucher.Value >= 100 {
			return subtotalCents
		}
		return subtotalCents * voucher.Value / 100
	case enums.VoucherTypeFixed:
		if voucher.Value > subtotalCents {
			return subtotalCents
		}
		if voucher.Value < 0 {
			return 0
		}
		return voucher.Value
	default:
		return 0
	}
}

// Total computes the grand total, clamped at zero so an oversized discount
// can never produce a negative amount owed.
func Total(subtotalCents, shippingCostCents, discountCents int) int {
	total := subtotalCents + shippingCostCents - discountCents
	if total < 0 {
		return 0
	}
	return total
}

// TotalWeight sums line weight times quantity, in grams.
func TotalWeight(items []LineItem) int {
	weight := 0
	for _, item := range items {
		weight += item.WeightGram * item.Qty
	}
	return weight
}
