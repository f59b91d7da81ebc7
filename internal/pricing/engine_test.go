package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
)

func tenPercentVoucher(minSpend int) *models.Voucher {
	return &models.Voucher{
		Code:          "HEMAT10",
		Type:          enums.VoucherTypePercent,
		Value:         10,
		MinSpendCents: minSpend,
		StartAt:       time.Now().Add(-time.Hour),
		EndAt:         time.Now().Add(time.Hour),
		Active:        true,
		Quota:         100,
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	items := []LineItem{
		{UnitPriceCents: 150000, Qty: 2},
		{UnitPriceCents: 50000, Qty: 1},
	}
	assert.Equal(t, 350000, Subtotal(items))
	assert.Equal(t, 0, Subtotal(nil))
}

func TestDiscountPercentAboveMinSpend(t *testing.T) {
	// 300,000 with 10% voucher at 200,000 min spend -> 30,000 off,
	// 285,000 total with 15,000 shipping.
	voucher := tenPercentVoucher(200000)
	discount := Discount(300000, voucher)
	assert.Equal(t, 30000, discount)
	assert.Equal(t, 285000, Total(300000, 15000, discount))
}

func TestDiscountBelowMinSpendIsZero(t *testing.T) {
	voucher := tenPercentVoucher(200000)
	assert.Equal(t, 0, Discount(100000, voucher))
}

func TestDiscountPercentFloors(t *testing.T) {
	voucher := &models.Voucher{Type: enums.VoucherTypePercent, Value: 3}
	// 3% of 99,999 = 2,999.97 -> 2,999
	assert.Equal(t, 2999, Discount(99999, voucher))
}

func TestDiscountPercentClampsOutOfRangeValues(t *testing.T) {
	over := &models.Voucher{Type: enums.VoucherTypePercent, Value: 150}
	assert.Equal(t, 100000, Discount(100000, over))

	full := &models.Voucher{Type: enums.VoucherTypePercent, Value: 100}
	assert.Equal(t, 100000, Discount(100000, full))

	negative := &models.Voucher{Type: enums.VoucherTypePercent, Value: -10}
	assert.Equal(t, 0, Discount(100000, negative))
}

func TestDiscountFixedNeverExceedsSubtotal(t *testing.T) {
	voucher := &models.Voucher{Type: enums.VoucherTypeFixed, Value: 50000}
	assert.Equal(t, 50000, Discount(120000, voucher))
	assert.Equal(t, 30000, Discount(30000, voucher))
}

func TestDiscountNilOrUnknownTypeIsZero(t *testing.T) {
	assert.Equal(t, 0, Discount(120000, nil))
	assert.Equal(t, 0, Discount(120000, &models.Voucher{Type: "BOGOF", Value: 10}))
}

func TestTotalClampsAtZero(t *testing.T) {
	assert.Equal(t, 0, Total(10000, 0, 15000))
	assert.Equal(t, 5000, Total(10000, 5000, 10000))
}

func TestTotalRoundTripsWithDiscount(t *testing.T) {
	voucher := tenPercentVoucher(0)
	for _, subtotal := range []int{0, 1, 999, 150000, 300000} {
		discount := Discount(subtotal, voucher)
		assert.GreaterOrEqual(t, discount, 0)
		assert.LessOrEqual(t, discount, subtotal)
		assert.Equal(t, subtotal+12000-discount, Total(subtotal, 12000, discount))
	}
}

func TestTotalWeight(t *testing.T) {
	items := []LineItem{
		{WeightGram: 250, Qty: 2},
		{WeightGram: 1000, Qty: 1},
	}
	assert.Equal(t, 1500, TotalWeight(items))
}
