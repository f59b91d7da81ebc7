package paygate

import "github.com/shopspring/decimal"

// Fee computes the payment fee for a channel at the given amount:
// flat fee plus the percent component rounded half-up, then clamped to
// the channel's minimum/maximum fee when those are set.
func Fee(ch Channel, amountCents int64) int64 {
	fee := decimal.NewFromInt(ch.FeeFlat)

	if ch.FeePercent != "" {
		percent, err := decimal.NewFromString(ch.FeePercent)
		if err == nil && !percent.IsZero() {
			part := decimal.NewFromInt(amountCents).
				Mul(percent).
				Div(decimal.NewFromInt(100)).
				Round(0)
			fee = fee.Add(part)
		}
	}

	result := fee.IntPart()
	if ch.MinimumFee > 0 && result < ch.MinimumFee {
		result = ch.MinimumFee
	}
	if ch.MaximumFee > 0 && result > ch.MaximumFee {
		result = ch.MaximumFee
	}
	if result < 0 {
		result = 0
	}
	return result
}
