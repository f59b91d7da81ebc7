package enums

import "fmt"

// PaymentStatus tracks the money lifecycle of an order, independent of
// fulfillment.
type PaymentStatus string

const (
	PaymentStatusUnpaid              PaymentStatus = "UNPAID"
	PaymentStatusPaid                PaymentStatus = "PAID"
	PaymentStatusFailed              PaymentStatus = "FAILED"
	PaymentStatusExpired             PaymentStatus = "EXPIRED"
	PaymentStatusRefunded            PaymentStatus = "REFUNDED"
	PaymentStatusPendingVerification PaymentStatus = "PENDING_VERIFICATION"
	PaymentStatusRejected            PaymentStatus = "REJECTED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusExpired,
	PaymentStatusRefunded,
	PaymentStatusPendingVerification,
	PaymentStatusRejected,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
// PAID is terminal except for the refund transition, which the state
// machine allows explicitly.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusFailed, PaymentStatusExpired, PaymentStatusRefunded, PaymentStatusRejected:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
