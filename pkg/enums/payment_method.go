package enums

// PaymentMethodManualTransfer is the one payment method handled without the
// gateway: the buyer wires money and uploads proof for admin verification.
// Every other method code is a gateway channel code validated against the
// gateway's channel list at checkout time.
const PaymentMethodManualTransfer = "MANUAL_TRANSFER"

// IsManualTransfer reports whether the method code selects the manual
// bank-transfer flow.
func IsManualTransfer(method string) bool {
	return method == PaymentMethodManualTransfer
}
