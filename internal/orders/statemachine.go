package orders

import (
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
)

// Gateway callback statuses. REFUND is the gateway's wire value for a
// refunded transaction; it maps to our REFUNDED payment status.
const (
	CallbackStatusPaid    = "PAID"
	CallbackStatusFailed  = "FAILED"
	CallbackStatusExpired = "EXPIRED"
	CallbackStatusRefund  = "REFUND"
)

// CallbackTransition is the computed effect of one gateway callback on an
// order. Both status axes move independently: a terminal value on one
// axis never blocks the other.
type CallbackTransition struct {
	OrderStatus   enums.OrderStatus
	PaymentStatus enums.PaymentStatus

	OrderChanged   bool
	PaymentChanged bool

	// ReleaseInventory is set only when this callback is the one that
	// cancels the order, so replays never release twice.
	ReleaseInventory bool

	// MarkPaid requests stamping paid_at alongside the status update.
	MarkPaid bool

	// Recognized is false for callback statuses outside the transition
	// table. The payment status is still recorded verbatim (when the
	// axis allows it) and the caller must log the event for review.
	Recognized bool
}

// ApplyCallback computes the transition for a gateway callback status
// against the order's current state. It never mutates the order. Every
// transition is "set to X unless the axis is already terminal", so
// duplicate and out-of-order deliveries converge on the same end state.
func ApplyCallback(order *models.Order, callbackStatus string) CallbackTransition {
	tr := CallbackTransition{
		OrderStatus:   order.Status,
		PaymentStatus: order.PaymentStatus,
		Recognized:    true,
	}

	switch callbackStatus {
	case CallbackStatusPaid:
		tr.setPayment(order, enums.PaymentStatusPaid)
		if tr.PaymentChanged {
			tr.MarkPaid = true
			tr.setOrder(order, enums.OrderStatusProcessing)
		}
	case CallbackStatusFailed:
		tr.setPayment(order, enums.PaymentStatusFailed)
		tr.cancel(order)
	case CallbackStatusExpired:
		tr.setPayment(order, enums.PaymentStatusExpired)
		tr.cancel(order)
	case CallbackStatusRefund:
		// Only money already taken can come back.
		if order.PaymentStatus == enums.PaymentStatusPaid {
			tr.setPayment(order, enums.PaymentStatusRefunded)
			tr.cancel(order)
		}
	default:
		tr.Recognized = false
		tr.setPayment(order, enums.PaymentStatus(callbackStatus))
	}

	return tr
}

func (tr *CallbackTransition) setPayment(order *models.Order, target enums.PaymentStatus) {
	if order.PaymentStatus.IsTerminal() || order.PaymentStatus == target {
		return
	}
	// PAID only moves to REFUNDED.
	if order.PaymentStatus == enums.PaymentStatusPaid && target != enums.PaymentStatusRefunded {
		return
	}
	tr.PaymentStatus = target
	tr.PaymentChanged = true
}

func (tr *CallbackTransition) setOrder(order *models.Order, target enums.OrderStatus) {
	if order.Status.IsTerminal() || order.Status == target {
		return
	}
	tr.OrderStatus = target
	tr.OrderChanged = true
}

func (tr *CallbackTransition) cancel(order *models.Order) {
	if !tr.PaymentChanged {
		return
	}
	tr.setOrder(order, enums.OrderStatusCancelled)
	if tr.OrderChanged {
		tr.ReleaseInventory = true
	}
}
