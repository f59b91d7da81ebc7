package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the counters the operations team watches during
// campaigns: order volume, callback traffic and compensation churn.
type CheckoutMetrics struct {
	ordersCreated *prometheus.CounterVec
	callbacks     *prometheus.CounterVec
	compensations prometheus.Counter
	duration      prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labelled by payment method.",
	}, []string{"method"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Gateway callbacks processed, labelled by reported status.",
	}, []string{"status"})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_compensations_total",
		Help: "Checkout runs that released reservations after a gateway failure.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "End-to-end duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersCreated, callbacks, compensations, duration)
	return &CheckoutMetrics{
		ordersCreated: ordersCreated,
		callbacks:     callbacks,
		compensations: compensations,
		duration:      duration,
	}
}

// IncOrderCreated increments the order counter for the given payment method.
func (c *CheckoutMetrics) IncOrderCreated(method string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncCallback increments the callback counter for the reported status.
func (c *CheckoutMetrics) IncCallback(status string) {
	if c == nil || c.callbacks == nil {
		return
	}
	c.callbacks.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncCompensation increments the compensation counter.
func (c *CheckoutMetrics) IncCompensation() {
	if c == nil || c.compensations == nil {
		return
	}
	c.compensations.Inc()
}

// ObserveCheckout records how long a checkout request took.
func (c *CheckoutMetrics) ObserveCheckout(duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
