package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the order creation pipeline.
type CheckoutMetrics struct {
	duration   *prometheus.HistogramVec
	committed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	rolledBack prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_committed",
		Help: "Order lines successfully committed during checkout.",
	}, []string{"payment_method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures",
		Help: "Checkout submissions rejected or aborted.",
	}, []string{"reason"})
	rolledBack := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_cancelled",
		Help: "Order lines cancelled by compensating updates.",
	})
	reg.MustRegister(duration, committed, failed, rolledBack)
	return &CheckoutMetrics{
		duration:   duration,
		committed:  committed,
		failed:     failed,
		rolledBack: rolledBack,
	}
}

// ObserveDuration records the total submission duration for a payment method.
func (c *CheckoutMetrics) ObserveDuration(method string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncCommitted increments the committed order-line counter.
func (c *CheckoutMetrics) IncCommitted(method string) {
	if c == nil || c.committed == nil {
		return
	}
	c.committed.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncFailure increments the failure counter for the named reason.
func (c *CheckoutMetrics) IncFailure(reason string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCancelled increments the compensating-cancellation counter.
func (c *CheckoutMetrics) IncCancelled() {
	if c == nil || c.rolledBack == nil {
		return
	}
	c.rolledBack.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
