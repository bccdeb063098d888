package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout attempts by outcome and the latency of
// payment gateway calls.
type CheckoutMetrics struct {
	attempts       *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome.",
	}, []string{"outcome"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Duration of payment gateway charge calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	reg.MustRegister(attempts, gatewayLatency)
	return &CheckoutMetrics{
		attempts:       attempts,
		gatewayLatency: gatewayLatency,
	}
}

// IncAttempt increments the attempt counter for the given outcome.
func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGateway records the duration of one gateway charge call.
func (c *CheckoutMetrics) ObserveGateway(provider string, duration time.Duration) {
	if c == nil || c.gatewayLatency == nil {
		return
	}
	c.gatewayLatency.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
