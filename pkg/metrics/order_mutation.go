package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Order mutation operations.
const (
	OpAddOfferItem    = "add_offer_item"
	OpAdjustOfferItem = "adjust_offer_item"
	OpPlaceOrder      = "place_order"
)

// OutcomeSuccess labels mutations that committed.
const OutcomeSuccess = "success"

// OrderMutationMetrics records buyer-facing order mutations. Outcomes are
// either OutcomeSuccess or the lower-cased error code that rejected them.
type OrderMutationMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewOrderMutationMetrics registers the collectors on reg. A nil registerer
// yields a no-op recorder.
func NewOrderMutationMetrics(reg prometheus.Registerer) *OrderMutationMetrics {
	if reg == nil {
		return &OrderMutationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_mutation_duration_seconds",
		Help:    "Duration of order mutations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_mutations_total",
		Help: "Order mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, total)
	return &OrderMutationMetrics{
		duration: duration,
		total:    total,
	}
}

// Observe records one finished mutation.
func (m *OrderMutationMetrics) Observe(operation, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
	m.total.WithLabelValues(operation, normalizeLabel(strings.ToLower(outcome))).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
