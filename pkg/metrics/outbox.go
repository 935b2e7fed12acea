package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox publish results.
const (
	PublishPublished    = "published"
	PublishRetry        = "retry"
	PublishDeadLettered = "dead_lettered"
)

// OutboxMetrics counts publisher results per event type.
type OutboxMetrics struct {
	results *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_results_total",
		Help: "Outbox publish attempts by event type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(results)
	return &OutboxMetrics{results: results}
}

func (m *OutboxMetrics) Inc(eventType, result string) {
	if m == nil || m.results == nil {
		return
	}
	m.results.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
