package metrics

import "github.com/prometheus/client_golang/prometheus"

// ResilienceMetrics exports retry attempts and circuit breaker transitions.
type ResilienceMetrics struct {
	service     string
	retries     *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewResilienceMetrics(service string, registerer prometheus.Registerer) *ResilienceMetrics {
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retried remote calls by operation.",
		},
		[]string{"service", "operation"},
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes by operation and target state.",
		},
		[]string{"service", "operation", "from", "to"},
	)
	registerer.MustRegister(retries, transitions)

	return &ResilienceMetrics{
		service:     service,
		retries:     retries,
		transitions: transitions,
	}
}

func (m *ResilienceMetrics) OnRetry(operation string, _ int) {
	m.retries.WithLabelValues(m.service, operation).Inc()
}

func (m *ResilienceMetrics) OnBreakerStateChange(operation, from, to string) {
	m.transitions.WithLabelValues(m.service, operation, from, to).Inc()
}
