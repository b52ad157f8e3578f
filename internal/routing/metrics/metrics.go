package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for routing decisions.
type Metrics struct {
	DecisionsTotal      *prometheus.CounterVec
	EvaluateLatency     prometheus.Histogram
	EvidenceLatency     *prometheus.HistogramVec
	DuplicateForwarding prometheus.Counter
	DirectoryErrors     prometheus.Counter
}

// New registers and returns routing metrics collectors.
func New() *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "spamstopper_routing_decisions_total",
			Help: "Total routing decisions, labeled by outcome and reason",
		}, []string{"outcome", "reason"}),
		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "spamstopper_routing_evaluate_latency_seconds",
			Help:    "Latency of full routing evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		EvidenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spamstopper_routing_evidence_latency_seconds",
			Help:    "Latency of evidence fetches in seconds, labeled by source",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"source"}),
		DuplicateForwarding: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spamstopper_routing_duplicate_forwarding_total",
			Help: "Evaluations that found multiple subscribers sharing a forwarding number",
		}),
		DirectoryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spamstopper_routing_directory_errors_total",
			Help: "Evaluations aborted because the subscriber directory was unreachable",
		}),
	}
}

func (m *Metrics) IncrementDecision(outcome, reason string) {
	m.DecisionsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	m.EvaluateLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
}
