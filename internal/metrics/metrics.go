package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for Operations.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the dashboard's prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Dataset    prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studentdash",
			Name:      "operations_total",
			Help:      "Dashboard operations executed, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studentdash",
			Name:      "operation_duration_seconds",
			Help:      "Time spent executing a dashboard operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		Dataset: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studentdash",
			Name:      "dataset_records",
			Help:      "Records in the loaded dataset.",
		}),
	}
	reg.MustRegister(m.Operations, m.Duration, m.Dataset,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
