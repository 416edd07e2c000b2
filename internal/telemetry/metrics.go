package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "propertybot"

// Turn outcomes.
const (
	OutcomeDelivered        = "delivered"
	OutcomeGenerationFailed = "generation_failed"
	OutcomeEmbeddingFailed  = "embedding_failed"
)

// Import row outcomes.
const (
	RowImported = "imported"
	RowSkipped  = "skipped"
	RowFailed   = "failed"
)

// Metrics holds the Prometheus collectors for the chat and import pipelines.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	turnsTotal        *prometheus.CounterVec
	turnDuration      prometheus.Histogram
	extractedIDsTotal prometheus.Counter
	missesTotal       prometheus.Counter
	catalogFailures   prometheus.Counter
	importRowsTotal   *prometheus.CounterVec
	activeSessions    prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by outcome.",
		},
		[]string{"outcome"},
	)
	turnDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end chat turn duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	extractedIDsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "extracted_ids_total",
			Help:      "Property identifiers extracted from generated answers.",
		},
	)
	missesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "catalog",
			Name:      "resolution_misses_total",
			Help:      "Extracted identifiers the catalog did not resolve.",
		},
	)
	catalogFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "catalog",
			Name:      "failures_total",
			Help:      "Catalog lookups that failed or were short-circuited.",
		},
	)
	importRowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Imported property rows by outcome.",
		},
		[]string{"outcome"},
	)
	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Open chat connections.",
		},
	)

	registry.MustRegister(turnsTotal, turnDuration, extractedIDsTotal, missesTotal, catalogFailures, importRowsTotal, activeSessions)

	return &Metrics{
		registry:          registry,
		turnsTotal:        turnsTotal,
		turnDuration:      turnDuration,
		extractedIDsTotal: extractedIDsTotal,
		missesTotal:       missesTotal,
		catalogFailures:   catalogFailures,
		importRowsTotal:   importRowsTotal,
		activeSessions:    activeSessions,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Turn(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ExtractedIDs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.extractedIDsTotal.Add(float64(n))
}

func (m *Metrics) ResolutionMisses(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.missesTotal.Add(float64(n))
}

func (m *Metrics) CatalogFailure() {
	if m == nil {
		return
	}
	m.catalogFailures.Inc()
}

func (m *Metrics) ImportRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRowsTotal.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
