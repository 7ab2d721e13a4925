// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram

	// Suppressed per-period failures, by engine stage. These mirror the
	// Diagnostics block of each result so absorbed failures stay visible
	// across runs.
	ComputationErrorsSuppressed *prometheus.CounterVec
	PeriodsBelowBreadth         *prometheus.CounterVec

	// Data boundary metrics
	PanelsLoaded     *prometheus.CounterVec
	ResultsPersisted prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "factor_eval_lab"
	}

	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "runs_total",
			Help:      "Total number of evaluation runs by status",
		}, []string{"status"}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "Evaluation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ComputationErrorsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "computation_errors_suppressed_total",
			Help:      "Per-period computation failures recorded as missing values",
		}, []string{"stage"}),
		PeriodsBelowBreadth: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "periods_below_breadth_total",
			Help:      "Periods skipped or zeroed by a minimum-breadth guard",
		}, []string{"stage"}),
		PanelsLoaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "panels_loaded_total",
			Help:      "Panels loaded by source type",
		}, []string{"source"}),
		ResultsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "results_persisted_total",
			Help:      "Evaluation results written to the result store",
		}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvaluation records one evaluation run.
func RecordEvaluation(status string, durationSeconds float64) {
	DefaultMetrics.EvaluationsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.EvaluationDuration.Observe(durationSeconds)
}

// RecordSuppressed adds suppressed per-period failure counts for a stage.
func RecordSuppressed(stage string, errors, belowBreadth int) {
	if errors > 0 {
		DefaultMetrics.ComputationErrorsSuppressed.WithLabelValues(stage).Add(float64(errors))
	}
	if belowBreadth > 0 {
		DefaultMetrics.PeriodsBelowBreadth.WithLabelValues(stage).Add(float64(belowBreadth))
	}
}

// RecordPanelLoaded increments the panel load counter for a source.
func RecordPanelLoaded(source string) {
	DefaultMetrics.PanelsLoaded.WithLabelValues(source).Inc()
}

// RecordResultPersisted increments the persisted-results counter.
func RecordResultPersisted() {
	DefaultMetrics.ResultsPersisted.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
