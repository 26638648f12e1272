// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "fixed_income_lab"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	PeriodsSimulated *prometheus.CounterVec

	// Batch metrics
	BatchesTotal    *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
	ReportsWritten  prometheus.Counter
	LastBatchFinish prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on reg.
// A nil reg leaves the collectors unregistered, which tests use to avoid clashes.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of (scenario, instrument) runs by outcome",
		}, []string{"instrument", "status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Duration of a single run",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"instrument"}),
		PeriodsSimulated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "periods_simulated_total",
			Help:      "Total number of compounding periods simulated",
		}, []string{"granularity"}),

		BatchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "batches_total",
			Help:      "Total number of orchestrated batches by outcome",
		}, []string{"status"}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a full scenario x instrument batch",
			Buckets:   prometheus.DefBuckets,
		}),
		ReportsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "files_written_total",
			Help:      "Total number of report files written",
		}),
		LastBatchFinish: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "last_batch_timestamp",
			Help:      "Unix timestamp of the last finished batch",
		}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of failed database queries",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRun records a finished run. Safe on a nil receiver.
func (m *Metrics) RecordRun(instrument, granularity, status string, periods int, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(instrument, status).Inc()
	m.RunDuration.WithLabelValues(instrument).Observe(seconds)
	m.PeriodsSimulated.WithLabelValues(granularity).Add(float64(periods))
}

// RecordBatch records a finished orchestrator batch.
func (m *Metrics) RecordBatch(status string, seconds float64, finishedUnix int64) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(status).Inc()
	m.BatchDuration.Observe(seconds)
	m.LastBatchFinish.Set(float64(finishedUnix))
}

// RecordReports adds n written report files.
func (m *Metrics) RecordReports(n int) {
	if m == nil {
		return
	}
	m.ReportsWritten.Add(float64(n))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
