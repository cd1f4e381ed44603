// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scoring metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	WalletsScored     prometheus.Counter
	RecordsSkipped    prometheus.Counter
	ScoreDistribution *prometheus.HistogramVec

	// Subgraph fetch metrics
	SubgraphRequests *prometheus.CounterVec
	SubgraphLatency  *prometheus.HistogramVec
	WalletsFetched   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wallet_risk_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "runs_total",
			Help:      "Total number of scoring runs by applied strategy and status",
		}, []string{"strategy", "status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "run_duration_seconds",
			Help:      "Scoring run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		WalletsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "wallets_scored_total",
			Help:      "Total number of wallet scores produced",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "records_skipped_total",
			Help:      "Total number of malformed input records skipped",
		}),
		ScoreDistribution: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score",
			Help:      "Distribution of wallet scores",
			Buckets:   prometheus.LinearBuckets(100, 100, 10),
		}, []string{"strategy"}),

		SubgraphRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "requests_total",
			Help:      "Total number of subgraph queries by entity and status",
		}, []string{"entity", "status"}),
		SubgraphLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "request_latency_seconds",
			Help:      "Subgraph query latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
		WalletsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "wallets_fetched_total",
			Help:      "Total number of wallets whose history was fetched",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful scoring run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordRun records a finished scoring run.
func (m *Metrics) RecordRun(strategy, status string, duration time.Duration) {
	if strategy == "" {
		strategy = "none"
	}
	m.RunsTotal.WithLabelValues(strategy, status).Inc()
	m.RunDuration.Observe(duration.Seconds())
	if status == "success" {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordScores records the produced scores of one run.
func (m *Metrics) RecordScores(strategy string, scores []int) {
	m.WalletsScored.Add(float64(len(scores)))
	hist := m.ScoreDistribution.WithLabelValues(strategy)
	for _, s := range scores {
		hist.Observe(float64(s))
	}
}

// RecordRecordsSkipped adds n skipped input records.
func (m *Metrics) RecordRecordsSkipped(n int) {
	if n > 0 {
		m.RecordsSkipped.Add(float64(n))
	}
}

// RecordSubgraphRequest records one subgraph query.
func (m *Metrics) RecordSubgraphRequest(entity string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SubgraphRequests.WithLabelValues(entity, status).Inc()
	m.SubgraphLatency.WithLabelValues(entity).Observe(duration.Seconds())
}

// RecordWalletFetched increments the fetched wallets counter.
func (m *Metrics) RecordWalletFetched() {
	m.WalletsFetched.Inc()
}

// RecordDBQuery records a database operation.
func (m *Metrics) RecordDBQuery(operation string, err error, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
