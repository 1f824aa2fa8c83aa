// Package observability provides Prometheus metrics for monitoring.
// A CLI run is short-lived, so metrics are exported as a node_exporter
// textfile instead of being scraped.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Scan metrics
	TokenAccountsListed   prometheus.Counter
	CandidatesFound       prometheus.Counter
	NFTsQualified         prometheus.Counter
	QualificationFailures *prometheus.CounterVec
	ScanDuration          prometheus.Histogram

	// Burn metrics
	BurnTransactions *prometheus.CounterVec
	TokensBurned     prometheus.Counter

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nft_burner"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TokenAccountsListed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "token_accounts_listed_total",
			Help:      "Total number of token accounts returned by the ledger",
		}),
		CandidatesFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_total",
			Help:      "Total number of single-unit token accounts sent to qualification",
		}),
		NFTsQualified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "qualified_total",
			Help:      "Total number of candidates that qualified",
		}),
		QualificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "qualification_failures_total",
			Help:      "Total number of candidates that did not qualify by reason",
		}, []string{"reason"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		BurnTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "burn",
			Name:      "transactions_total",
			Help:      "Total number of burn transactions by status",
		}, []string{"status"}),
		TokensBurned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "burn",
			Name:      "tokens_burned_total",
			Help:      "Total number of tokens burned in confirmed transactions",
		}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// RecordScan records the outcome of one scan.
func (m *Metrics) RecordScan(accounts, candidates, qualified int, duration time.Duration) {
	if m == nil {
		return
	}
	m.TokenAccountsListed.Add(float64(accounts))
	m.CandidatesFound.Add(float64(candidates))
	m.NFTsQualified.Add(float64(qualified))
	m.ScanDuration.Observe(duration.Seconds())
}

// QualificationFailed increments the failure counter for reason.
func (m *Metrics) QualificationFailed(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.QualificationFailures.WithLabelValues(reason).Inc()
}

// RecordBurn records a burn transaction attempt. status is "confirmed" or a failure stage.
func (m *Metrics) RecordBurn(status string, tokens int) {
	if m == nil {
		return
	}
	m.BurnTransactions.WithLabelValues(status).Inc()
	if status == BurnStatusConfirmed {
		m.TokensBurned.Add(float64(tokens))
	}
}

// MarkSuccess sets the last successful run timestamp to now.
func (m *Metrics) MarkSuccess() {
	if m == nil {
		return
	}
	m.LastSuccessfulRun.SetToCurrentTime()
}

// BurnStatusConfirmed labels a confirmed burn transaction.
const BurnStatusConfirmed = "confirmed"
