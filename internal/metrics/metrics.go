// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lexicon"

var (
	// httpRequests counts handled requests.
	// Labels: method, route (mux pattern), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// importRows counts processed CSV rows.
	// Labels: outcome (imported, skipped, failed)
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "CSV rows processed by the importer by outcome",
	}, []string{"outcome"})

	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Import runs by final status",
	}, []string{"status", "dry_run"})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "run_duration_seconds",
		Help:      "Wall time of import runs",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	panics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics caught by the recovery middleware",
	})

	purgedLexemes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lexicon",
		Name:      "purged_lexemes_total",
		Help:      "Soft-deleted lexemes removed permanently",
	})
)

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ImportRows adds n rows with the given outcome.
func ImportRows(outcome string, n int) {
	if n > 0 {
		importRows.WithLabelValues(outcome).Add(float64(n))
	}
}

// ImportRun records a finished import run.
func ImportRun(status string, dryRun bool, d time.Duration) {
	importRuns.WithLabelValues(status, strconv.FormatBool(dryRun)).Inc()
	importDuration.Observe(d.Seconds())
}

// LexemesPurged adds n permanently deleted lexemes.
func LexemesPurged(n int64) {
	if n > 0 {
		purgedLexemes.Add(float64(n))
	}
}

// PanicRecovered counts one recovered handler panic.
func PanicRecovered() {
	panics.Inc()
}
