// Package metrics exposes Prometheus counters for ingestion runs and sweeps.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobmate/ingestion-service/internal/model"
)

const namespace = "ingestion"

// Metrics owns its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	postings     *prometheus.CounterVec
	fetchErrors  prometheus.Counter
	commitChunks *prometheus.CounterVec
	runDuration  prometheus.Histogram
	lastRun      prometheus.Gauge

	sweepPostings *prometheus.CounterVec
	sweepDuration prometheus.Histogram
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Ingestion runs by outcome (completed, skipped, dry_run).",
		}, []string{"outcome"}),
		postings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "postings_total",
			Help: "Postings seen by live runs, by result.",
		}, []string{"result"}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_errors_total",
			Help: "Failed upstream (query, location) fetches.",
		}),
		commitChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commit_chunks_total",
			Help: "Bulk write chunks by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of live ingestion runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_completed_timestamp_seconds",
			Help: "Completion time of the last live run.",
		}),
		sweepPostings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sweep_postings_total",
			Help: "Postings handled by live sweeps, by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "sweep_duration_seconds",
			Help:    "Wall time of live sweeps.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.postings, m.fetchErrors, m.commitChunks, m.runDuration, m.lastRun,
		m.sweepPostings, m.sweepDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records the outcome of one controller invocation.
func (m *Metrics) ObserveRun(run model.BatchRun, skipped, dryRun bool) {
	if m == nil {
		return
	}
	switch {
	case skipped:
		m.runs.WithLabelValues("skipped").Inc()
		return
	case dryRun:
		m.runs.WithLabelValues("dry_run").Inc()
		return
	}
	m.runs.WithLabelValues("completed").Inc()
	m.postings.WithLabelValues("fetched").Add(float64(run.TotalFetched))
	m.postings.WithLabelValues("new").Add(float64(run.NewJobs))
	m.postings.WithLabelValues("duplicate").Add(float64(run.Duplicates))
	m.postings.WithLabelValues("filtered").Add(float64(run.Filtered))
	m.postings.WithLabelValues("unparseable").Add(float64(run.Skipped))
	m.postings.WithLabelValues("failed_write").Add(float64(run.FailedWrites))
	m.runDuration.Observe(run.ExecutionTime.Seconds())
	m.lastRun.Set(float64(run.CompletedAt.Unix()))
}

// FetchFailed counts one failed upstream call.
func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

// CommitChunk counts one bulk write.
func (m *Metrics) CommitChunk(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commitChunks.WithLabelValues(result).Inc()
}

// ObserveSweep records a live sweep.
func (m *Metrics) ObserveSweep(migrated, duplicates, removed int, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepPostings.WithLabelValues("migrated").Add(float64(migrated))
	m.sweepPostings.WithLabelValues("duplicate").Add(float64(duplicates))
	m.sweepPostings.WithLabelValues("removed").Add(float64(removed))
	m.sweepDuration.Observe(d.Seconds())
}
