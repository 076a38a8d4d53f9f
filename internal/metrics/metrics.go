package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "macrocal"

// Collector is a prometheus.Collector for sync, revision and dedup outcomes.
// It satisfies service.Recorder.
type Collector struct {
	syncRuns        *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	rowsProcessed   *prometheus.CounterVec
	releasesWritten *prometheus.CounterVec
	rowErrors       *prometheus.CounterVec
	revisions       *prometheus.CounterVec
	dedupChanges    *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		syncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "sync_runs_total",
				Help:      "Sync runs by producing source and final status.",
			}, []string{"source", "status"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "sync_duration_seconds",
				Help:      "Wall time of a sync run.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			}, []string{"source"},
		),
		rowsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rows_processed_total",
				Help:      "Calendar rows read from a source.",
			}, []string{"source"},
		),
		releasesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "releases_inserted_total",
				Help:      "Releases inserted by sync runs.",
			}, []string{"source"},
		),
		rowErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "row_errors_total",
				Help:      "Row level errors reported by sync runs.",
			}, []string{"source"},
		),
		revisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "actuals_total",
				Help:      "Actual values written, by outcome.",
			}, []string{"outcome"},
		),
		dedupChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dedup_changes_total",
				Help:      "Indicator dedup changes, by kind.",
			}, []string{"kind"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.syncRuns.Describe(ch)
	c.syncDuration.Describe(ch)
	c.rowsProcessed.Describe(ch)
	c.releasesWritten.Describe(ch)
	c.rowErrors.Describe(ch)
	c.revisions.Describe(ch)
	c.dedupChanges.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.syncRuns.Collect(ch)
	c.syncDuration.Collect(ch)
	c.rowsProcessed.Collect(ch)
	c.releasesWritten.Collect(ch)
	c.rowErrors.Collect(ch)
	c.revisions.Collect(ch)
	c.dedupChanges.Collect(ch)
}

func (c *Collector) SyncFinished(source, status string, rows, inserted, errors int, elapsed time.Duration) {
	c.syncRuns.WithLabelValues(source, status).Inc()
	c.syncDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	c.rowsProcessed.WithLabelValues(source).Add(float64(rows))
	c.releasesWritten.WithLabelValues(source).Add(float64(inserted))
	c.rowErrors.WithLabelValues(source).Add(float64(errors))
}

func (c *Collector) RevisionsApplied(set, revised int) {
	c.revisions.WithLabelValues("set").Add(float64(set))
	c.revisions.WithLabelValues("revised").Add(float64(revised))
}

func (c *Collector) DedupFinished(merged, renamed int) {
	c.dedupChanges.WithLabelValues("merged").Add(float64(merged))
	c.dedupChanges.WithLabelValues("renamed").Add(float64(renamed))
}

// NewRegistry returns a registry holding c plus the Go runtime and process collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if c != nil {
		reg.MustRegister(c)
	}
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
