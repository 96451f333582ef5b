// Package metrics provides Prometheus metrics for sync runs and grade lookups.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SyncMetrics records pipeline and grade engine activity. It implements
// pipeline.Recorder.
type SyncMetrics struct {
	registry *prometheus.Registry

	syncsTotal      *prometheus.CounterVec
	ticksTotal      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	gradeCacheTotal *prometheus.CounterVec
}

// New creates and registers the metrics on registry. A nil registry gets a
// fresh one with the Go and process collectors.
func New(registry *prometheus.Registry) (*SyncMetrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &SyncMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SyncMetrics) initMetrics() {
	m.syncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruxlog_syncs_total",
			Help: "Total number of sync runs",
		},
		[]string{"source", "status"}, // status: done, failed
	)

	m.ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruxlog_ticks_total",
			Help: "Total number of ticks committed",
		},
		[]string{"source", "result"}, // result: saved, skipped
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "cruxlog_stage_duration_seconds",
			Help: "Time spent in each pipeline stage",
			// 1ms to ~65s; fetches through a browser dominate the top end.
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 17),
		},
		[]string{"source", "stage"},
	)

	m.gradeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruxlog_grade_cache_lookups_total",
			Help: "Grade engine memo lookups",
		},
		[]string{"result"}, // result: hit, miss
	)
}

// Describe implements the Collector interface
func (m *SyncMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.syncsTotal.Describe(ch)
	m.ticksTotal.Describe(ch)
	m.stageDuration.Describe(ch)
	m.gradeCacheTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *SyncMetrics) Collect(ch chan<- prometheus.Metric) {
	m.syncsTotal.Collect(ch)
	m.ticksTotal.Collect(ch)
	m.stageDuration.Collect(ch)
	m.gradeCacheTotal.Collect(ch)
}

// ObserveStage records the time a sync spent in one stage.
func (m *SyncMetrics) ObserveStage(source, stage string, seconds float64) {
	m.stageDuration.WithLabelValues(source, stage).Observe(seconds)
}

// ObserveSync records a finished sync and its tick counts.
func (m *SyncMetrics) ObserveSync(source, status string, ticks, skipped int) {
	m.syncsTotal.WithLabelValues(source, status).Inc()
	if ticks > 0 {
		m.ticksTotal.WithLabelValues(source, "saved").Add(float64(ticks))
	}
	if skipped > 0 {
		m.ticksTotal.WithLabelValues(source, "skipped").Add(float64(skipped))
	}
}

// ObserveGradeCache is passed to grade.WithCacheObserver.
func (m *SyncMetrics) ObserveGradeCache(hit bool) {
	if hit {
		m.gradeCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.gradeCacheTotal.WithLabelValues("miss").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *SyncMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
