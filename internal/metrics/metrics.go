package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages reported in orderboard_rows_processed_total.
const (
	StageLoad  = "load"
	StageClean = "clean"
)

type Metrics struct {
	registry        *prometheus.Registry
	pipelineRuns    *prometheus.CounterVec
	rowsProcessed   *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	downloads       *prometheus.CounterVec
	runDuration     prometheus.Histogram
}

// New registers the orderboard collectors, plus the Go and process
// collectors, on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderboard_pipeline_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),
		rowsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderboard_rows_processed_total",
				Help: "Rows seen by each pipeline stage",
			},
			[]string{"stage"},
		),
		publishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderboard_publish_failures_total",
				Help: "Failed publishes per target",
			},
			[]string{"target"},
		),
		downloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderboard_downloads_total",
				Help: "Served file downloads",
			},
			[]string{"file"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orderboard_pipeline_duration_seconds",
				Help:    "Wall time of pipeline runs",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
			},
		),
	}
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	m.pipelineRuns.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

// AddRows adds n rows to a stage counter.
func (m *Metrics) AddRows(stage string, n int) {
	m.rowsProcessed.WithLabelValues(stage).Add(float64(n))
}

// PublishFailed counts a failed publish target.
func (m *Metrics) PublishFailed(target string) {
	m.publishFailures.WithLabelValues(target).Inc()
}

// Downloaded counts a served download.
func (m *Metrics) Downloaded(file string) {
	m.downloads.WithLabelValues(file).Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
