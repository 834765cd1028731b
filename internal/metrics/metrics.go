// Package metrics exposes build counters and gauges for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Build holds the collectors updated by each pipeline run.
type Build struct {
	runs           *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	posts          prometheus.Gauge
	extractFailure prometheus.Counter
	gatherer       prometheus.Gatherer
}

// New registers the build collectors on a fresh registry.
func New() *Build {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

// NewWith registers the build collectors on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Build {
	f := promauto.With(reg)
	return &Build{
		// Labels: mode (full, incremental, skip)
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postindex",
			Name:      "builds_total",
			Help:      "Total pipeline runs by mode",
		}, []string{"mode"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postindex",
			Name:      "build_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		posts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "postindex",
			Name:      "posts",
			Help:      "Records in the last persisted store",
		}),
		extractFailure: f.NewCounter(prometheus.CounterOpts{
			Namespace: "postindex",
			Name:      "extract_failures_total",
			Help:      "Content files that could not be read during a build",
		}),
		gatherer: g,
	}
}

// ObserveRun records one finished run. A nil receiver is a no-op.
func (b *Build) ObserveRun(mode string, d time.Duration, posts, failures int) {
	if b == nil {
		return
	}
	b.runs.WithLabelValues(mode).Inc()
	b.duration.WithLabelValues(mode).Observe(d.Seconds())
	if mode != "skip" {
		b.posts.Set(float64(posts))
	}
	b.extractFailure.Add(float64(failures))
}

// Handler serves the registered collectors in the Prometheus text format.
func (b *Build) Handler() http.Handler {
	return promhttp.HandlerFor(b.gatherer, promhttp.HandlerOpts{})
}
