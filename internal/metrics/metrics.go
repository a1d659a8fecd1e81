// Package metrics exposes clustering run statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvloznov/finance-clusters/internal/pipeline"
)

const namespace = "spendmap"

// Recorder owns a private registry and implements pipeline.RunObserver.
type Recorder struct {
	registry *prometheus.Registry

	runs              *prometheus.CounterVec
	duration          prometheus.Histogram
	quantizationError prometheus.Gauge
	clusters          prometheus.Gauge
	entities          prometheus.Gauge
}

// NewRecorder registers the run metrics, plus Go runtime and process
// collectors when withRuntime is set.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Clustering runs by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of clustering runs.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		quantizationError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quantization_error",
			Help:      "Quantization error of the last successful run.",
		}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clusters",
			Help:      "Non-empty clusters found by the last successful run.",
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities clustered by the last successful run.",
		}),
	}

	r.registry.MustRegister(r.runs, r.duration, r.quantizationError, r.clusters, r.entities)
	if withRuntime {
		r.registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		)
	}
	return r
}

// ObserveRun records one run. Gauges only move on success.
func (r *Recorder) ObserveRun(stats pipeline.RunStats) {
	r.runs.WithLabelValues(stats.Status).Inc()
	r.duration.Observe(stats.Duration.Seconds())
	if stats.Status != pipeline.StatusSuccess {
		return
	}
	r.quantizationError.Set(stats.QuantizationError)
	r.clusters.Set(float64(stats.Clusters))
	r.entities.Set(float64(stats.Entities))
}

// Registry exposes the private registry, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
