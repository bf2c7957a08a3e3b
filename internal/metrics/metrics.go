package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the backend
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	PipelineRunsTotal     *prometheus.CounterVec
	PipelineStepsTotal    *prometheus.CounterVec
	PipelineStepDuration  *prometheus.HistogramVec
	PipelineFallbackTotal prometheus.Counter

	// Inference metrics
	InferenceCallsTotal   *prometheus.CounterVec
	InferenceCallDuration prometheus.Histogram

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Upload metrics
	UploadsTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"status"},
		),
		PipelineStepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_steps_total",
				Help: "Total number of pipeline steps executed",
			},
			[]string{"task", "status"},
		),
		PipelineStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_step_duration_seconds",
				Help:    "Duration of pipeline steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"task"},
		),
		PipelineFallbackTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_fallback_total",
				Help: "Total number of decompositions that fell back to a single general step",
			},
		),

		InferenceCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_calls_total",
				Help: "Total number of model server calls",
			},
			[]string{"status"},
		),
		InferenceCallDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inference_call_duration_seconds",
				Help:    "Duration of model server calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),

		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessions_active",
				Help: "Number of currently active sessions",
			},
		),
		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_total",
				Help: "Total number of sessions created",
			},
		),

		UploadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "uploads_total",
				Help: "Total number of images uploaded",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.PipelineRunsTotal)
	m.registry.MustRegister(m.PipelineStepsTotal)
	m.registry.MustRegister(m.PipelineStepDuration)
	m.registry.MustRegister(m.PipelineFallbackTotal)

	m.registry.MustRegister(m.InferenceCallsTotal)
	m.registry.MustRegister(m.InferenceCallDuration)

	m.registry.MustRegister(m.SessionsActive)
	m.registry.MustRegister(m.SessionsTotal)

	m.registry.MustRegister(m.UploadsTotal)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
