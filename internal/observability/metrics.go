package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_outlook"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast service and its batch pipeline.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	OutlooksProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Forecast metrics.
	ForecastsTotal   *prometheus.CounterVec // labels: outcome={success,<error kind>}
	EventsDetected   *prometheus.CounterVec // labels: kind
	ForecastDuration prometheus.Histogram

	// Model server metrics.
	ModelRequests *prometheus.CounterVec // labels: outcome={success,error}
	ModelCache    *prometheus.CounterVec // labels: result={hit,miss}
	ModelDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total forecast requests read from the source topic.",
		}),
		OutlooksProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outlooks_produced_total",
			Help:      "Total outlooks written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total batch requests that could not be turned into an outlook.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the batch pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ForecastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Forecast requests by outcome.",
		}, []string{"outcome"}),
		EventsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_detected_total",
			Help:      "Weather events detected in produced outlooks, by kind.",
		}, []string{"kind"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_duration_seconds",
			Help:      "End-to-end duration of a single forecast request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Model server prediction requests by outcome.",
		}, []string{"outcome"}),
		ModelCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
		ModelDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model server request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.OutlooksProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ForecastsTotal,
		m.EventsDetected,
		m.ForecastDuration,
		m.ModelRequests,
		m.ModelCache,
		m.ModelDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_consumed_total"}),
		OutlooksProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "outlooks_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		ForecastsTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "forecasts_total"}, []string{"outcome"}),
		EventsDetected:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_detected_total"}, []string{"kind"}),
		ForecastDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "forecast_duration_seconds"}),
		ModelRequests:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "model_requests_total"}, []string{"outcome"}),
		ModelCache:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "model_cache_total"}, []string{"result"}),
		ModelDuration:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "model_request_duration_seconds"}),
	}
}
