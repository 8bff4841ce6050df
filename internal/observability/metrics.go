package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "fire_analytics"
	pushJob   = "fire_incident_analytics"
)

// Metrics holds the Prometheus counters, gauges, and histograms for one pipeline run.
type Metrics struct {
	SensorRowsLoaded prometheus.Counter
	IncidentsLoaded  prometheus.Counter
	RowsDropped      *prometheus.CounterVec // labels: reason={duplicate,unfilled,out_of_bounds}

	ExamplesJoined    prometheus.Counter
	ExamplesUnmatched prometheus.Counter

	// Model metrics.
	TrainSize     prometheus.Gauge
	TestSize      prometheus.Gauge
	ModelAccuracy prometheus.Gauge
	ClassF1       *prometheus.GaugeVec // labels: class

	StageDuration  *prometheus.HistogramVec // labels: stage
	GuidanceIssued *prometheus.CounterVec   // labels: action

	gatherer prometheus.Gatherer
}

// NewMetrics creates all run metrics and registers them with a fresh registry.
// Each run owns its registry, so tests can build as many as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SensorRowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_rows_loaded_total",
			Help:      "Sensor rows returned by the source query.",
		}),
		IncidentsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_loaded_total",
			Help:      "Incident records returned by the source query.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_rows_dropped_total",
			Help:      "Sensor rows removed by the cleaner, by reason.",
		}, []string{"reason"}),
		ExamplesJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "examples_joined_total",
			Help:      "Engineered readings paired with an incident label.",
		}),
		ExamplesUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "examples_unmatched_total",
			Help:      "Engineered readings with no matching incident.",
		}),
		TrainSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "train_examples",
			Help:      "Examples in the training partition.",
		}),
		TestSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "test_examples",
			Help:      "Examples in the held-out partition.",
		}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_accuracy_ratio",
			Help:      "Accuracy of the forest on the held-out partition.",
		}),
		ClassF1: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_f1_score",
			Help:      "Per-class F1 score on the held-out partition.",
		}, []string{"class"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		GuidanceIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guidance_issued_total",
			Help:      "Guidance recommendations issued, by action.",
		}, []string{"action"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.SensorRowsLoaded,
		m.IncidentsLoaded,
		m.RowsDropped,
		m.ExamplesJoined,
		m.ExamplesUnmatched,
		m.TrainSize,
		m.TestSize,
		m.ModelAccuracy,
		m.ClassF1,
		m.StageDuration,
		m.GuidanceIssued,
	)

	return m
}

// Gatherer exposes the run registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Push sends the run metrics to a Prometheus Pushgateway, replacing any
// metrics previously pushed under the same job.
func (m *Metrics) Push(ctx context.Context, url string) error {
	err := push.New(url, pushJob).
		Gatherer(m.gatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
