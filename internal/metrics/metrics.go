// Package metrics publishes operation timings and dataset gauges through
// Prometheus collectors on a dedicated registry.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "launchdash"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Observer receives the outcome of a timed operation.
type Observer interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Recorder aggregates operation counters, latency histograms and the dataset
// size gauge.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	records    prometheus.Gauge
}

// NewRecorder builds a Recorder with its own registry. Process and Go runtime
// collectors are registered alongside the launchdash series.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations executed, partitioned by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Launch records loaded at startup.",
		}),
	}
	reg.MustRegister(
		r.operations,
		r.durations,
		r.records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records a single operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	status := StatusError
	if success {
		status = StatusSuccess
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDatasetRecords publishes the number of loaded records.
func (r *Recorder) SetDatasetRecords(n int) {
	if r == nil {
		return
	}
	r.records.Set(float64(n))
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Noop discards observations.
type Noop struct{}

func (Noop) Observe(context.Context, string, bool, time.Duration) {}

// Time runs fn and reports its duration and outcome to obs.
func Time(ctx context.Context, obs Observer, operation string, fn func() error) error {
	if obs == nil {
		return fn()
	}
	start := time.Now()
	err := fn()
	obs.Observe(ctx, operation, err == nil, time.Since(start))
	return err
}
