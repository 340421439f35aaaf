package production

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder records navigation metrics into its own registry so that
// several navigators in one process do not collide on registration.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	batches       *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	batchSteps    prometheus.Histogram
	flowStarts    *prometheus.CounterVec
	flowCompleted *prometheus.CounterVec
	flowDuration  *prometheus.HistogramVec
}

// NewPrometheusRecorder creates and registers the navigation collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "navigatorx",
				Subsystem: "batch",
				Name:      "applied_total",
				Help:      "Navigation batches applied and published.",
			},
			[]string{"pop"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "navigatorx",
				Subsystem: "batch",
				Name:      "rejected_total",
				Help:      "Navigation batches rejected before publishing.",
			},
			[]string{"reason"},
		),
		batchSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "navigatorx",
				Subsystem: "batch",
				Name:      "steps",
				Help:      "Steps per applied navigation batch.",
				Buckets:   []float64{1, 2, 3, 5, 8},
			},
		),
		flowStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "navigatorx",
				Subsystem: "flow",
				Name:      "started_total",
				Help:      "Guided flows started.",
			},
			[]string{"flow"},
		),
		flowCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "navigatorx",
				Subsystem: "flow",
				Name:      "completed_total",
				Help:      "Guided flows completed.",
			},
			[]string{"flow"},
		),
		flowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "navigatorx",
				Subsystem: "flow",
				Name:      "duration_seconds",
				Help:      "Time from guided flow start to completion in seconds.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"flow"},
		),
	}
	r.registry.MustRegister(r.batches, r.rejected, r.batchSteps, r.flowStarts, r.flowCompleted, r.flowDuration)
	return r
}

func (r *PrometheusRecorder) BatchApplied(steps int, pop bool) {
	r.batches.WithLabelValues(strconv.FormatBool(pop)).Inc()
	r.batchSteps.Observe(float64(steps))
}

func (r *PrometheusRecorder) BatchRejected(reason string) {
	r.rejected.WithLabelValues(reason).Inc()
}

func (r *PrometheusRecorder) FlowStarted(route string) {
	r.flowStarts.WithLabelValues(route).Inc()
}

func (r *PrometheusRecorder) FlowCompleted(route string, took time.Duration) {
	r.flowCompleted.WithLabelValues(route).Inc()
	r.flowDuration.WithLabelValues(route).Observe(took.Seconds())
}

// Registry exposes the recorder's registry for additional collectors.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
