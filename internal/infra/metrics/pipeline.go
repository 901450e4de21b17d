package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(stageDuration, pipelineErrorsTotal, queueOverflowTotal) }

var (
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Pipeline stage latency distribution in seconds.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30, 120, 600},
		},
		[]string{"stage", "success"},
	)

	pipelineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_errors_total",
			Help: "Pipeline failures by stage and error kind.",
		},
		[]string{"stage", "kind"},
	)

	queueOverflowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_queue_overflow_total",
			Help: "Tasks handed to an overflow goroutine because the worker queue was full.",
		},
	)
)

func ObserveStage(stage string, d time.Duration, success bool) {
	stageDuration.WithLabelValues(norm(stage), strconv.FormatBool(success)).Observe(d.Seconds())
}

func IncPipelineError(stage, kind string) {
	pipelineErrorsTotal.WithLabelValues(norm(stage), norm(kind)).Inc()
}

func IncQueueOverflow() {
	queueOverflowTotal.Inc()
}
