package services

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_request_total",
			Help: "Total HTTP requests received by the keeper API",
		},
		[]string{"route"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keeper_request_duration_seconds",
			Help:    "Duration of keeper API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	errorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_request_error_total",
			Help: "Total failed keeper API requests",
		},
		[]string{"route"},
	)

	healthPollCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_health_poll_total",
			Help: "Health poll results by outcome",
		},
		[]string{"outcome"},
	)

	lifecycleOpCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_lifecycle_operation_total",
			Help: "Lifecycle operations by type and outcome",
		},
		[]string{"operation", "outcome"},
	)

	pipelineRunCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_pipeline_run_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keeper_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage", "outcome"},
	)
)

// 本地计数器，healthz接口需要读数值而Prometheus客户端不便于反查
var (
	totalRequests int64
	totalErrors   int64
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(errorCount)
	prometheus.MustRegister(healthPollCount)
	prometheus.MustRegister(lifecycleOpCount)
	prometheus.MustRegister(pipelineRunCount)
	prometheus.MustRegister(stageDuration)
}

func IncrementRequestCount(route string) {
	requestCount.WithLabelValues(route).Inc()
	atomic.AddInt64(&totalRequests, 1)
}

func RecordRequestDuration(route string, seconds float64) {
	requestDuration.WithLabelValues(route).Observe(seconds)
}

func IncrementErrorCount(route string) {
	errorCount.WithLabelValues(route).Inc()
	atomic.AddInt64(&totalErrors, 1)
}

func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&totalErrors)
}

func RecordHealthPoll(outcome string) {
	healthPollCount.WithLabelValues(outcome).Inc()
}

func RecordLifecycleOp(operation, outcome string) {
	lifecycleOpCount.WithLabelValues(operation, outcome).Inc()
}

func RecordPipelineRun(outcome string) {
	pipelineRunCount.WithLabelValues(outcome).Inc()
}

func RecordStageDuration(stage, outcome string, seconds float64) {
	stageDuration.WithLabelValues(stage, outcome).Observe(seconds)
}
