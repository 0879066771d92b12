package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session lifecycle

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "unpatched",
		Name:      "sessions_active",
		Help:      "Number of agent sessions currently connected.",
	})

	SessionsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "sessions_opened_total",
		Help:      "Total agent sessions admitted since start.",
	})

	SessionsClosedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "sessions_closed_total",
		Help:      "Total agent sessions torn down, by reason.",
	}, []string{"reason"})

	// Materializer

	MaterializerCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "unpatched",
		Name:      "materializer_cycle_duration_seconds",
		Help:      "Time taken for one materializer tick.",
		Buckets:   prometheus.DefBuckets,
	})

	ExecutionsMaterializedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "executions_materialized_total",
		Help:      "Total execution rows inserted by the materializer.",
	})

	// Dispatcher

	DispatcherCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "unpatched",
		Name:      "dispatcher_cycle_duration_seconds",
		Help:      "Time taken for one dispatcher tick.",
		Buckets:   prometheus.DefBuckets,
	})

	ExecutionsClaimedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "executions_claimed_total",
		Help:      "Total executions transitioned PENDING -> CLAIMED.",
	})

	ExecutionsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "executions_skipped_total",
		Help:      "Claimed executions completed without dispatch, by reason.",
	}, []string{"reason"})

	// Collector

	ExecutionsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "executions_completed_total",
		Help:      "Total executions finalized by an agent's script reply.",
	})

	// Operator auth

	LoginFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "login_failures_total",
		Help:      "Total failed operator login attempts.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "unpatched",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unpatched",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		SessionsActive,
		SessionsOpenedTotal,
		SessionsClosedTotal,
		MaterializerCycleDuration,
		ExecutionsMaterializedTotal,
		DispatcherCycleDuration,
		ExecutionsClaimedTotal,
		ExecutionsSkippedTotal,
		ExecutionsCompletedTotal,
		LoginFailuresTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
