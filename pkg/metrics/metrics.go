package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pool metrics
	PoolIdleWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "faceit_pool_idle_workers",
			Help: "Number of idle worker pods observed on the last list",
		},
	)

	PoolAcquireAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faceit_pool_acquire_attempts_total",
			Help: "Total number of conditional acquire attempts",
		},
	)

	PoolAcquireConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faceit_pool_acquire_conflicts_total",
			Help: "Total number of acquire attempts rejected by version conflicts",
		},
	)

	PoolAcquires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faceit_pool_acquires_total",
			Help: "Total number of acquire calls by outcome",
		},
		[]string{"outcome"},
	)

	PoolDisposals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faceit_pool_disposals_total",
			Help: "Total number of worker disposals and releases",
		},
		[]string{"mode"},
	)

	// Authentication metrics
	AuthRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faceit_auth_requests_total",
			Help: "Total number of authentication requests by outcome",
		},
		[]string{"outcome"},
	)

	AuthRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faceit_auth_request_duration_seconds",
			Help:    "End-to-end authentication request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faceit_dispatch_duration_seconds",
			Help:    "Worker dispatch round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Worker metrics
	TemplatesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "faceit_templates_loaded",
			Help: "Number of enrolled templates loaded by this worker",
		},
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faceit_match_duration_seconds",
			Help:    "Similarity scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(PoolIdleWorkers)
	prometheus.MustRegister(PoolAcquireAttempts)
	prometheus.MustRegister(PoolAcquireConflicts)
	prometheus.MustRegister(PoolAcquires)
	prometheus.MustRegister(PoolDisposals)
	prometheus.MustRegister(AuthRequestsTotal)
	prometheus.MustRegister(AuthRequestDuration)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(TemplatesLoaded)
	prometheus.MustRegister(MatchDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
