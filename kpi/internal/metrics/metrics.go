package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KPI request metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_kpi_requests_total",
			Help: "Total number of host KPI requests",
		},
		[]string{"transport", "outcome"},
	)

	ComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_kpi_compute_duration_seconds",
			Help:    "Duration of host KPI aggregation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	HistogramBuckets = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_kpi_histogram_buckets",
			Help:    "Number of buckets per computed KPI histogram",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512},
		},
	)

	AutoPlans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_kpi_auto_plans_total",
			Help: "Total number of requests whose buckets were derived from the data span",
		},
	)

	// Event store metrics
	StoreQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_kpi_store_queries_total",
			Help: "Total number of event store queries",
		},
		[]string{"kind", "status"},
	)

	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telhawk_kpi_store_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telhawk_kpi_store_breaker_state",
			Help: "Event store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_kpi_rate_limit_hits_total",
			Help: "Total number of rate limited requests by route pattern",
		},
		[]string{"route"},
	)
)
