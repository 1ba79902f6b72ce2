package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pairing pipeline metrics.
var (
	PairingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairings_total",
			Help:      "Total number of pairing requests by outcome",
		},
		[]string{"status"},
	)

	PairingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pairing_duration_seconds",
			Help:      "Pairing pipeline duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	SpaceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_space_cache_total",
			Help:      "Document vector space cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Image synthesis metrics.
var (
	ImageRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_requests_total",
			Help:      "Total number of image synthesis requests",
		},
		[]string{"provider", "model", "status"},
	)

	ImageRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_request_duration_seconds",
			Help:      "Image synthesis request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider", "model"},
	)

	ImageCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cache_total",
			Help:      "Image cache hits and misses",
		},
		[]string{"result"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

var domainMetricsRegistered bool

// RegisterDomainMetrics registers pairing and image metrics. Must be called once from main.
func RegisterDomainMetrics() {
	if domainMetricsRegistered {
		return
	}
	prometheus.MustRegister(PairingsTotal)
	prometheus.MustRegister(PairingDuration)
	prometheus.MustRegister(SpaceCacheTotal)
	prometheus.MustRegister(ImageRequestsTotal)
	prometheus.MustRegister(ImageRequestDuration)
	prometheus.MustRegister(ImageCacheTotal)
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerTransitions)
	domainMetricsRegistered = true
}
