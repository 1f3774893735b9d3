package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	respondentOperations  *prometheus.CounterVec
	respondentExports     *prometheus.CounterVec
	changeSubscribersLive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respondent_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "respondent_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respondent_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		respondentOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respondent_operations_total",
			Help: "Respondent store operations by outcome.",
		}, []string{"operation", "outcome"})

		respondentExports = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respondent_exports_total",
			Help: "Number of respondent exports generated by format.",
		}, []string{"format"})

		changeSubscribersLive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "respondent_change_subscribers",
			Help: "Active subscribers to the respondent change feed.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			respondentOperations,
			respondentExports,
			changeSubscribersLive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// RespondentOperations exposes the operation outcome counter.
func RespondentOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return respondentOperations
}

// RespondentExports exposes the export counter.
func RespondentExports() *prometheus.CounterVec {
	RegisterMetrics()
	return respondentExports
}

// ChangeSubscribers exposes the live change feed subscriber gauge.
func ChangeSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return changeSubscribersLive
}
