package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the mini-app gateway.
var (
	GuardDecisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "route_guard_decisions_total",
			Help: "Total number of route guard evaluations",
		},
	)

	GuardRedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "route_guard_redirects_total",
			Help: "Total number of navigations redirected by the route guard",
		},
	)

	DealViewRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deal_view_requests_total",
			Help: "Total number of deal detail view requests",
		},
	)

	DealViewRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deal_view_request_duration_seconds",
			Help:    "Duration of deal detail view assembly",
			Buckets: prometheus.DefBuckets,
		},
	)

	TimelinePagesFetchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_pages_fetched_total",
			Help: "Total number of timeline pages fetched from the marketplace API",
		},
	)

	UpstreamErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Total number of failed calls to the marketplace API",
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(GuardDecisionsTotal)
	prometheus.MustRegister(GuardRedirectsTotal)
	prometheus.MustRegister(DealViewRequestsTotal)
	prometheus.MustRegister(DealViewRequestDuration)
	prometheus.MustRegister(TimelinePagesFetchedTotal)
	prometheus.MustRegister(UpstreamErrorsTotal)
}
