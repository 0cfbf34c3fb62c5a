// Package metrics declares the Prometheus collectors of the marketplace
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route, method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPRequestDuration observes handler latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP handler latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// BidsPlacedTotal counts place-bid outcomes: created, duplicate or error.
	BidsPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_bids_placed_total",
			Help: "Place-bid attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SessionsIssuedTotal counts issued session cookies.
	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_sessions_issued_total",
			Help: "Total number of session tokens issued",
		},
	)

	// AuthFailuresTotal counts unauthorized and forbidden answers.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_auth_failures_total",
			Help: "Requests rejected by session verification or ownership checks",
		},
		[]string{"reason"}, // unauthorized, forbidden
	)

	// BidCountCorrectionsTotal counts jobs whose bid_count the reconciler fixed.
	BidCountCorrectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_bid_count_corrections_total",
			Help: "Jobs whose bid_count disagreed with their stored bids",
		},
	)

	// ReconcileRunsTotal counts reconciliation runs by result.
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_reconcile_runs_total",
			Help: "Bid-count reconciliation runs",
		},
		[]string{"result"}, // ok, error, skipped
	)
)
