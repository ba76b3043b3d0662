package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesPosted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "rides_posted_total", Help: "Total rides posted"})

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campool", Name: "bookings_total", Help: "Booking attempts by outcome"},
		[]string{"outcome"},
	)
	SeatsReserved = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "seats_reserved_total", Help: "Seats reserved across all rides"})
	SeatsReleased = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "seats_released_total", Help: "Seats released by cancellations"})

	MatchesFound = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "matches_found_total", Help: "Request/ride match candidates surfaced"})

	ReportsSubmitted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "reports_submitted_total", Help: "Reports submitted"})
	WarningsIssued   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "warnings_issued_total", Help: "Warnings added to users"})
	UsersBlacklisted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "users_blacklisted_total", Help: "Blacklist periods started"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
