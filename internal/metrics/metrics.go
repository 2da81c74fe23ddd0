// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// StallToggles counts stall status changes requested by users, by
	// action and outcome (ok, limit, ignored, unknown).
	StallToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stall_toggles_total",
			Help: "Stall selection attempts by action and result",
		},
		[]string{"action", "result"},
	)

	// SessionsStarted counts browsing sessions by outcome.
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_sessions_started_total",
			Help: "Browsing sessions started by result",
		},
		[]string{"result"},
	)

	// SessionsLive is the number of sessions held by the in-memory store.
	SessionsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_sessions_live",
			Help: "Browsing sessions currently held in memory",
		},
	)

	// ReservationsTotal counts checkouts by result.
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Stall reservations by result",
		},
		[]string{"result"},
	)

	// ReservationAmount tracks checked-out totals.
	ReservationAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_total_amount",
			Help:    "Reservation totals in whole currency units",
			Buckets: []float64{50000, 100000, 200000, 300000, 400000, 600000},
		},
	)

	// LayoutFetches counts layout count lookups by source and result.
	LayoutFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_fetch_total",
			Help: "Layout configuration fetches by source and result",
		},
		[]string{"source", "result"},
	)

	// CircuitBreakerState tracks breaker state (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)
)
