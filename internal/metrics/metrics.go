// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package metrics provides Prometheus metrics for the presence server.

Metrics are registered with the default registry through promauto and exposed
at /metrics by the API router:

	curl http://localhost:8080/metrics

Presence Metrics:
  - presence_connections: registered WebSocket connections (gauge)
  - presence_reports_total: inbound send-location frames (counter)
    Labels: result (accepted, invalid, malformed, rate_limited, unregistered)
  - presence_broadcast_deliveries_total: frames queued to recipients (counter)
  - presence_broadcast_failures_total: recipients skipped because their send
    buffer was full (counter)
  - presence_disconnects_total: removed connections (counter)
    Labels: reason (client_closed, read_error, slow_consumer, hub_shutdown)

API Metrics:
  - api_requests_total: Labels: method, endpoint, status_code
  - api_request_duration_seconds: Labels: method, endpoint
  - api_active_requests: in-flight requests (gauge)
*/
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Report results.
const (
	ReportAccepted     = "accepted"
	ReportInvalid      = "invalid"
	ReportMalformed    = "malformed"
	ReportRateLimited  = "rate_limited"
	ReportUnregistered = "unregistered"
)

var (
	// Presence Metrics
	PresenceConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_connections",
			Help: "Current number of registered presence connections",
		},
	)

	PresenceReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_reports_total",
			Help: "Total number of position reports received, by result",
		},
		[]string{"result"},
	)

	PresenceBroadcastDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_broadcast_deliveries_total",
			Help: "Total number of events queued to recipients",
		},
	)

	PresenceBroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_broadcast_failures_total",
			Help: "Total number of recipients skipped because their send buffer was full",
		},
	)

	PresenceDisconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_disconnects_total",
			Help: "Total number of connections removed from the registry, by reason",
		},
		[]string{"reason"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordReport counts one inbound report.
func RecordReport(result string) {
	PresenceReports.WithLabelValues(result).Inc()
}

// RecordBroadcast counts the outcome of one fan-out.
func RecordBroadcast(delivered, failed int) {
	PresenceBroadcastDeliveries.Add(float64(delivered))
	PresenceBroadcastFailures.Add(float64(failed))
}

// RecordDisconnect counts one removal and refreshes the connection gauge.
func RecordDisconnect(reason string, remaining int) {
	PresenceDisconnects.WithLabelValues(reason).Inc()
	PresenceConnections.Set(float64(remaining))
}

// SetConnections sets the connection gauge.
func SetConnections(n int) {
	PresenceConnections.Set(float64(n))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
