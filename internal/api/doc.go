// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package api provides the HTTP surface of the presence server using the Chi
router.

Routes:

	GET /ws                      WebSocket upgrade into the presence hub
	GET /api/v1/health           overall status (always 200)
	GET /api/v1/health/live      liveness probe
	GET /api/v1/health/ready     readiness probe (503 while the hub is stopped)
	GET /api/v1/presence         snapshot of every connection's last position
	GET /api/v1/presence/{id}    one connection, 404 when unknown
	GET /metrics                 Prometheus exposition

Global middleware: request id, RealIP, Recoverer, access log and CORS.
The REST routes are additionally rate limited by IP with httprate and
instrumented with Prometheus. The WebSocket route is instrumented but not
rate limited; per-connection report limits are enforced by the hub.

REST responses use the models.APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}
*/
package api
