// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package middleware provides HTTP middleware for the GeoPresence server.

Every middleware has the chi signature func(http.Handler) http.Handler and
can be mounted with chi.Router.Use.

Key Components:

  - RequestID: honours or generates X-Request-ID and stores it in the logging context
  - PrometheusMetrics: request counters, latency histogram and in-flight gauge
  - AccessLog: one structured log line per request, warning above a latency threshold

The response wrapper used by PrometheusMetrics and AccessLog implements
http.Hijacker, so both can sit in front of the WebSocket upgrade.

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
