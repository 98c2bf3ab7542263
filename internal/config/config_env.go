// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package config

import (
	"strings"
)

// envMappings maps lower-cased environment variable names to koanf keys.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",

	"send_buffer_size": "presence.send_buffer_size",
	"max_message_size": "presence.max_message_size",
	"write_wait":       "presence.write_wait",
	"pong_wait":        "presence.pong_wait",
	"report_rate":      "presence.report_rate",
	"report_burst":     "presence.report_burst",
	"allowed_origins":  "presence.allowed_origins",
	"nearby_cell_km":   "presence.nearby_cell_km",

	"staleness_window": "reconciler.staleness_window",
	"peer_ttl":         "reconciler.peer_ttl",
	"prune_interval":   "reconciler.prune_interval",

	"geo_high_accuracy":   "geolocation.high_accuracy",
	"geo_maximum_age":     "geolocation.maximum_age",
	"geo_timeout":         "geolocation.timeout",
	"geo_interval":        "geolocation.interval",
	"geo_start_latitude":  "geolocation.start_latitude",
	"geo_start_longitude": "geolocation.start_longitude",
	"geo_step_meters":     "geolocation.step_meters",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc returns the koanf key for an environment variable, or ""
// to skip it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// splitList splits a comma-separated value and drops empty items.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
