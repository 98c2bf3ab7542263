// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package main is the entry point for the GeoPresence presence server.

The server accepts WebSocket connections on /ws, relays every validated
position report to all other connections and announces departures. It keeps
only the latest position per connection and no history.

# Application Architecture

Services run under a Suture v4 tree:

	RootSupervisor ("geopresence")
	├── PresenceSupervisor ("presence-layer")
	│   └── Presence Hub (event loop)
	└── HTTPSupervisor ("http-layer")
	    └── HTTP Server (/ws, /api/v1, /metrics)

Startup order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Presence hub
 4. HTTP router: chi with CORS, rate limiting, access logs and Prometheus metrics
 5. Supervisor tree

# Configuration

Layered sources, highest priority wins:
  - Environment variables
  - Config file (CONFIG_PATH, config.yaml or /etc/geopresence/config.yaml)
  - Built-in defaults

Commonly used variables:
  - HTTP_HOST, HTTP_PORT: listen address (default 0.0.0.0:8080)
  - ALLOWED_ORIGINS: WebSocket origins; empty allows same host only, * allows any
  - REPORT_RATE, REPORT_BURST: per-connection send-location limit
  - LOG_LEVEL, LOG_FORMAT: logging

The config file is watched while the server runs. Edits to logging.level
apply immediately; every other setting needs a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
SHUTDOWN_TIMEOUT and the hub closes every connection.

# Example Usage

	export HTTP_PORT=8080
	export ALLOWED_ORIGINS=https://map.example.com
	export LOG_FORMAT=console
	./geopresence-server
*/
package main
