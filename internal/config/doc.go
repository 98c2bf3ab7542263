// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package config provides centralized configuration management for GeoPresence.

Configuration is loaded with Koanf v2 in three layers, later layers winning:

 1. Built-in defaults (defaultConfig, loaded through the structs provider)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/geopresence/config.yaml)
 3. Environment variables, mapped explicitly in envTransformFunc

# Configuration Structure

  - ServerConfig: HTTP listener (host, port, timeouts, shutdown)
  - PresenceConfig: hub limits (send buffer, frame size, keepalive, report rate, origins)
  - ReconcilerConfig: client peer table (staleness window, peer TTL, prune interval)
  - GeolocationConfig: simulated position source used by the peer CLI
  - SecurityConfig: CORS origins and HTTP rate limiting
  - LoggingConfig: zerolog level, format and caller
  - SupervisorConfig: suture failure policy

# Environment Variables

Server:
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
  - SHUTDOWN_TIMEOUT: Graceful shutdown budget (default: 10s)

Presence hub:
  - SEND_BUFFER_SIZE: Outbound queue per connection (default: 256)
  - MAX_MESSAGE_SIZE: Largest accepted frame in bytes (default: 4096)
  - WRITE_WAIT, PONG_WAIT
  - REPORT_RATE, REPORT_BURST: Per-connection report limit (0 disables)
  - ALLOWED_ORIGINS: Comma-separated WebSocket origins ("*" allows all)
  - NEARBY_CELL_KM: Cell size of the proximity index (default: 10)

Reconciler:
  - STALENESS_WINDOW: Maximum accepted event age (default: 30s)
  - PEER_TTL: Remove silent peers after this long (default: 0, disabled)
  - PRUNE_INTERVAL: How often the peer CLI sweeps (default: 5s)

Geolocation:
  - GEO_HIGH_ACCURACY, GEO_MAXIMUM_AGE, GEO_TIMEOUT, GEO_INTERVAL
  - GEO_START_LATITUDE, GEO_START_LONGITUDE, GEO_STEP_METERS

Security:
  - CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Supervisor:
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	hub := websocket.NewHub(cfg.ToHubConfig())

Config is immutable after Load and safe for concurrent reads.
*/
package config
