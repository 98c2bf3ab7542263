// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional config file and environment variables.
//
// Loading order (Koanf v2):
//  1. Defaults: defaultConfig()
//  2. Config file: optional YAML
//  3. Environment variables: override any mapped setting
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Presence    PresenceConfig    `koanf:"presence"`
	Reconciler  ReconcilerConfig  `koanf:"reconciler"`
	Geolocation GeolocationConfig `koanf:"geolocation"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// PresenceConfig holds presence hub limits.
type PresenceConfig struct {
	// SendBufferSize is the outbound queue per connection. A recipient whose
	// queue is full is disconnected.
	SendBufferSize int `koanf:"send_buffer_size"`

	// MaxMessageSize is the largest inbound frame in bytes.
	MaxMessageSize int64 `koanf:"max_message_size"`

	WriteWait time.Duration `koanf:"write_wait"`
	PongWait  time.Duration `koanf:"pong_wait"`

	// ReportRate is the sustained reports per second per connection.
	// Zero disables the limiter.
	ReportRate  float64 `koanf:"report_rate"`
	ReportBurst int     `koanf:"report_burst"`

	// AllowedOrigins restricts the WebSocket Origin header. Empty allows
	// same-host requests only, "*" allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// NearbyCellKm sizes the proximity index behind /api/v1/presence/nearby.
	NearbyCellKm float64 `koanf:"nearby_cell_km"`
}

// ReconcilerConfig holds the client-side peer table settings.
type ReconcilerConfig struct {
	StalenessWindow time.Duration `koanf:"staleness_window"`

	// PeerTTL removes peers that have been silent this long. Zero disables
	// the sweep.
	PeerTTL       time.Duration `koanf:"peer_ttl"`
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// GeolocationConfig configures the position source used by the peer CLI.
type GeolocationConfig struct {
	HighAccuracy   bool          `koanf:"high_accuracy"`
	MaximumAge     time.Duration `koanf:"maximum_age"`
	Timeout        time.Duration `koanf:"timeout"`
	Interval       time.Duration `koanf:"interval"`
	StartLatitude  float64       `koanf:"start_latitude"`
	StartLongitude float64       `koanf:"start_longitude"`
	StepMeters     float64       `koanf:"step_meters"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds the suture failure policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
