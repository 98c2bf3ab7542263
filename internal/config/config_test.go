// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/geopresence/internal/geolocation"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"send buffer zero", func(c *Config) { c.Presence.SendBufferSize = 0 }, "SEND_BUFFER_SIZE"},
		{"frame too small", func(c *Config) { c.Presence.MaxMessageSize = 16 }, "MAX_MESSAGE_SIZE"},
		{"pong not above write", func(c *Config) { c.Presence.PongWait = c.Presence.WriteWait }, "PONG_WAIT"},
		{"negative report rate", func(c *Config) { c.Presence.ReportRate = -1 }, "REPORT_RATE"},
		{"rate without burst", func(c *Config) { c.Presence.ReportBurst = 0 }, "REPORT_BURST"},
		{"zero nearby cell", func(c *Config) { c.Presence.NearbyCellKm = 0 }, "NEARBY_CELL_KM"},
		{"limiter disabled needs no burst", func(c *Config) {
			c.Presence.ReportRate = 0
			c.Presence.ReportBurst = 0
		}, ""},
		{"zero staleness window", func(c *Config) { c.Reconciler.StalenessWindow = 0 }, "STALENESS_WINDOW"},
		{"negative peer ttl", func(c *Config) { c.Reconciler.PeerTTL = -time.Second }, "PEER_TTL"},
		{"ttl without prune interval", func(c *Config) {
			c.Reconciler.PeerTTL = time.Minute
			c.Reconciler.PruneInterval = 0
		}, "PRUNE_INTERVAL"},
		{"start latitude", func(c *Config) { c.Geolocation.StartLatitude = 91 }, "GEO_START_LATITUDE"},
		{"start longitude", func(c *Config) { c.Geolocation.StartLongitude = -181 }, "GEO_START_LONGITUDE"},
		{"geo interval", func(c *Config) { c.Geolocation.Interval = 0 }, "GEO_INTERVAL"},
		{"rate limit window", func(c *Config) { c.Security.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"rate limit disabled", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"supervisor threshold", func(c *Config) { c.Supervisor.FailureThreshold = 0 }, "SUPERVISOR_FAILURE_THRESHOLD"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestHasWildcardOrigin(t *testing.T) {
	cfg := defaultConfig()
	if cfg.HasWildcardOrigin() {
		t.Error("default origins should not be a wildcard")
	}
	cfg.Presence.AllowedOrigins = []string{"https://a.example", "*"}
	if !cfg.HasWildcardOrigin() {
		t.Error("expected wildcard")
	}
}

func TestConversions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Presence.ReportRate = 3
	cfg.Reconciler.PeerTTL = time.Minute
	cfg.Logging.Format = "console"

	hub := cfg.ToHubConfig()
	if hub.SendBufferSize != 256 || hub.MaxMessageSize != 4096 || hub.ReportRate != 3 || hub.ReportBurst != 10 {
		t.Errorf("ToHubConfig() = %+v", hub)
	}
	if hub.CellSizeKm != 10 {
		t.Errorf("ToHubConfig() CellSizeKm = %v, want 10", hub.CellSizeKm)
	}
	if hub.WriteWait != 10*time.Second || hub.PongWait != 60*time.Second {
		t.Errorf("ToHubConfig() keepalive = %v/%v", hub.WriteWait, hub.PongWait)
	}

	rec := cfg.ToReconcilerConfig()
	if rec.StalenessWindow != 30*time.Second || rec.PeerTTL != time.Minute {
		t.Errorf("ToReconcilerConfig() = %+v", rec)
	}

	logCfg := cfg.ToLoggingConfig()
	if logCfg.Level != "info" || logCfg.Format != "console" {
		t.Errorf("ToLoggingConfig() = %+v", logCfg)
	}

	sim := cfg.ToSimulatedConfig()
	if sim.Options != geolocation.DefaultOptions() {
		t.Errorf("default geolocation options = %+v, want %+v", sim.Options, geolocation.DefaultOptions())
	}
	if !sim.HighAccuracy || sim.Interval != 2*time.Second || sim.StepMeters != 15 {
		t.Errorf("ToSimulatedConfig() = %+v", sim)
	}
	tree := cfg.ToTreeConfig()
	if tree.FailureThreshold != 5 || tree.FailureBackoff != 15*time.Second {
		t.Errorf("ToTreeConfig() = %+v", tree)
	}

	session := cfg.ToSessionConfig("ws://hub.example/ws")
	if session.URL != "ws://hub.example/ws" || session.PongWait != 60*time.Second || session.PruneInterval != 5*time.Second {
		t.Errorf("ToSessionConfig() = %+v", session)
	}

	if sim.StartLatitude != 51.5074 || sim.StartLongitude != -0.1278 {
		t.Errorf("ToSimulatedConfig() start = %v,%v", sim.StartLatitude, sim.StartLongitude)
	}
}
