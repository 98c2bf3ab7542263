// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package config

import (
	"fmt"

	"github.com/tomtom215/geopresence/internal/geolocation"
	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/peerclient"
	"github.com/tomtom215/geopresence/internal/reconciler"
	"github.com/tomtom215/geopresence/internal/supervisor"
	"github.com/tomtom215/geopresence/internal/websocket"
)

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ToHubConfig converts the presence section for websocket.NewHub.
func (c *Config) ToHubConfig() websocket.Config {
	return websocket.Config{
		SendBufferSize: c.Presence.SendBufferSize,
		MaxMessageSize: c.Presence.MaxMessageSize,
		WriteWait:      c.Presence.WriteWait,
		PongWait:       c.Presence.PongWait,
		ReportRate:     c.Presence.ReportRate,
		ReportBurst:    c.Presence.ReportBurst,
		CellSizeKm:     c.Presence.NearbyCellKm,
	}
}

// ToReconcilerConfig converts the reconciler section for reconciler.New.
func (c *Config) ToReconcilerConfig() reconciler.Config {
	return reconciler.Config{
		StalenessWindow: c.Reconciler.StalenessWindow,
		PeerTTL:         c.Reconciler.PeerTTL,
	}
}

// ToLoggingConfig converts the logging section for logging.Init.
func (c *Config) ToLoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}

// ToSimulatedConfig converts the geolocation section for
// geolocation.NewSimulated.
func (c *Config) ToSimulatedConfig() geolocation.SimulatedConfig {
	g := c.Geolocation
	return geolocation.SimulatedConfig{
		Options: geolocation.Options{
			HighAccuracy: g.HighAccuracy,
			MaximumAge:   g.MaximumAge,
			Timeout:      g.Timeout,
			Interval:     g.Interval,
		},
		StartLatitude:  g.StartLatitude,
		StartLongitude: g.StartLongitude,
		StepMeters:     g.StepMeters,
	}
}

// ToTreeConfig converts the supervisor section.
func (c *Config) ToTreeConfig() supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: c.Supervisor.FailureThreshold,
		FailureDecay:     c.Supervisor.FailureDecay,
		FailureBackoff:   c.Supervisor.FailureBackoff,
		ShutdownTimeout:  c.Supervisor.ShutdownTimeout,
	}
}

// ToSessionConfig builds peer session settings for the hub at url. The
// keepalive and frame limits match the hub's own so both sides agree.
func (c *Config) ToSessionConfig(url string) peerclient.Config {
	cfg := peerclient.DefaultConfig()
	cfg.URL = url
	cfg.WriteWait = c.Presence.WriteWait
	cfg.PongWait = c.Presence.PongWait
	cfg.MaxMessageSize = c.Presence.MaxMessageSize
	cfg.PruneInterval = c.Reconciler.PruneInterval
	return cfg
}
