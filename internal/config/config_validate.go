// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package config

import (
	"fmt"
	"time"
)

const (
	minMessageSize     = 256
	maxMessageSize     = 1 << 20
	minRateLimitWindow = time.Second
	maxRateLimitWindow = time.Hour
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that every setting is within range.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePresence(); err != nil {
		return err
	}
	if err := c.validateReconciler(); err != nil {
		return err
	}
	if err := c.validateGeolocation(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validatePresence() error {
	p := c.Presence
	if p.SendBufferSize < 1 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be at least 1")
	}
	if p.MaxMessageSize < minMessageSize || p.MaxMessageSize > maxMessageSize {
		return fmt.Errorf("MAX_MESSAGE_SIZE must be between %d and %d", minMessageSize, maxMessageSize)
	}
	if p.WriteWait <= 0 {
		return fmt.Errorf("WRITE_WAIT must be positive")
	}
	if p.PongWait <= p.WriteWait {
		return fmt.Errorf("PONG_WAIT must be greater than WRITE_WAIT")
	}
	if p.ReportRate < 0 {
		return fmt.Errorf("REPORT_RATE must not be negative")
	}
	if p.ReportRate > 0 && p.ReportBurst < 1 {
		return fmt.Errorf("REPORT_BURST must be at least 1 when REPORT_RATE is set")
	}
	if p.NearbyCellKm <= 0 || p.NearbyCellKm > 1000 {
		return fmt.Errorf("NEARBY_CELL_KM must be greater than 0 and at most 1000")
	}
	return nil
}

func (c *Config) validateReconciler() error {
	r := c.Reconciler
	if r.StalenessWindow <= 0 {
		return fmt.Errorf("STALENESS_WINDOW must be positive")
	}
	if r.PeerTTL < 0 {
		return fmt.Errorf("PEER_TTL must not be negative")
	}
	if r.PeerTTL > 0 && r.PruneInterval <= 0 {
		return fmt.Errorf("PRUNE_INTERVAL must be positive when PEER_TTL is set")
	}
	return nil
}

func (c *Config) validateGeolocation() error {
	g := c.Geolocation
	if g.StartLatitude < -90 || g.StartLatitude > 90 {
		return fmt.Errorf("GEO_START_LATITUDE must be between -90 and 90")
	}
	if g.StartLongitude < -180 || g.StartLongitude > 180 {
		return fmt.Errorf("GEO_START_LONGITUDE must be between -180 and 180")
	}
	if g.Interval <= 0 {
		return fmt.Errorf("GEO_INTERVAL must be positive")
	}
	if g.Timeout < 0 || g.MaximumAge < 0 || g.StepMeters < 0 {
		return fmt.Errorf("GEO_TIMEOUT, GEO_MAXIMUM_AGE and GEO_STEP_METERS must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold <= 0 || s.FailureDecay <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD and SUPERVISOR_FAILURE_DECAY must be positive")
	}
	if s.FailureBackoff <= 0 || s.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_BACKOFF and SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// HasWildcardOrigin reports whether the WebSocket origin check is disabled.
func (c *Config) HasWildcardOrigin() bool {
	for _, origin := range c.Presence.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
