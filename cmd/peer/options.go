// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tomtom215/geopresence/internal/config"
	"github.com/tomtom215/geopresence/internal/geolocation"
	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/peerclient"
)

type options struct {
	url        string
	origin     string
	lat        float64
	lon        float64
	step       float64
	seed       uint64
	lowAcc     bool
	maxRetry   time.Duration
	refresh    time.Duration
	plain      bool
	debug      bool
	logFile    string
	stalePeers time.Duration
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.url, "url", "ws://localhost:8080/ws", "Presence hub WebSocket URL")
	fs.StringVar(&o.origin, "origin", "", "Origin header to send (for hubs that restrict origins)")
	fs.Float64Var(&o.lat, "lat", 0, "Start latitude (default from GEO_START_LATITUDE)")
	fs.Float64Var(&o.lon, "lon", 0, "Start longitude (default from GEO_START_LONGITUDE)")
	fs.Float64Var(&o.step, "step", 0, "Metres walked between fixes (default from GEO_STEP_METERS)")
	fs.Uint64Var(&o.seed, "seed", 0, "Random walk seed, 0 for a random walk each run")
	fs.BoolVar(&o.lowAcc, "low-accuracy", false, "Simulate coarse fixes")
	fs.DurationVar(&o.maxRetry, "max-retry", 0, "Give up after failing to reconnect for this long (0 retries forever)")
	fs.DurationVar(&o.refresh, "refresh", 500*time.Millisecond, "Terminal redraw interval")
	fs.BoolVar(&o.plain, "plain", false, "Log peer events instead of drawing a table")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.logFile, "log-file", "", "Write logs to this file")
	fs.DurationVar(&o.stalePeers, "peer-ttl", 0, "Remove peers silent for this long (default from PEER_TTL)")
}

// apply overlays explicitly set flags on the loaded configuration.
func (o *options) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("lat") {
		cfg.Geolocation.StartLatitude = o.lat
	}
	if fs.Changed("lon") {
		cfg.Geolocation.StartLongitude = o.lon
	}
	if fs.Changed("step") {
		cfg.Geolocation.StepMeters = o.step
	}
	if o.lowAcc {
		cfg.Geolocation.HighAccuracy = false
	}
	if fs.Changed("peer-ttl") {
		cfg.Reconciler.PeerTTL = o.stalePeers
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	if o.refresh <= 0 {
		return fmt.Errorf("--refresh must be positive")
	}
	return cfg.Validate()
}

func (o *options) sessionConfig(cfg *config.Config) (peerclient.Config, error) {
	u, err := url.Parse(o.url)
	if err != nil {
		return peerclient.Config{}, fmt.Errorf("parse --url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return peerclient.Config{}, fmt.Errorf("--url must use ws or wss, got %q", u.Scheme)
	}

	sc := cfg.ToSessionConfig(u.String())
	sc.Origin = o.origin
	sc.MaxElapsed = o.maxRetry
	return sc, nil
}

func (o *options) simulatedConfig(cfg *config.Config) geolocation.SimulatedConfig {
	sim := cfg.ToSimulatedConfig()
	sim.Seed = o.seed
	return sim
}

// loggingConfig routes logs away from the terminal table unless a log file
// is given. The returned closer must be called on exit.
func (o *options) loggingConfig(cfg *config.Config) (logging.Config, io.Closer, error) {
	lc := cfg.ToLoggingConfig()

	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return lc, nil, fmt.Errorf("open log file: %w", err)
		}
		lc.Output = f
		return lc, f, nil
	case o.plain:
		lc.Output = os.Stderr
		lc.Format = "console"
	default:
		lc.Output = io.Discard
	}
	return lc, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
