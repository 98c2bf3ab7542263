// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/geopresence/internal/api"
	"github.com/tomtom215/geopresence/internal/config"
	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/supervisor"
	"github.com/tomtom215/geopresence/internal/supervisor/services"
	ws "github.com/tomtom215/geopresence/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.ToLoggingConfig())

	if path := config.ConfigFilePath(); path != "" {
		if err := config.WatchLogLevel(path); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file changes will need a restart")
		} else {
			logging.Debug().Str("path", path).Msg("Watching config file for log level changes")
		}
	}

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Addr()).
		Dur("staleness_window", cfg.Reconciler.StalenessWindow).
		Float64("report_rate", cfg.Presence.ReportRate).
		Msg("Starting GeoPresence with supervisor tree")

	if cfg.HasWildcardOrigin() {
		logging.Warn().Msg("ALLOWED_ORIGINS=* accepts WebSocket connections from any website")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("HTTP rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.ToTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	hub := ws.NewHub(cfg.ToHubConfig())

	handler := api.NewHandler(hub, cfg.Presence.AllowedOrigins, version)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree.AddPresenceService(services.NewPresenceHubService(hub))
	tree.AddHTTPService(services.NewHTTPServerService(server, cfg.Addr(), cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	logging.Info().Msg("Server stopped")
}
