// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package supervisor provides process supervision for the presence server
using suture v4.

# Overview

Services are organized into two layers for failure isolation:

	RootSupervisor ("geopresence")
	├── PresenceSupervisor ("presence-layer")
	│   └── PresenceHubService
	└── HTTPSupervisor ("http-layer")
	    └── HTTPServerService

A crash in the HTTP listener does not tear down the hub, and the hub is
restarted with backoff if its loop ever returns an error. Because the hub
closes every connection when its loop stops, a hub restart disconnects all
clients, which then reconnect.

Supervisor events (service start, failure, backoff, restart) are logged
through sutureslog into the slog bridge provided by the logging package.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddPresenceService(services.NewPresenceHubService(hub))
	tree.AddHTTPService(services.NewHTTPServerService(server, cfg.Addr(), 10*time.Second))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
