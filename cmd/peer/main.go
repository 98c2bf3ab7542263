// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

// Command peer joins a presence hub as one participant. It publishes a
// simulated position and draws every other participant in the terminal.
//
//	peer --url ws://localhost:8080/ws --lat 48.8566 --lon 2.3522
//
// Settings not given as flags come from the same config file and
// environment variables as the server (STALENESS_WINDOW, PEER_TTL,
// GEO_INTERVAL and so on).
package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
