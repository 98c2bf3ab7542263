// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package peerclient

import "time"

// State is the connection state of a Session.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// Status is reported to the StatusFunc on every state change and whenever
// the peer count changes while connected.
type Status struct {
	State   State
	SelfID  string
	Peers   int
	Err     error
	RetryIn time.Duration
}

// StatusFunc receives Status updates.
type StatusFunc func(Status)
