// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package websocket implements the presence hub: the authoritative registry of
live connections and the single fan-out point for position and disconnect
events.

Key Components:

  - Hub: owns the registry, validates reports, broadcasts events
  - Client: one WebSocket connection with a read pump and a write pump
  - Config: buffer sizes, deadlines and the per-connection report limit

Architecture:

	            ┌────────────────────────────┐
	 register ─►│                            │
	  inbound ─►│  Hub.RunWithContext (loop) │──► client.send (non-blocking)
	unregister ►│                            │
	            └────────────────────────────┘
	                 ▲                  │
	            readPump            writePump
	                 └──── Client ──────┘

Every registry mutation and every broadcast enumeration runs on the loop
goroutine while holding the hub lock, so a broadcast never observes a
half-applied connect or disconnect. Read pumps hand frames to the loop over
unbuffered channels; a client's frames are therefore handled in the order it
sent them, and its receive-location broadcasts keep that order.

Connection Lifecycle:

 1. The API handler upgrades the request and calls Hub.Connect
 2. The loop registers the client and sends it a connected ack
 3. send-location frames are validated; valid ones update the record and go
    to every other client as receive-location
 4. The read pump ends (close, network error, read deadline) and calls
    Hub.Disconnect
 5. The loop removes the record and sends user-disconnected to everyone left

A recipient whose send buffer is full is skipped during the broadcast and then
removed through the same disconnect path, so it produces exactly one
user-disconnected event. Disconnecting an id that is not registered is a
no-op.

Configuration:

  - WriteWait: 10 seconds (time allowed to write a frame)
  - PongWait: 60 seconds (time allowed between pongs)
  - ping period: 9/10 of PongWait
  - MaxMessageSize: 4 KiB
  - SendBufferSize: 256 frames
  - ReportRate / ReportBurst: 5 per second, burst 10 (0 disables)
*/
package websocket
