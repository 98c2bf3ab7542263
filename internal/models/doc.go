// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

/*
Package models defines the data structures shared by the presence server and
the peer client.

Key Components:

  - Message / InboundMessage: the {"type", "data"} envelope carried by every
    WebSocket frame
  - PositionReport: inbound send-location payload, validated with
    go-playground/validator tags
  - PositionBroadcast: outbound receive-location payload
  - ConnectionAck, ErrorPayload: originator-only replies
  - PresenceRecord, Position: the hub's per-connection state, also served by
    the REST presence snapshot
  - APIResponse, APIError: REST response wrapper

Event names on the wire:

	send-location       client -> server
	connected           server -> originator
	error               server -> originator
	receive-location    server -> every other client
	user-disconnected   server -> every remaining client (bare string id)
	ping / pong         keepalive at application level

All JSON encoding in the project goes through github.com/goccy/go-json.
*/
package models
