// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package models

import (
	"time"
)

// Position is the last accepted report of a connection.
type Position struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`

	// ReportedAt is the client capture time in ms since epoch, or the server
	// receipt time when the client omitted it.
	ReportedAt int64 `json:"reported_at"`
}

// PresenceRecord is the hub's state for one open connection. It exists only
// while the connection is registered.
type PresenceRecord struct {
	ConnectionID string    `json:"connection_id"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastPosition *Position `json:"last_position,omitempty"`
	ReportCount  uint64    `json:"report_count"`
}

// PresenceSnapshot is the body of GET /api/v1/presence.
type PresenceSnapshot struct {
	Count   int              `json:"count"`
	Clients []PresenceRecord `json:"clients"`
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Clients       int     `json:"clients"`
	HubRunning    bool    `json:"hub_running"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NearbyPresence is a PresenceRecord with its distance from a query point.
type NearbyPresence struct {
	PresenceRecord
	DistanceKm float64 `json:"distance_km"`
}

// NearbyQuery holds the parameters of GET /api/v1/presence/nearby.
type NearbyQuery struct {
	Latitude  *float64 `json:"lat" validate:"required,latitude"`
	Longitude *float64 `json:"lon" validate:"required,longitude"`
	RadiusKm  float64  `json:"radius_km" validate:"gt=0,lte=20040"`
	Limit     int      `json:"limit" validate:"gte=0,lte=1000"`
}

// NearbySnapshot is the body of GET /api/v1/presence/nearby.
type NearbySnapshot struct {
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	RadiusKm  float64          `json:"radius_km"`
	Count     int              `json:"count"`
	Clients   []NearbyPresence `json:"clients"`
}
