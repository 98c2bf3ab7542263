// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package services

import (
	"context"
)

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// PresenceHubService runs the presence hub as a supervised service.
//
//	hub := websocket.NewHub(cfg.ToHubConfig())
//	tree.AddPresenceService(services.NewPresenceHubService(hub))
type PresenceHubService struct {
	hub  ContextHub
	name string
}

// NewPresenceHubService creates a new hub service wrapper.
func NewPresenceHubService(hub ContextHub) *PresenceHubService {
	return &PresenceHubService{
		hub:  hub,
		name: "presence-hub",
	}
}

// Serve implements suture.Service. It returns ctx.Err() on shutdown.
func (p *PresenceHubService) Serve(ctx context.Context) error {
	return p.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (p *PresenceHubService) String() string {
	return p.name
}
