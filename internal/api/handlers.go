// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/geopresence/internal/logging"
	ws "github.com/tomtom215/geopresence/internal/websocket"
)

// Handler serves the presence HTTP endpoints.
type Handler struct {
	hub            *ws.Hub
	allowedOrigins []string
	version        string
	startTime      time.Time
	upgrader       websocket.Upgrader
}

// NewHandler creates a Handler for hub. allowedOrigins restricts the
// WebSocket Origin header ("*" allows any, empty allows same host only).
func NewHandler(hub *ws.Hub, allowedOrigins []string, version string) *Handler {
	h := &Handler{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		version:        version,
		startTime:      time.Now(),
	}
	h.upgrader = h.getUpgrader()
	return h
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Requests
// without an Origin header come from non-browser clients such as the peer
// CLI and are accepted.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().
		Str("origin", sanitizeLogValue(origin)).
		Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
