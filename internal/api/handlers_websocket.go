// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/geopresence/internal/logging"
	ws "github.com/tomtom215/geopresence/internal/websocket"
)

// WebSocket upgrades the request and hands the connection to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Presence hub unavailable", nil)
		return
	}

	if err := ws.ServeWS(h.hub, &h.upgrader, w, r); err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if !errors.Is(err, ws.ErrHubStopped) {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket connection not established")
	}
}
