// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package websocket

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// ServeWS upgrades the request, registers the connection with hub and starts
// its pumps. Upgrade failures have already been answered by the upgrader.
func ServeWS(hub *Hub, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) error {
	if !hub.IsRunning() {
		http.Error(w, "presence hub unavailable", http.StatusServiceUnavailable)
		return ErrHubStopped
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	client := NewClient(r.Context(), hub, conn, r.RemoteAddr)
	if err := hub.Connect(client); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub stopping"))
		_ = conn.Close()
		return err
	}

	client.Start()
	return nil
}
