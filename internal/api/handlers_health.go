// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/geopresence/internal/models"
)

func (h *Handler) hubRunning() bool {
	return h.hub != nil && h.hub.IsRunning()
}

// Health reports overall status. It always answers 200; status is
// "degraded" while the hub is not running.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	running := h.hubRunning()
	status := "healthy"
	if !running {
		status = "degraded"
	}

	clients := 0
	if h.hub != nil {
		clients = h.hub.GetClientCount()
	}

	respondData(w, r, http.StatusOK, "success", models.HealthStatus{
		Status:        status,
		Version:       h.version,
		Clients:       clients,
		HubRunning:    running,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// HealthLive is the liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, "success", map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe: ready once the hub event loop runs.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.hubRunning()

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondData(w, r, statusCode, status, map[string]interface{}{
		"hub_running":    ready,
		"ready_to_serve": ready,
		"uptime":         time.Since(h.startTime).Seconds(),
	})
}
