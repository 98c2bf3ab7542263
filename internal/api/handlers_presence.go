// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geopresence/internal/models"
	"github.com/tomtom215/geopresence/internal/validation"
)

// Presence returns every connected client with its last known position.
// Only the latest position is kept, so there is no history to page through.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	records := []models.PresenceRecord{}
	if h.hub != nil {
		records = append(records, h.hub.Presences()...)
	}

	respondData(w, r, http.StatusOK, "success", models.PresenceSnapshot{
		Count:   len(records),
		Clients: records,
	})
}

// PresenceByID returns one connection's record.
func (h *Handler) PresenceByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.hub != nil {
		if record, ok := h.hub.Presence(id); ok {
			respondData(w, r, http.StatusOK, "success", record)
			return
		}
	}

	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Connection not found", nil)
}

const (
	defaultNearbyRadiusKm = 5.0
	defaultNearbyLimit    = 100
)

// PresenceNearby returns connections whose last position lies within
// radius_km of lat/lon, closest first.
//
//	GET /api/v1/presence/nearby?lat=51.5&lon=-0.12&radius_km=2&limit=20
func (h *Handler) PresenceNearby(w http.ResponseWriter, r *http.Request) {
	query, verr := parseNearbyQuery(r)
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	clients := []models.NearbyPresence{}
	if h.hub != nil {
		clients = append(clients, h.hub.Nearby(*query.Latitude, *query.Longitude, query.RadiusKm, query.Limit)...)
	}

	respondData(w, r, http.StatusOK, "success", models.NearbySnapshot{
		Latitude:  *query.Latitude,
		Longitude: *query.Longitude,
		RadiusKm:  query.RadiusKm,
		Count:     len(clients),
		Clients:   clients,
	})
}

// parseNearbyQuery reads the query string. Unparseable numbers become NaN
// so that the validator reports them with the field name.
func parseNearbyQuery(r *http.Request) (models.NearbyQuery, *validation.RequestValidationError) {
	values := r.URL.Query()
	query := models.NearbyQuery{
		RadiusKm: defaultNearbyRadiusKm,
		Limit:    defaultNearbyLimit,
	}

	if v := values.Get("lat"); v != "" {
		lat := parseFloatOrNaN(v)
		query.Latitude = &lat
	}
	if v := values.Get("lon"); v != "" {
		lon := parseFloatOrNaN(v)
		query.Longitude = &lon
	}
	if v := values.Get("radius_km"); v != "" {
		query.RadiusKm = parseFloatOrNaN(v)
	}
	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			limit = -1
		}
		query.Limit = limit
	}

	if verr := validation.ValidateStruct(&query); verr != nil {
		return query, verr
	}
	return query, nil
}

func parseFloatOrNaN(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
