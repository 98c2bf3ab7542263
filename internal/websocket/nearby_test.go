// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package websocket

import (
	"testing"
)

func reportAt(t *testing.T, hub *Hub, client *Client, lat, lon float64) {
	t.Helper()
	hub.OnPositionReport(client.ID(), rawReport(t, map[string]interface{}{
		"latitude": lat, "longitude": lon, "timestamp": 1,
	}))
}

func TestHub_Nearby(t *testing.T) {
	hub := setupHub(t)
	nyc := connectClient(t, hub)
	newark := connectClient(t, hub)
	boston := connectClient(t, hub)
	silent := connectClient(t, hub)

	reportAt(t, hub, nyc, 40.7128, -74.0060)
	reportAt(t, hub, newark, 40.7357, -74.1724)
	reportAt(t, hub, boston, 42.3601, -71.0589)

	got := hub.Nearby(40.7128, -74.0060, 50, 0)
	if len(got) != 2 {
		t.Fatalf("Nearby(50km) returned %d records, want 2", len(got))
	}
	if got[0].ConnectionID != nyc.ID() || got[1].ConnectionID != newark.ID() {
		t.Errorf("order = %s, %s; want nyc then newark", got[0].ConnectionID, got[1].ConnectionID)
	}
	if got[0].DistanceKm != 0 || got[1].DistanceKm < 10 || got[1].DistanceKm > 20 {
		t.Errorf("distances = %.2f, %.2f", got[0].DistanceKm, got[1].DistanceKm)
	}
	if got[1].LastPosition == nil || got[1].LastPosition.Latitude != 40.7357 {
		t.Errorf("record carries no position: %+v", got[1])
	}

	for _, r := range hub.Nearby(40.7128, -74.0060, 20000, 0) {
		if r.ConnectionID == silent.ID() {
			t.Error("a connection that never reported should not be indexed")
		}
	}

	if got := hub.Nearby(40.7128, -74.0060, 1000, 1); len(got) != 1 {
		t.Errorf("limit ignored: %d records", len(got))
	}
}

func TestHub_Nearby_FollowsMovesAndDepartures(t *testing.T) {
	hub := setupHub(t)
	a := connectClient(t, hub)
	b := connectClient(t, hub)

	reportAt(t, hub, a, 51.5074, -0.1278)
	reportAt(t, hub, b, 51.5080, -0.1280)
	if got := hub.Nearby(51.5074, -0.1278, 1, 0); len(got) != 2 {
		t.Fatalf("Nearby() = %d records, want 2", len(got))
	}

	// b moves to Paris.
	reportAt(t, hub, b, 48.8566, 2.3522)
	if got := hub.Nearby(51.5074, -0.1278, 1, 0); len(got) != 1 || got[0].ConnectionID != a.ID() {
		t.Errorf("moved peer still near London: %+v", got)
	}

	hub.OnDisconnect(a.ID(), DisconnectClientClosed)
	if got := hub.Nearby(51.5074, -0.1278, 1, 0); len(got) != 0 {
		t.Errorf("departed peer still indexed: %+v", got)
	}
	if hub.nearby.Len() != 1 {
		t.Errorf("index size = %d, want 1", hub.nearby.Len())
	}
}

func TestHub_Nearby_RejectedReportNotIndexed(t *testing.T) {
	hub := setupHub(t)
	a := connectClient(t, hub)

	reportAt(t, hub, a, 95, 0)
	drain(a)
	if hub.nearby.Len() != 0 {
		t.Error("invalid report was indexed")
	}
}

func TestHub_Nearby_ClearedOnShutdown(t *testing.T) {
	hub := setupHub(t)
	a := connectClient(t, hub)
	reportAt(t, hub, a, 1, 1)

	hub.closeAllClients()
	if hub.nearby.Len() != 0 {
		t.Error("index not cleared with the registry")
	}
}
