// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

// Package spatial indexes the latest position of each connection for
// proximity queries.
//
// Grid divides the globe into square cells of roughly equal size in degrees.
// A radius query only visits the cells that can contain a match, so it costs
// O(k) in the number of nearby entries instead of O(n) in all connections.
package spatial

import (
	"math"
	"sort"
	"sync"
)

const (
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.0

	// DefaultCellSizeKm suits city-scale queries.
	DefaultCellSizeKm = 10.0
)

// cellKey is a grid coordinate. X wraps at the antimeridian.
type cellKey struct {
	X, Y int
}

type entry struct {
	id  string
	lat float64
	lon float64
	key cellKey
}

// Hit is one query result.
type Hit struct {
	ID         string
	Latitude   float64
	Longitude  float64
	DistanceKm float64
}

// Grid is a spatial hash of points keyed by id. It is safe for concurrent use.
type Grid struct {
	mu       sync.RWMutex
	cellSize float64
	columns  int
	cells    map[cellKey]map[string]*entry
	entries  map[string]*entry
}

// NewGrid creates a Grid. cellSizeKm <= 0 uses DefaultCellSizeKm.
func NewGrid(cellSizeKm float64) *Grid {
	if cellSizeKm <= 0 {
		cellSizeKm = DefaultCellSizeKm
	}
	cellSize := cellSizeKm / kmPerDegree
	return &Grid{
		cellSize: cellSize,
		columns:  int(math.Ceil(360 / cellSize)),
		cells:    make(map[cellKey]map[string]*entry),
		entries:  make(map[string]*entry),
	}
}

func normalizeLon(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func (g *Grid) keyFor(lat, lon float64) cellKey {
	x := int(math.Floor((normalizeLon(lon) + 180) / g.cellSize))
	y := int(math.Floor((lat + 90) / g.cellSize))
	return cellKey{X: g.wrapX(x), Y: y}
}

func (g *Grid) wrapX(x int) int {
	x %= g.columns
	if x < 0 {
		x += g.columns
	}
	return x
}

// Upsert places id at lat/lon, moving it if it is already indexed.
func (g *Grid) Upsert(id string, lat, lon float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := g.keyFor(lat, lon)
	if e, ok := g.entries[id]; ok {
		if e.key != key {
			g.unlinkLocked(e)
			g.linkLocked(e, key)
		}
		e.lat, e.lon = lat, lon
		return
	}

	e := &entry{id: id, lat: lat, lon: lon}
	g.linkLocked(e, key)
	g.entries[id] = e
}

// Remove drops id and reports whether it was indexed.
func (g *Grid) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[id]
	if !ok {
		return false
	}
	g.unlinkLocked(e)
	delete(g.entries, id)
	return true
}

func (g *Grid) linkLocked(e *entry, key cellKey) {
	cell, ok := g.cells[key]
	if !ok {
		cell = make(map[string]*entry, 4)
		g.cells[key] = cell
	}
	cell[e.id] = e
	e.key = key
}

func (g *Grid) unlinkLocked(e *entry) {
	cell, ok := g.cells[e.key]
	if !ok {
		return
	}
	delete(cell, e.id)
	if len(cell) == 0 {
		delete(g.cells, e.key)
	}
}

// Nearby returns every entry within radiusKm of lat/lon, closest first. Ties
// are ordered by id. A limit > 0 truncates the result.
func (g *Grid) Nearby(lat, lon, radiusKm float64, limit int) []Hit {
	if radiusKm < 0 {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	center := g.keyFor(lat, lon)

	spanY := int(math.Ceil(radiusKm/kmPerDegree/g.cellSize)) + 1

	// Cells narrow towards the poles, so the search widens in X. The widest
	// row in range decides.
	maxLat := math.Min(90, math.Abs(lat)+radiusKm/kmPerDegree)
	cosLat := math.Cos(maxLat * math.Pi / 180)
	spanX := g.columns
	if cosLat > 1e-6 {
		spanX = int(math.Ceil(radiusKm/kmPerDegree/cosLat/g.cellSize)) + 1
	}
	if 2*spanX+1 >= g.columns {
		spanX = g.columns / 2
	}

	seen := make(map[int]bool, 2*spanX+1)
	var hits []Hit
	for dx := -spanX; dx <= spanX; dx++ {
		x := g.wrapX(center.X + dx)
		if seen[x] {
			continue
		}
		seen[x] = true

		for dy := -spanY; dy <= spanY; dy++ {
			cell, ok := g.cells[cellKey{X: x, Y: center.Y + dy}]
			if !ok {
				continue
			}
			for _, e := range cell {
				if d := HaversineKm(lat, lon, e.lat, e.lon); d <= radiusKm {
					hits = append(hits, Hit{ID: e.id, Latitude: e.lat, Longitude: e.lon, DistanceKm: d})
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Len returns the number of indexed entries.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Clear removes every entry.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = make(map[cellKey]map[string]*entry)
	g.entries = make(map[string]*entry)
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
