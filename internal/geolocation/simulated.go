// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package geolocation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tomtom215/geopresence/internal/logging"
)

const (
	metersPerDegree = 111_320.0

	highAccuracyMeters = 5.0
	lowAccuracyMeters  = 50.0
)

// SimulatedConfig configures a Simulated source.
type SimulatedConfig struct {
	Options
	StartLatitude  float64
	StartLongitude float64

	// StepMeters is the distance walked between fixes.
	StepMeters float64

	// Seed makes the walk reproducible. Zero seeds from the clock.
	Seed uint64
}

// Simulated is a Source that random-walks from a start point. Low accuracy
// fixes are jittered by up to lowAccuracyMeters and report that radius.
type Simulated struct {
	cfg SimulatedConfig
	now func() time.Time

	mu     sync.Mutex
	rng    *rand.Rand
	lat    float64
	lon    float64
	cached *Sample
}

// NewSimulated creates a Simulated source.
func NewSimulated(cfg SimulatedConfig) (*Simulated, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.StartLatitude < -90 || cfg.StartLatitude > 90 || cfg.StartLongitude < -180 || cfg.StartLongitude > 180 {
		return nil, fmt.Errorf("%w: start point %.6f,%.6f out of range", ErrInvalidOptions, cfg.StartLatitude, cfg.StartLongitude)
	}
	if cfg.StepMeters < 0 {
		return nil, fmt.Errorf("%w: step must not be negative", ErrInvalidOptions)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Simulated{
		cfg: cfg,
		now: time.Now,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		lat: cfg.StartLatitude,
		lon: cfg.StartLongitude,
	}, nil
}

// Watch starts emitting one fix per Interval, the first immediately.
func (s *Simulated) Watch(ctx context.Context) (<-chan Sample, error) {
	out := make(chan Sample)
	log := logging.WithComponent("geolocation")

	go func() {
		defer close(out)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			if !deliver(ctx, out, s.Next(), s.cfg.Timeout) {
				if ctx.Err() != nil {
					return
				}
				log.Debug().Dur("timeout", s.cfg.Timeout).Msg("dropped undelivered fix")
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out, nil
}

// Next produces the next fix without waiting.
func (s *Simulated) Next() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cfg.MaximumAge > 0 && s.cached != nil && now.Sub(s.cached.CapturedAt) <= s.cfg.MaximumAge {
		return *s.cached
	}

	s.step()

	lat, lon := s.lat, s.lon
	accuracy := highAccuracyMeters
	if !s.cfg.HighAccuracy {
		accuracy = lowAccuracyMeters
		lat, lon = offset(lat, lon, s.rng.Float64()*lowAccuracyMeters, s.rng.Float64()*2*math.Pi)
	}

	sample := Sample{
		Latitude:   lat,
		Longitude:  lon,
		Accuracy:   &accuracy,
		CapturedAt: now,
	}
	s.cached = &sample
	return sample
}

// step must be called with mu held.
func (s *Simulated) step() {
	if s.cfg.StepMeters == 0 {
		return
	}
	s.lat, s.lon = offset(s.lat, s.lon, s.cfg.StepMeters, s.rng.Float64()*2*math.Pi)
}

// offset moves distance metres along bearing (radians from north) using an
// equirectangular approximation, clamping latitude and wrapping longitude.
func offset(lat, lon, distance, bearing float64) (float64, float64) {
	dLat := distance * math.Cos(bearing) / metersPerDegree

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	dLon := distance * math.Sin(bearing) / (metersPerDegree * cosLat)

	lat = math.Max(-90, math.Min(90, lat+dLat))
	lon += dLon
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lat, lon
}
