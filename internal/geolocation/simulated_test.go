// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package geolocation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func testSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		Options: Options{
			HighAccuracy: true,
			Interval:     10 * time.Millisecond,
		},
		StartLatitude:  51.5074,
		StartLongitude: -0.1278,
		StepMeters:     15,
		Seed:           42,
	}
}

// distanceMeters uses the same equirectangular approximation as offset.
func distanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * math.Cos((lat1+lat2)/2*math.Pi/180)
	y := lat2 - lat1
	return math.Sqrt(x*x+y*y) * metersPerDegree
}

func TestNewSimulated_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SimulatedConfig)
	}{
		{"zero interval", func(c *SimulatedConfig) { c.Interval = 0 }},
		{"negative timeout", func(c *SimulatedConfig) { c.Timeout = -time.Second }},
		{"negative maximum age", func(c *SimulatedConfig) { c.MaximumAge = -time.Second }},
		{"latitude out of range", func(c *SimulatedConfig) { c.StartLatitude = 90.5 }},
		{"longitude out of range", func(c *SimulatedConfig) { c.StartLongitude = 181 }},
		{"negative step", func(c *SimulatedConfig) { c.StepMeters = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSimulatedConfig()
			tt.mutate(&cfg)
			if _, err := NewSimulated(cfg); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("NewSimulated() error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("DefaultOptions().Validate() = %v", err)
	}
	if !opts.HighAccuracy || opts.MaximumAge != 0 || opts.Timeout != 5*time.Second || opts.Interval != 2*time.Second {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
}

func TestSimulated_StepDistance(t *testing.T) {
	sim, err := NewSimulated(testSimulatedConfig())
	if err != nil {
		t.Fatal(err)
	}

	prev := sim.Next()
	for i := 0; i < 20; i++ {
		next := sim.Next()
		d := distanceMeters(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude)
		if math.Abs(d-15) > 0.5 {
			t.Fatalf("step %d moved %.2fm, want ~15m", i, d)
		}
		if next.Accuracy == nil || *next.Accuracy != highAccuracyMeters {
			t.Fatalf("step %d accuracy = %v, want %v", i, next.Accuracy, highAccuracyMeters)
		}
		prev = next
	}
}

func TestSimulated_SeedIsReproducible(t *testing.T) {
	a, _ := NewSimulated(testSimulatedConfig())
	b, _ := NewSimulated(testSimulatedConfig())

	for i := 0; i < 5; i++ {
		sa, sb := a.Next(), b.Next()
		if sa.Latitude != sb.Latitude || sa.Longitude != sb.Longitude {
			t.Fatalf("walks diverged at step %d: %v vs %v", i, sa, sb)
		}
	}
}

func TestSimulated_LowAccuracy(t *testing.T) {
	cfg := testSimulatedConfig()
	cfg.HighAccuracy = false
	cfg.StepMeters = 0

	sim, err := NewSimulated(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		s := sim.Next()
		if s.Accuracy == nil || *s.Accuracy != lowAccuracyMeters {
			t.Fatalf("accuracy = %v, want %v", s.Accuracy, lowAccuracyMeters)
		}
		if d := distanceMeters(cfg.StartLatitude, cfg.StartLongitude, s.Latitude, s.Longitude); d > lowAccuracyMeters+0.5 {
			t.Fatalf("jittered fix is %.2fm from true position", d)
		}
	}
}

func TestSimulated_MaximumAgeReusesFix(t *testing.T) {
	cfg := testSimulatedConfig()
	cfg.MaximumAge = time.Minute

	sim, err := NewSimulated(cfg)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return now }

	first := sim.Next()
	now = now.Add(30 * time.Second)
	cached := sim.Next()
	if cached != first {
		t.Errorf("fix within maximum age should be reused: %v vs %v", cached, first)
	}
	if !cached.CapturedAt.Equal(first.CapturedAt) {
		t.Errorf("cached fix should keep its capture time")
	}

	now = now.Add(31 * time.Second)
	fresh := sim.Next()
	if fresh.CapturedAt.Equal(first.CapturedAt) {
		t.Error("fix older than maximum age should be replaced")
	}
}

func TestSimulated_ClampsAtPole(t *testing.T) {
	cfg := testSimulatedConfig()
	cfg.StartLatitude = 89.99999
	cfg.StartLongitude = 179.99999
	cfg.StepMeters = 5000

	sim, err := NewSimulated(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		s := sim.Next()
		if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
			t.Fatalf("fix out of range: %v,%v", s.Latitude, s.Longitude)
		}
	}
}

func TestSimulated_Watch(t *testing.T) {
	sim, err := NewSimulated(testSimulatedConfig())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	samples, err := sim.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-samples:
		case <-time.After(time.Second):
			t.Fatalf("no sample %d", i)
		}
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-samples:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestSimulated_TimeoutDropsUnreadFix(t *testing.T) {
	cfg := testSimulatedConfig()
	cfg.Timeout = 5 * time.Millisecond
	cfg.Interval = 20 * time.Millisecond

	sim, err := NewSimulated(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	samples, _ := sim.Watch(ctx)
	time.Sleep(50 * time.Millisecond)

	select {
	case s := <-samples:
		if time.Since(s.CapturedAt) > 30*time.Millisecond {
			t.Errorf("received a fix that should have timed out, age %v", time.Since(s.CapturedAt))
		}
	case <-time.After(time.Second):
		t.Fatal("watch stopped producing after a timeout")
	}
}
