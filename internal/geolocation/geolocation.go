// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

// Package geolocation provides position sources for the peer client.
//
// A Source streams Samples until its context ends. Simulated random-walks
// around a start point; Feed forwards samples pushed by the caller, which
// suits device adapters and tests.
package geolocation

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidOptions is returned by Watch when Options are out of range.
var ErrInvalidOptions = errors.New("geolocation: invalid options")

// Sample is one position fix.
type Sample struct {
	Latitude  float64
	Longitude float64

	// Accuracy is the 95% confidence radius in metres, nil when unknown.
	Accuracy *float64

	// CapturedAt is when the fix was taken. A cached fix keeps its
	// original time.
	CapturedAt time.Time
}

// Options mirror the knobs of a device position watch.
type Options struct {
	// HighAccuracy asks for the best fix the source can produce.
	HighAccuracy bool

	// MaximumAge allows a cached fix no older than this to be delivered
	// instead of a fresh one. Zero always takes a fresh fix.
	MaximumAge time.Duration

	// Timeout bounds how long a fix may wait to be delivered before it is
	// dropped. Zero waits indefinitely.
	Timeout time.Duration

	// Interval between fixes.
	Interval time.Duration
}

// DefaultOptions returns high accuracy, no caching, a 5s timeout and a 2s
// interval.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      5 * time.Second,
		Interval:     2 * time.Second,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Interval <= 0 {
		return errors.Join(ErrInvalidOptions, errors.New("interval must be positive"))
	}
	if o.MaximumAge < 0 || o.Timeout < 0 {
		return errors.Join(ErrInvalidOptions, errors.New("maximum age and timeout must not be negative"))
	}
	return nil
}

// Source produces position samples. The returned channel is closed when
// ctx ends.
type Source interface {
	Watch(ctx context.Context) (<-chan Sample, error)
}

// deliver sends s unless ctx ends or timeout elapses first. It reports
// whether the sample was delivered.
func deliver(ctx context.Context, out chan<- Sample, s Sample, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case out <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out <- s:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
