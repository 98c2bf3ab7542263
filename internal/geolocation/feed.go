// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package geolocation

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyWatching is returned when a Feed is watched twice.
var ErrAlreadyWatching = errors.New("geolocation: feed already has a watcher")

// Feed is a Source driven by Push. It supports one watcher at a time.
type Feed struct {
	mu       sync.Mutex
	ch       chan Sample
	watching bool
}

// NewFeed creates a Feed buffering up to buffer samples.
func NewFeed(buffer int) *Feed {
	if buffer < 0 {
		buffer = 0
	}
	return &Feed{ch: make(chan Sample, buffer)}
}

// Push queues a sample. It blocks while the buffer is full and returns
// false if ctx ends first.
func (f *Feed) Push(ctx context.Context, s Sample) bool {
	select {
	case f.ch <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

// Watch forwards pushed samples until ctx ends. After ctx ends the feed can
// be watched again.
func (f *Feed) Watch(ctx context.Context) (<-chan Sample, error) {
	f.mu.Lock()
	if f.watching {
		f.mu.Unlock()
		return nil, ErrAlreadyWatching
	}
	f.watching = true
	f.mu.Unlock()

	out := make(chan Sample)
	go func() {
		defer func() {
			f.mu.Lock()
			f.watching = false
			f.mu.Unlock()
			close(out)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case s := <-f.ch:
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
