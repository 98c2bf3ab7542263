// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package supervisor

import (
	"context"
	"fmt"
	"sync/atomic"
)

// stubService blocks until its context ends. The first failures runs
// return an error straight away so restart behavior can be observed.
type stubService struct {
	name     string
	failures int32

	runs     atomic.Int32
	returned atomic.Int32
}

func newStubService(name string, failures int) *stubService {
	return &stubService{name: name, failures: int32(failures)}
}

func (s *stubService) Serve(ctx context.Context) error {
	n := s.runs.Add(1)
	defer s.returned.Add(1)

	if n <= s.failures {
		return fmt.Errorf("%s: run %d failed", s.name, n)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }
