// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/geopresence/internal/logging"
)

//nolint:gochecknoinits // debug level so access lines below warn are observable
func init() {
	logging.Init(logging.Config{Level: "debug", Output: io.Discard})
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		delay     time.Duration
		threshold time.Duration
		wantLevel string
	}{
		{"fast success", http.StatusOK, 0, time.Second, `"level":"debug"`},
		{"slow request", http.StatusOK, 20 * time.Millisecond, time.Millisecond, `"level":"warn"`},
		{"server error", http.StatusBadGateway, 0, time.Second, `"level":"error"`},
		{"threshold disabled", http.StatusOK, 5 * time.Millisecond, 0, `"level":"debug"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewTestLogger(&buf)

			handler := RequestID(AccessLog(tt.threshold)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(tt.delay)
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/presence", nil)
			req = req.WithContext(logging.ContextWithLogger(req.Context(), logger))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("log = %s, want %s", out, tt.wantLevel)
			}
			if !strings.Contains(out, `"path":"/api/v1/presence"`) || !strings.Contains(out, `"request_id":`) {
				t.Errorf("log missing fields: %s", out)
			}
		})
	}
}
