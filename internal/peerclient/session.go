// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

// Package peerclient connects one participant to the presence hub.
//
// A Session dials the hub, publishes samples from a geolocation.Source as
// send-location frames and feeds every inbound frame to a
// reconciler.Reconciler. All reconciler calls happen on the Run goroutine,
// so the reconciler stays single-consumer. Lost connections are redialled
// with exponential backoff and the reconciler is Reset on each new
// connection.
package peerclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/geopresence/internal/geolocation"
	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/models"
	"github.com/tomtom215/geopresence/internal/reconciler"
)

// ErrGaveUp is returned by Run when the reconnect budget is exhausted.
var ErrGaveUp = errors.New("peer session: reconnect budget exhausted")

// Config tunes a Session.
type Config struct {
	// URL of the hub WebSocket endpoint, e.g. ws://localhost:8080/ws.
	URL string

	// Origin is sent as the Origin header when set.
	Origin string

	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PongWait         time.Duration
	MaxMessageSize   int64

	// PruneInterval drives Reconciler.Prune. Zero disables the ticker.
	PruneInterval time.Duration

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// MaxElapsed bounds consecutive failed reconnects. Zero retries forever.
	MaxElapsed time.Duration
}

// DefaultConfig returns settings that match the hub defaults.
func DefaultConfig() Config {
	return Config{
		URL:              "ws://localhost:8080/ws",
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		MaxMessageSize:   4 * 1024,
		PruneInterval:    5 * time.Second,
		InitialBackoff:   500 * time.Millisecond,
		MaxBackoff:       30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.URL == "" {
		c.URL = def.URL
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteWait <= 0 {
		c.WriteWait = def.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = def.PongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.PruneInterval < 0 {
		c.PruneInterval = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.MaxElapsed < 0 {
		c.MaxElapsed = 0
	}
	return c
}

// Session is one participant's connection loop.
type Session struct {
	cfg    Config
	source geolocation.Source
	rec    *reconciler.Reconciler
	dialer *websocket.Dialer
	status StatusFunc
	log    zerolog.Logger

	// pending is the newest sample not yet sent. Owned by Run.
	pending *geolocation.Sample
}

// Option configures a Session.
type Option func(*Session)

// WithStatus registers a callback for connection state changes. It runs on
// the Run goroutine.
func WithStatus(fn StatusFunc) Option {
	return func(s *Session) { s.status = fn }
}

// WithDialer replaces the default WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// New creates a Session. The reconciler must not be used by anything else
// while Run is active.
func New(cfg Config, source geolocation.Source, rec *reconciler.Reconciler, opts ...Option) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:    cfg,
		source: source,
		rec:    rec,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		log: logging.WithComponent("peer-session").With().Str("url", cfg.URL).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) newBackoff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.cfg.InitialBackoff),
		backoff.WithMaxInterval(s.cfg.MaxBackoff),
		backoff.WithMaxElapsedTime(s.cfg.MaxElapsed),
	), ctx)
}

// Run connects and stays connected until ctx ends, which returns nil. It
// returns ErrGaveUp when MaxElapsed passes without a successful dial.
func (s *Session) Run(ctx context.Context) error {
	samples, err := s.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch geolocation: %w", err)
	}

	b := s.newBackoff(ctx)
	for {
		connected, err := s.runOnce(ctx, samples)
		if ctx.Err() != nil {
			s.setStatus(Status{State: StateStopped})
			return nil
		}
		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			s.setStatus(Status{State: StateStopped, Err: err})
			return fmt.Errorf("%w: %w", ErrGaveUp, err)
		}

		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("connection lost")
		s.setStatus(Status{State: StateReconnecting, Err: err, RetryIn: wait})

		if !s.waitRetry(ctx, samples, wait) {
			s.setStatus(Status{State: StateStopped})
			return nil
		}
	}
}

// waitRetry sleeps for wait while keeping the newest sample. It returns false
// when ctx ends.
func (s *Session) waitRetry(ctx context.Context, samples <-chan geolocation.Sample, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case sample, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			s.pending = &sample
		}
	}
}

type inbound struct {
	data []byte
	err  error
}

// runOnce holds one connection. connected reports whether the dial
// succeeded; err explains why the connection ended.
func (s *Session) runOnce(ctx context.Context, samples <-chan geolocation.Sample) (connected bool, err error) {
	s.setStatus(Status{State: StateConnecting})

	header := http.Header{}
	if s.cfg.Origin != "" {
		header.Set("Origin", s.cfg.Origin)
	}
	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial %s: %w (status %d)", s.cfg.URL, err, resp.StatusCode)
		}
		return false, fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	defer func() { _ = conn.Close() }()

	// Markers from the previous connection may describe peers that are gone.
	s.rec.Reset()

	frames := make(chan inbound)
	readerDone := make(chan struct{})
	go s.readLoop(conn, frames, readerDone)
	defer close(readerDone)

	var prune <-chan time.Time
	if s.cfg.PruneInterval > 0 {
		ticker := time.NewTicker(s.cfg.PruneInterval)
		defer ticker.Stop()
		prune = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteWait))
			return true, ctx.Err()

		case f := <-frames:
			if f.err != nil {
				return true, f.err
			}
			s.handleFrame(conn, f.data)

		case sample, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			s.pending = &sample
			if s.rec.SelfID() != "" {
				if err := s.flush(conn); err != nil {
					return true, err
				}
			}

		case <-prune:
			if n := s.rec.Prune(); n > 0 {
				s.setStatus(Status{State: StateConnected, SelfID: s.rec.SelfID(), Peers: s.rec.Len()})
			}
		}
	}
}

func (s *Session) handleFrame(conn *websocket.Conn, data []byte) {
	switch s.rec.HandleMessage(data) {
	case reconciler.ResultAcknowledged:
		s.log.Info().Str("connection_id", s.rec.SelfID()).Msg("connected to presence hub")
		s.setStatus(Status{State: StateConnected, SelfID: s.rec.SelfID(), Peers: s.rec.Len()})
		// Samples taken while offline are published once the hub knows us.
		if s.pending != nil {
			if err := s.flush(conn); err != nil {
				s.log.Debug().Err(err).Msg("failed to publish pending position")
			}
		}
	case reconciler.ResultAdded, reconciler.ResultRemoved:
		s.setStatus(Status{State: StateConnected, SelfID: s.rec.SelfID(), Peers: s.rec.Len()})
	}
}

// flush publishes the pending sample.
func (s *Session) flush(conn *websocket.Conn) error {
	sample := s.pending
	if sample == nil {
		return nil
	}

	payload, err := models.MarshalMessage(models.NewMessage(models.EventSendLocation, ReportFromSample(*sample)))
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("publish position: %w", err)
	}
	s.pending = nil
	return nil
}

// readLoop forwards frames until the connection fails. done is closed by
// runOnce on exit so a blocked send can be abandoned.
func (s *Session) readLoop(conn *websocket.Conn, frames chan<- inbound, done <-chan struct{}) {
	conn.SetReadLimit(s.cfg.MaxMessageSize)
	extend := func() error { return conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait)) }
	_ = extend()
	conn.SetPingHandler(func(appData string) error {
		_ = extend()
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(s.cfg.WriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			_ = extend()
		}
		select {
		case frames <- inbound{data: data, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) setStatus(st Status) {
	if s.status != nil {
		s.status(st)
	}
}

// ReportFromSample builds a send-location payload.
func ReportFromSample(sample geolocation.Sample) models.PositionReport {
	report := models.PositionReport{
		Latitude:  models.Float64Ptr(sample.Latitude),
		Longitude: models.Float64Ptr(sample.Longitude),
		Accuracy:  sample.Accuracy,
	}
	if !sample.CapturedAt.IsZero() {
		report.Timestamp = models.Float64Ptr(float64(sample.CapturedAt.UnixMilli()))
	}
	return report
}
