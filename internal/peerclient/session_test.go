// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package peerclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/tomtom215/geopresence/internal/geolocation"
	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/reconciler"
	"github.com/tomtom215/geopresence/internal/websocket"
)

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

// presenceServer is a hub behind an httptest server that can be stopped
// and restarted.
type presenceServer struct {
	hub    *websocket.Hub
	server *httptest.Server
	cancel context.CancelFunc
}

func startPresenceServer(t *testing.T) *presenceServer {
	t.Helper()

	cfg := websocket.DefaultConfig()
	cfg.ReportRate = 0
	ps := &presenceServer{hub: websocket.NewHub(cfg)}
	ps.startHub(t)

	upgrader := &gws.Upgrader{}
	ps.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = websocket.ServeWS(ps.hub, upgrader, w, r)
	}))

	t.Cleanup(func() {
		ps.cancel()
		ps.server.Close()
	})
	return ps
}

func (ps *presenceServer) startHub(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ps.cancel = cancel
	go func() { _ = ps.hub.RunWithContext(ctx) }()
	waitFor(t, ps.hub.IsRunning)
}

func (ps *presenceServer) stopHub(t *testing.T) {
	t.Helper()
	ps.cancel()
	waitFor(t, func() bool { return !ps.hub.IsRunning() })
}

func (ps *presenceServer) url() string {
	return "ws" + strings.TrimPrefix(ps.server.URL, "http")
}

// statusLog records Status updates from the Run goroutine.
type statusLog struct {
	mu      sync.Mutex
	entries []Status
}

func (l *statusLog) record(st Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, st)
}

func (l *statusLog) last() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Status{}
	}
	return l.entries[len(l.entries)-1]
}

func (l *statusLog) seen(state State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.entries {
		if st.State == state {
			return true
		}
	}
	return false
}

type testPeer struct {
	feed     *geolocation.Feed
	commands *reconciler.CommandChannel
	status   *statusLog
	done     chan error
	cancel   context.CancelFunc
}

func startPeer(t *testing.T, cfg Config) *testPeer {
	t.Helper()

	p := &testPeer{
		feed:     geolocation.NewFeed(4),
		commands: reconciler.NewCommandChannel(64),
		status:   &statusLog{},
		done:     make(chan error, 1),
	}
	rec := reconciler.New(reconciler.DefaultConfig(), p.commands)
	session := New(cfg, p.feed, rec, WithStatus(p.status.record))

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go func() { p.done <- session.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Error("session did not stop")
		}
	})
	return p
}

func (p *testPeer) waitConnected(t *testing.T) string {
	t.Helper()
	waitFor(t, func() bool {
		st := p.status.last()
		return st.State == StateConnected && st.SelfID != ""
	})
	return p.status.last().SelfID
}

func (p *testPeer) nextCommand(t *testing.T) reconciler.MarkerCommand {
	t.Helper()
	select {
	case cmd := <-p.commands.Commands():
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("no marker command")
		return reconciler.MarkerCommand{}
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	return cfg
}

func TestSession_PositionReachesPeer(t *testing.T) {
	ps := startPresenceServer(t)

	alice := startPeer(t, testConfig(ps.url()))
	bob := startPeer(t, testConfig(ps.url()))
	aliceID := alice.waitConnected(t)
	bobID := bob.waitConnected(t)
	if aliceID == bobID {
		t.Fatalf("peers share id %s", aliceID)
	}

	ctx := context.Background()
	alice.feed.Push(ctx, geolocation.Sample{Latitude: 51.5, Longitude: -0.12, CapturedAt: time.Now()})

	cmd := bob.nextCommand(t)
	if cmd.Kind != reconciler.CommandAdd || cmd.Peer.ID != aliceID {
		t.Fatalf("bob got %+v, want add for %s", cmd, aliceID)
	}
	if cmd.Peer.Latitude != 51.5 || cmd.Peer.Longitude != -0.12 {
		t.Errorf("bob marker at %v,%v", cmd.Peer.Latitude, cmd.Peer.Longitude)
	}

	alice.feed.Push(ctx, geolocation.Sample{Latitude: 51.6, Longitude: -0.13, CapturedAt: time.Now()})
	if cmd := bob.nextCommand(t); cmd.Kind != reconciler.CommandMove || cmd.Peer.Latitude != 51.6 {
		t.Errorf("bob got %+v, want move to 51.6", cmd)
	}

	// Alice never draws herself.
	select {
	case cmd := <-alice.commands.Commands():
		t.Errorf("alice got unexpected command %+v", cmd)
	case <-time.After(50 * time.Millisecond):
	}

	alice.cancel()
	if cmd := bob.nextCommand(t); cmd.Kind != reconciler.CommandRemove || cmd.Peer.ID != aliceID {
		t.Errorf("bob got %+v, want remove for %s", cmd, aliceID)
	}
}

func TestSession_PendingSampleSentAfterAck(t *testing.T) {
	ps := startPresenceServer(t)

	bob := startPeer(t, testConfig(ps.url()))
	bob.waitConnected(t)

	// Queue the sample before alice is even started.
	alice := &testPeer{
		feed:     geolocation.NewFeed(1),
		commands: reconciler.NewCommandChannel(8),
		status:   &statusLog{},
		done:     make(chan error, 1),
	}
	alice.feed.Push(context.Background(), geolocation.Sample{Latitude: 10, Longitude: 20, CapturedAt: time.Now()})

	session := New(testConfig(ps.url()), alice.feed, reconciler.New(reconciler.DefaultConfig(), alice.commands),
		WithStatus(alice.status.record))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { alice.done <- session.Run(ctx) }()

	cmd := bob.nextCommand(t)
	if cmd.Kind != reconciler.CommandAdd || cmd.Peer.Latitude != 10 {
		t.Errorf("bob got %+v, want add at latitude 10", cmd)
	}
}

func TestSession_ReconnectResetsPeers(t *testing.T) {
	ps := startPresenceServer(t)

	alice := startPeer(t, testConfig(ps.url()))
	bob := startPeer(t, testConfig(ps.url()))
	aliceID := alice.waitConnected(t)
	firstBobID := bob.waitConnected(t)

	alice.feed.Push(context.Background(), geolocation.Sample{Latitude: 1, Longitude: 1, CapturedAt: time.Now()})
	if cmd := bob.nextCommand(t); cmd.Kind != reconciler.CommandAdd {
		t.Fatalf("bob got %+v, want add", cmd)
	}

	ps.stopHub(t)

	// The hub does not announce departures on shutdown, so the marker goes
	// away through Reset when bob reconnects.
	waitFor(t, func() bool { return bob.status.seen(StateReconnecting) })
	ps.startHub(t)

	if cmd := bob.nextCommand(t); cmd.Kind != reconciler.CommandRemove || cmd.Peer.ID != aliceID {
		t.Errorf("bob got %+v, want remove for %s after reconnect", cmd, aliceID)
	}

	waitFor(t, func() bool {
		st := bob.status.last()
		return st.State == StateConnected && st.SelfID != "" && st.SelfID != firstBobID
	})
}

func TestSession_GivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := testConfig("ws://" + addr + "/ws")
	cfg.MaxElapsed = 100 * time.Millisecond

	rec := reconciler.New(reconciler.DefaultConfig(), nil)
	session := New(cfg, geolocation.NewFeed(0), rec)

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrGaveUp) {
			t.Errorf("Run() error = %v, want ErrGaveUp", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not give up")
	}
}

func TestSession_CancelStopsCleanly(t *testing.T) {
	ps := startPresenceServer(t)

	status := &statusLog{}
	session := New(testConfig(ps.url()), geolocation.NewFeed(0),
		reconciler.New(reconciler.DefaultConfig(), nil), WithStatus(status.record))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	waitFor(t, func() bool { return status.last().State == StateConnected })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}
	if status.last().State != StateStopped {
		t.Errorf("final state = %s, want stopped", status.last().State)
	}
	waitFor(t, func() bool { return ps.hub.GetClientCount() == 0 })
}

func TestSession_RejectedOrigin(t *testing.T) {
	hub := websocket.NewHub(websocket.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()
	waitFor(t, hub.IsRunning)

	upgrader := &gws.Upgrader{CheckOrigin: func(r *http.Request) bool {
		return r.Header.Get("Origin") == "https://map.example"
	}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = websocket.ServeWS(hub, upgrader, w, r)
	}))
	defer server.Close()

	cfg := testConfig("ws" + strings.TrimPrefix(server.URL, "http"))
	cfg.Origin = "https://evil.example"
	cfg.MaxElapsed = 50 * time.Millisecond

	session := New(cfg, geolocation.NewFeed(0), reconciler.New(reconciler.DefaultConfig(), nil))
	err := session.Run(ctx)
	if !errors.Is(err, ErrGaveUp) || !strings.Contains(err.Error(), "status 403") {
		t.Errorf("Run() error = %v, want ErrGaveUp with status 403", err)
	}
}

func TestReportFromSample(t *testing.T) {
	accuracy := 12.5
	captured := time.UnixMilli(1_700_000_000_000)

	report := ReportFromSample(geolocation.Sample{
		Latitude:   -33.9,
		Longitude:  18.4,
		Accuracy:   &accuracy,
		CapturedAt: captured,
	})
	if *report.Latitude != -33.9 || *report.Longitude != 18.4 {
		t.Errorf("position = %v,%v", *report.Latitude, *report.Longitude)
	}
	if report.Accuracy == nil || *report.Accuracy != 12.5 {
		t.Errorf("accuracy = %v", report.Accuracy)
	}
	if report.Timestamp == nil || *report.Timestamp != 1_700_000_000_000 {
		t.Errorf("timestamp = %v", report.Timestamp)
	}

	if r := ReportFromSample(geolocation.Sample{Latitude: 1, Longitude: 2}); r.Timestamp != nil {
		t.Errorf("zero capture time should leave timestamp unset, got %v", *r.Timestamp)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: time.Millisecond, PruneInterval: -1}.withDefaults()
	if cfg.URL == "" || cfg.WriteWait <= 0 || cfg.PongWait <= 0 || cfg.MaxMessageSize <= 0 {
		t.Errorf("withDefaults() = %+v", cfg)
	}
	if cfg.MaxBackoff != time.Second {
		t.Errorf("MaxBackoff = %v, want raised to InitialBackoff", cfg.MaxBackoff)
	}
	if cfg.PruneInterval != 0 {
		t.Errorf("PruneInterval = %v, want 0", cfg.PruneInterval)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
