// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

// Package reconciler turns the hub's event stream for one local connection
// into a consistent set of peer markers.
//
// A Reconciler keeps one PeerView per other connection it has heard from. It
// drops self-originated and stale position events and drives a Renderer
// with add, move and remove instructions. It has exactly one writer (the
// session goroutine that reads the socket) and therefore takes no locks.
package reconciler

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/geopresence/internal/logging"
)

// DefaultStalenessWindow is the maximum age of an accepted position event.
const DefaultStalenessWindow = 30 * time.Second

// Result describes what an event did to the peer table.
type Result string

const (
	ResultAdded        Result = "added"
	ResultMoved        Result = "moved"
	ResultRemoved      Result = "removed"
	ResultSelf         Result = "self"
	ResultStale        Result = "stale"
	ResultUnknownPeer  Result = "unknown_peer"
	ResultMalformed    Result = "malformed"
	ResultAcknowledged Result = "acknowledged"
	ResultServerError  Result = "server_error"
	ResultIgnored      Result = "ignored"
)

// Config holds the reconciler settings.
type Config struct {
	// StalenessWindow drops events whose sender timestamp is older than this
	// relative to the local clock.
	StalenessWindow time.Duration

	// PeerTTL removes peers that sent nothing for this long when Prune runs.
	// Zero disables pruning.
	PeerTTL time.Duration
}

// DefaultConfig returns the defaults: a 30s window and no pruning.
func DefaultConfig() Config {
	return Config{StalenessWindow: DefaultStalenessWindow}
}

// PositionEvent is a decoded receive-location event.
type PositionEvent struct {
	ID        string
	Latitude  float64
	Longitude float64
	Accuracy  *float64

	// Timestamp is the sender's capture time in ms since epoch.
	Timestamp int64
}

// PeerView is the latest known position of one remote connection.
type PeerView struct {
	ID         string
	Latitude   float64
	Longitude  float64
	Accuracy   *float64
	ReportedAt int64

	// LastSeenAt is the local receipt time of the last accepted event.
	LastSeenAt time.Time
}

// Reconciler maintains the peer table for one connection. It is not safe
// for concurrent use.
type Reconciler struct {
	cfg      Config
	selfID   string
	peers    map[string]*PeerView
	renderer Renderer
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a Reconciler. A nil renderer discards instructions.
func New(cfg Config, renderer Renderer) *Reconciler {
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = DefaultStalenessWindow
	}
	if cfg.PeerTTL < 0 {
		cfg.PeerTTL = 0
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Reconciler{
		cfg:      cfg,
		peers:    make(map[string]*PeerView),
		renderer: renderer,
		now:      time.Now,
		log:      logging.WithComponent("reconciler"),
	}
}

// SetSelfID records the local connection id used for self-echo suppression.
func (r *Reconciler) SetSelfID(id string) {
	r.selfID = id
}

// SelfID returns the local connection id, or "" before the ack arrived.
func (r *Reconciler) SelfID() string {
	return r.selfID
}

// OnPositionEvent applies one receive-location event.
func (r *Reconciler) OnPositionEvent(ev PositionEvent) Result {
	if r.selfID != "" && ev.ID == r.selfID {
		return ResultSelf
	}

	now := r.now()
	// Compared against the cutoff so a far-past timestamp cannot overflow
	// into a negative age.
	if cutoff := now.UnixMilli() - r.cfg.StalenessWindow.Milliseconds(); ev.Timestamp < cutoff {
		r.log.Debug().Str("peer_id", ev.ID).Int64("timestamp", ev.Timestamp).Msg("dropped stale position")
		return ResultStale
	}

	if peer, ok := r.peers[ev.ID]; ok {
		peer.Latitude = ev.Latitude
		peer.Longitude = ev.Longitude
		peer.Accuracy = ev.Accuracy
		peer.ReportedAt = ev.Timestamp
		peer.LastSeenAt = now
		r.renderer.MoveMarker(*peer)
		return ResultMoved
	}

	peer := &PeerView{
		ID:         ev.ID,
		Latitude:   ev.Latitude,
		Longitude:  ev.Longitude,
		Accuracy:   ev.Accuracy,
		ReportedAt: ev.Timestamp,
		LastSeenAt: now,
	}
	r.peers[ev.ID] = peer
	r.renderer.AddMarker(*peer)
	return ResultAdded
}

// OnDisconnectEvent removes a peer. Unknown ids are a no-op.
func (r *Reconciler) OnDisconnectEvent(id string) Result {
	if _, ok := r.peers[id]; !ok {
		return ResultUnknownPeer
	}
	delete(r.peers, id)
	r.renderer.RemoveMarker(id)
	return ResultRemoved
}

// Reset forgets every peer and the local id. Call it whenever the connection
// is re-established; the table refills from fresh events.
func (r *Reconciler) Reset() {
	for _, id := range r.sortedIDs() {
		delete(r.peers, id)
		r.renderer.RemoveMarker(id)
	}
	r.selfID = ""
}

// Prune removes peers whose LastSeenAt is older than PeerTTL and returns how
// many were removed.
func (r *Reconciler) Prune() int {
	if r.cfg.PeerTTL <= 0 {
		return 0
	}

	now := r.now()
	removed := 0
	for _, id := range r.sortedIDs() {
		if now.Sub(r.peers[id].LastSeenAt) > r.cfg.PeerTTL {
			delete(r.peers, id)
			r.renderer.RemoveMarker(id)
			removed++
		}
	}
	if removed > 0 {
		r.log.Debug().Int("removed", removed).Msg("pruned silent peers")
	}
	return removed
}

// Peer returns a copy of one PeerView.
func (r *Reconciler) Peer(id string) (PeerView, bool) {
	peer, ok := r.peers[id]
	if !ok {
		return PeerView{}, false
	}
	return *peer, true
}

// Peers returns copies of every PeerView ordered by id.
func (r *Reconciler) Peers() []PeerView {
	ids := r.sortedIDs()
	views := make([]PeerView, 0, len(ids))
	for _, id := range ids {
		views = append(views, *r.peers[id])
	}
	return views
}

// Len returns the number of known peers.
func (r *Reconciler) Len() int {
	return len(r.peers)
}

func (r *Reconciler) sortedIDs() []string {
	ids := make([]string, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
