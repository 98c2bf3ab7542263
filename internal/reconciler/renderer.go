// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package reconciler

// Renderer draws peer markers. The reconciler calls it synchronously from
// its own goroutine.
type Renderer interface {
	AddMarker(peer PeerView)
	MoveMarker(peer PeerView)
	RemoveMarker(id string)
}

// NopRenderer discards every instruction.
type NopRenderer struct{}

func (NopRenderer) AddMarker(PeerView)  {}
func (NopRenderer) MoveMarker(PeerView) {}
func (NopRenderer) RemoveMarker(string) {}

// CommandKind names a marker instruction.
type CommandKind string

const (
	CommandAdd    CommandKind = "add"
	CommandMove   CommandKind = "move"
	CommandRemove CommandKind = "remove"
)

// MarkerCommand is one renderer instruction. For CommandRemove only Peer.ID
// is set.
type MarkerCommand struct {
	Kind CommandKind
	Peer PeerView
}

// CommandChannel is a Renderer that forwards instructions to a channel so a
// drawing surface can live on another goroutine. Sends block once the
// buffer is full; the consumer must keep reading until Close.
type CommandChannel struct {
	ch chan MarkerCommand
}

// NewCommandChannel creates a CommandChannel with the given buffer.
func NewCommandChannel(buffer int) *CommandChannel {
	if buffer < 0 {
		buffer = 0
	}
	return &CommandChannel{ch: make(chan MarkerCommand, buffer)}
}

// Commands returns the receive side.
func (c *CommandChannel) Commands() <-chan MarkerCommand {
	return c.ch
}

// Close ends the stream. No instruction may be issued afterwards.
func (c *CommandChannel) Close() {
	close(c.ch)
}

func (c *CommandChannel) AddMarker(peer PeerView) {
	c.ch <- MarkerCommand{Kind: CommandAdd, Peer: peer}
}

func (c *CommandChannel) MoveMarker(peer PeerView) {
	c.ch <- MarkerCommand{Kind: CommandMove, Peer: peer}
}

func (c *CommandChannel) RemoveMarker(id string) {
	c.ch <- MarkerCommand{Kind: CommandRemove, Peer: PeerView{ID: id}}
}
