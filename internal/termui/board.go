// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

// Package termui draws the peer map as a terminal table.
package termui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tomtom215/geopresence/internal/peerclient"
	"github.com/tomtom215/geopresence/internal/reconciler"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(purple)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

// Board is the drawing surface for marker commands. Apply and SetStatus may
// be called from different goroutines.
type Board struct {
	mu     sync.Mutex
	peers  map[string]reconciler.PeerView
	status peerclient.Status
	now    func() time.Time
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{
		peers:  make(map[string]reconciler.PeerView),
		status: peerclient.Status{State: peerclient.StateConnecting},
		now:    time.Now,
	}
}

// Apply draws one marker command.
func (b *Board) Apply(cmd reconciler.MarkerCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch cmd.Kind {
	case reconciler.CommandAdd, reconciler.CommandMove:
		b.peers[cmd.Peer.ID] = cmd.Peer
	case reconciler.CommandRemove:
		delete(b.peers, cmd.Peer.ID)
	}
}

// SetStatus records the session state. It satisfies peerclient.StatusFunc.
func (b *Board) SetStatus(st peerclient.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = st
}

// Len returns the number of drawn markers.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.peers)
}

// Render returns the current frame.
func (b *Board) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(b.statusLine())
	sb.WriteString("\n")

	if len(b.peers) == 0 {
		sb.WriteString(mutedStyle.Render("no peers in range"))
		sb.WriteString("\n")
		return sb.String()
	}

	ids := make([]string, 0, len(b.peers))
	for id := range b.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := b.now()
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		p := b.peers[id]
		rows = append(rows, []string{
			shortID(p.ID),
			fmt.Sprintf("%.6f", p.Latitude),
			fmt.Sprintf("%.6f", p.Longitude),
			accuracyLabel(p.Accuracy),
			ageLabel(now.Sub(time.UnixMilli(p.ReportedAt))),
		})
	}

	sb.WriteString(renderTable([]string{"PEER", "LATITUDE", "LONGITUDE", "ACCURACY", "AGE"}, rows))
	sb.WriteString("\n")
	return sb.String()
}

// statusLine must be called with mu held.
func (b *Board) statusLine() string {
	st := b.status
	var state string
	switch st.State {
	case peerclient.StateConnected:
		state = successStyle.Render("● connected")
	case peerclient.StateReconnecting:
		state = warnStyle.Render(fmt.Sprintf("! reconnecting in %s", st.RetryIn.Round(time.Millisecond)))
	case peerclient.StateStopped:
		state = errorStyle.Render("✗ stopped")
	default:
		state = accentStyle.Render("● " + string(st.State))
	}

	parts := []string{state}
	if st.SelfID != "" {
		parts = append(parts, mutedStyle.Render("you are ")+boldStyle.Render(shortID(st.SelfID)))
	}
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d peers", len(b.peers))))
	if st.Err != nil && st.State != peerclient.StateConnected {
		parts = append(parts, errorStyle.Render(st.Err.Error()))
	}
	return strings.Join(parts, "  ")
}

// Run applies commands and redraws to out every refresh until ctx ends or
// commands is closed.
func (b *Board) Run(ctx context.Context, commands <-chan reconciler.MarkerCommand, out io.Writer, refresh time.Duration) {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	draw := func() { _, _ = io.WriteString(out, clearScreen+b.Render()) }
	draw()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok {
				draw()
				return
			}
			b.Apply(cmd)
		case <-ticker.C:
			draw()
		}
	}
}

func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddStyle := cellStyle.Foreground(dim)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func accuracyLabel(accuracy *float64) string {
	if accuracy == nil {
		return "-"
	}
	return fmt.Sprintf("±%.0fm", *accuracy)
}

func ageLabel(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
