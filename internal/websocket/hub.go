// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/metrics"
	"github.com/tomtom215/geopresence/internal/models"
	"github.com/tomtom215/geopresence/internal/spatial"
	"github.com/tomtom215/geopresence/internal/validation"
)

// ErrHubStopped is returned by the enqueue methods when the loop is not running.
var ErrHubStopped = errors.New("presence hub is not running")

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DisconnectReason explains why a connection left the registry.
type DisconnectReason string

const (
	DisconnectClientClosed DisconnectReason = "client_closed"
	DisconnectReadError    DisconnectReason = "read_error"
	DisconnectSlowConsumer DisconnectReason = "slow_consumer"
	DisconnectHubShutdown  DisconnectReason = "hub_shutdown"
)

const connectedMessage = "connected to presence hub"

const (
	malformedReportMessage = "position report must be an object with numeric latitude and longitude"
	badTimestampMessage    = "timestamp must be milliseconds since the epoch"
)

// Config tunes the hub and its clients.
type Config struct {
	SendBufferSize int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration

	// ReportRate is the sustained send-location rate per connection, in
	// reports per second. Zero disables limiting.
	ReportRate  float64
	ReportBurst int

	// CellSizeKm sizes the proximity index used by Nearby.
	CellSizeKm float64
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		SendBufferSize: 256,
		MaxMessageSize: 4 * 1024,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		ReportRate:     5,
		ReportBurst:    10,
		CellSizeKm:     spatial.DefaultCellSizeKm,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = def.SendBufferSize
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.WriteWait <= 0 {
		c.WriteWait = def.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = def.PongWait
	}
	if c.ReportRate < 0 {
		c.ReportRate = 0
	}
	if c.ReportBurst < 1 {
		c.ReportBurst = 1
	}
	if c.CellSizeKm <= 0 {
		c.CellSizeKm = def.CellSizeKm
	}
	return c
}

// PingPeriod is the interval between WebSocket pings; it must be shorter than PongWait.
func (c Config) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

type inboundFrame struct {
	client *Client
	raw    []byte
}

type departure struct {
	client *Client
	reason DisconnectReason
}

// Hub maintains the registry of live connections and fans events out to them.
type Hub struct {
	cfg Config

	clients    map[string]*Client
	nearby     *spatial.Grid
	register   chan *Client
	unregister chan departure
	inbound    chan inboundFrame

	// done is closed while the loop is not running.
	done    chan struct{}
	running bool

	now func() time.Time
	mu  sync.RWMutex
}

// NewHub creates a Hub. Call RunWithContext to start processing.
func NewHub(cfg Config) *Hub {
	cfg = cfg.withDefaults()
	return &Hub{
		cfg:        cfg,
		clients:    make(map[string]*Client),
		nearby:     spatial.NewGrid(cfg.CellSizeKm),
		register:   make(chan *Client),
		unregister: make(chan departure),
		inbound:    make(chan inboundFrame),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Config returns the effective configuration.
func (h *Hub) Config() Config {
	return h.cfg
}

// RunWithContext runs the event loop until ctx is canceled. It may be called
// again after it returns, which is how the supervisor restarts the hub.
//
// DETERMINISM: priority-based selection
//   - Priority 1: context cancellation
//   - Priority 2: client lifecycle (register/unregister)
//   - Priority 3: inbound frames
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.markRunning()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.register:
			h.OnConnect(client)
			continue
		case d := <-h.unregister:
			h.OnDisconnect(d.client.id, d.reason)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.OnConnect(client)
		case d := <-h.unregister:
			h.OnDisconnect(d.client.id, d.reason)
		case frame := <-h.inbound:
			h.handleFrame(frame.client, frame.raw)
		}
	}
}

func (h *Hub) markRunning() {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		h.done = make(chan struct{})
	default:
	}
	h.running = true
}

// IsRunning reports whether the event loop is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Hub) stopped() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done
}

// Connect hands a freshly upgraded client to the loop.
func (h *Hub) Connect(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.stopped():
		return ErrHubStopped
	}
}

// Submit hands one raw frame from client to the loop.
func (h *Hub) Submit(client *Client, raw []byte) error {
	select {
	case h.inbound <- inboundFrame{client: client, raw: raw}:
		return nil
	case <-h.stopped():
		return ErrHubStopped
	}
}

// Disconnect asks the loop to remove client.
func (h *Hub) Disconnect(client *Client, reason DisconnectReason) error {
	select {
	case h.unregister <- departure{client: client, reason: reason}:
		return nil
	case <-h.stopped():
		return ErrHubStopped
	}
}

// OnConnect registers client and acknowledges it. Registering the same
// client twice is a no-op.
func (h *Hub) OnConnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client.id]; exists {
		return
	}

	client.record = models.PresenceRecord{
		ConnectionID: client.id,
		RemoteAddr:   client.remoteAddr,
		ConnectedAt:  h.now().UTC(),
	}
	h.clients[client.id] = client
	metrics.SetConnections(len(h.clients))

	logging.Ctx(client.ctx).Info().
		Str("remote_addr", client.remoteAddr).
		Int("total_clients", len(h.clients)).
		Msg("presence client connected")

	h.reply(client, models.NewMessage(models.EventConnected, models.ConnectionAck{
		ID:      client.id,
		Message: connectedMessage,
	}))
}

// OnPositionReport validates a send-location payload from connectionID and
// broadcasts it to every other client. Reports from unknown ids are ignored.
func (h *Hub) OnPositionReport(connectionID string, data json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connectionID]
	if !ok {
		metrics.RecordReport(metrics.ReportUnregistered)
		return
	}
	h.onPositionReport(client, data)
}

// OnDisconnect removes connectionID and tells every remaining client.
// Unknown ids are a no-op.
func (h *Hub) OnDisconnect(connectionID string, reason DisconnectReason) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connectionID]
	if !ok {
		return
	}
	h.removeLocked([]departure{{client: client, reason: reason}})
}

// handleFrame decodes the envelope and dispatches on its type.
func (h *Hub) handleFrame(client *Client, raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.id] != client {
		metrics.RecordReport(metrics.ReportUnregistered)
		return
	}

	msg, err := models.DecodeInbound(raw)
	if err != nil {
		metrics.RecordReport(metrics.ReportMalformed)
		logging.Ctx(client.ctx).Debug().Err(err).Msg("malformed frame")
		h.reply(client, models.NewErrorMessage("message must be a JSON object with a type field"))
		return
	}

	switch msg.Type {
	case models.EventSendLocation:
		h.onPositionReport(client, msg.Data)
	case models.EventPing:
		h.reply(client, models.NewMessage(models.EventPong, nil))
	default:
		h.reply(client, models.NewErrorMessage(fmt.Sprintf("unsupported event type %q", msg.Type)))
	}
}

// onPositionReport must be called with mu held.
func (h *Hub) onPositionReport(client *Client, data json.RawMessage) {
	now := h.now()

	if client.limiter != nil && !client.limiter.AllowN(now, 1) {
		metrics.RecordReport(metrics.ReportRateLimited)
		h.reply(client, models.NewErrorMessage("rate limit exceeded, report dropped"))
		return
	}

	var report models.PositionReport
	if err := json.Unmarshal(data, &report); err != nil {
		metrics.RecordReport(metrics.ReportMalformed)
		logging.Ctx(client.ctx).Debug().Err(err).Msg("undecodable position report")
		h.reply(client, models.NewErrorMessage(malformedReportMessage))
		return
	}

	if verr := validation.ValidateStruct(&report); verr != nil {
		metrics.RecordReport(metrics.ReportInvalid)
		logging.Ctx(client.ctx).Debug().Str("reason", verr.Error()).Msg("rejected position report")
		h.reply(client, models.NewErrorMessage(verr.Error()))
		return
	}

	timestamp := now.UnixMilli()
	if report.Timestamp != nil {
		ms, ok := models.EpochMillis(*report.Timestamp)
		if !ok {
			metrics.RecordReport(metrics.ReportInvalid)
			h.reply(client, models.NewErrorMessage(badTimestampMessage))
			return
		}
		timestamp = ms
	}

	client.record.LastPosition = &models.Position{
		Latitude:   *report.Latitude,
		Longitude:  *report.Longitude,
		Accuracy:   report.Accuracy,
		ReportedAt: timestamp,
	}
	client.record.ReportCount++
	h.nearby.Upsert(client.id, *report.Latitude, *report.Longitude)
	metrics.RecordReport(metrics.ReportAccepted)

	h.broadcastLocked(models.NewMessage(models.EventReceiveLocation, models.PositionBroadcast{
		ID:        client.id,
		Latitude:  *report.Latitude,
		Longitude: *report.Longitude,
		Accuracy:  report.Accuracy,
		Timestamp: timestamp,
	}), client.id)
}

// reply sends msg to one client. A full buffer disconnects it.
func (h *Hub) reply(client *Client, msg models.Message) {
	if !client.enqueue(msg) {
		h.removeLocked([]departure{{client: client, reason: DisconnectSlowConsumer}})
	}
}

// broadcastLocked sends msg to every client except exclude, then removes
// the recipients that could not take it.
func (h *Hub) broadcastLocked(msg models.Message, exclude string) {
	failed := h.fanOut(msg, exclude)
	if len(failed) > 0 {
		h.removeLocked(failed)
	}
}

// fanOut never blocks and never removes anything.
func (h *Hub) fanOut(msg models.Message, exclude string) []departure {
	var failed []departure
	delivered := 0

	for _, client := range h.sortedClients() {
		if client.id == exclude {
			continue
		}
		if client.enqueue(msg) {
			delivered++
			continue
		}
		failed = append(failed, departure{client: client, reason: DisconnectSlowConsumer})
	}

	metrics.RecordBroadcast(delivered, len(failed))
	return failed
}

// removeLocked drains a queue of departures. Each removal broadcasts
// user-disconnected, which may in turn queue more slow consumers; a client
// already gone is skipped, so each one is announced once.
func (h *Hub) removeLocked(queue []departure) {
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]

		if h.clients[d.client.id] != d.client {
			continue
		}
		delete(h.clients, d.client.id)
		h.nearby.Remove(d.client.id)
		close(d.client.send)
		metrics.RecordDisconnect(string(d.reason), len(h.clients))

		logging.Ctx(d.client.ctx).Info().
			Str("reason", string(d.reason)).
			Int("total_clients", len(h.clients)).
			Msg("presence client disconnected")

		queue = append(queue, h.fanOut(models.NewMessage(models.EventUserDisconnected, d.client.id), "")...)
	}
}

// logGracefulShutdown closes all clients and logs without an error field;
// cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()

	h.mu.Lock()
	h.running = false
	close(h.done)
	h.mu.Unlock()

	logging.Info().
		Str("component", "presence-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("presence hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients drops every client without announcing departures; every
// peer is going away at once.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClients()
	for _, client := range clients {
		delete(h.clients, client.id)
		close(client.send)
		metrics.RecordDisconnect(string(DisconnectHubShutdown), len(h.clients))
	}
	h.nearby.Clear()
	return len(clients)
}

// sortedClients returns clients in connection order.
// DETERMINISM: map iteration order is random; broadcasts are not.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].seq < clients[j].seq
	})
	return clients
}

// GetClientCount returns the number of registered clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Presences returns a copy of every record in connection order.
func (h *Hub) Presences() []models.PresenceRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.sortedClients()
	records := make([]models.PresenceRecord, 0, len(clients))
	for _, client := range clients {
		records = append(records, client.snapshot())
	}
	return records
}

// Presence returns the record for one connection.
func (h *Hub) Presence(connectionID string) (models.PresenceRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connectionID]
	if !ok {
		return models.PresenceRecord{}, false
	}
	return client.snapshot(), true
}

// Nearby returns the records of connections whose last position lies within
// radiusKm of lat/lon, closest first. A limit > 0 caps the result.
func (h *Hub) Nearby(lat, lon, radiusKm float64, limit int) []models.NearbyPresence {
	h.mu.RLock()
	defer h.mu.RUnlock()

	hits := h.nearby.Nearby(lat, lon, radiusKm, limit)
	result := make([]models.NearbyPresence, 0, len(hits))
	for _, hit := range hits {
		client, ok := h.clients[hit.ID]
		if !ok {
			continue
		}
		result = append(result, models.NearbyPresence{
			PresenceRecord: client.snapshot(),
			DistanceKm:     hit.DistanceKm,
		})
	}
	return result
}
