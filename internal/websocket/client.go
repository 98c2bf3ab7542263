// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/models"
)

// clientSeq orders clients by connection time.
// DETERMINISM: broadcasts iterate in seq order rather than map order.
var clientSeq atomic.Uint64

// Client is a middleman between one WebSocket connection and the hub.
type Client struct {
	seq        uint64
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan models.Message
	remoteAddr string
	limiter    *rate.Limiter

	// ctx carries the connection id for logging only.
	ctx context.Context

	// record is owned by the hub and only touched under hub.mu.
	record models.PresenceRecord
}

// NewClient wraps an upgraded connection and assigns it a fresh connection id.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	id := uuid.New().String()

	var limiter *rate.Limiter
	if hub.cfg.ReportRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(hub.cfg.ReportRate), hub.cfg.ReportBurst)
	}

	return &Client{
		seq:        clientSeq.Add(1),
		id:         id,
		hub:        hub,
		conn:       conn,
		send:       make(chan models.Message, hub.cfg.SendBufferSize),
		remoteAddr: remoteAddr,
		limiter:    limiter,
		ctx:        logging.ContextWithConnectionID(context.WithoutCancel(ctx), id),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// enqueue must only be called by the hub with its lock held; the hub is the
// only closer of send.
func (c *Client) enqueue(msg models.Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) snapshot() models.PresenceRecord {
	record := c.record
	if c.record.LastPosition != nil {
		pos := *c.record.LastPosition
		record.LastPosition = &pos
	}
	return record
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump pumps frames from the connection to the hub. It is the only
// caller of Hub.Disconnect for this client.
func (c *Client) readPump() {
	reason := DisconnectClientClosed
	defer func() {
		if err := c.hub.Disconnect(c, reason); err != nil {
			logging.Ctx(c.ctx).Debug().Err(err).Msg("hub gone before disconnect")
		}
		_ = c.conn.Close() // best-effort cleanup
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait)); err != nil {
		reason = DisconnectReadError
		logging.Ctx(c.ctx).Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			reason = classifyReadError(err)
			if reason == DisconnectReadError {
				logging.Ctx(c.ctx).Debug().Err(err).Msg("websocket read ended")
			}
			return
		}

		if err := c.hub.Submit(c, data); err != nil {
			reason = DisconnectHubShutdown
			return
		}
	}
}

func classifyReadError(err error) DisconnectReason {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return DisconnectClientClosed
		}
	}
	return DisconnectReadError
}

// writePump pumps frames from the hub to the connection.
func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait)); err != nil {
				logging.Ctx(c.ctx).Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			payload, err := models.MarshalMessage(message)
			if err != nil {
				logging.Ctx(c.ctx).Error().Err(err).Str("type", message.Type).Msg("failed to encode frame")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Ctx(c.ctx).Debug().Err(err).Msg("failed to write frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait)); err != nil {
				logging.Ctx(c.ctx).Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
