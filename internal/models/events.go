// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package models

import (
	"math"

	"github.com/goccy/go-json"
)

// Event types carried in Message.Type.
const (
	EventSendLocation     = "send-location"
	EventConnected        = "connected"
	EventError            = "error"
	EventReceiveLocation  = "receive-location"
	EventUserDisconnected = "user-disconnected"
	EventPing             = "ping"
	EventPong             = "pong"
)

// Message is an outbound WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundMessage is a frame whose payload has not been decoded yet. The
// payload is decoded once the type is known.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PositionReport is the send-location payload.
//
// Latitude and Longitude are pointers so that a missing field fails the
// required check instead of silently decoding as 0.
type PositionReport struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Timestamp *float64 `json:"timestamp,omitempty" validate:"omitempty,gte=0"`
}

// PositionBroadcast is the receive-location payload.
type PositionBroadcast struct {
	ID        string   `json:"id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// ConnectionAck is sent to a client once it is registered.
type ConnectionAck struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ErrorPayload is sent to the originator of a rejected frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage builds an outbound frame.
func NewMessage(eventType string, data interface{}) Message {
	return Message{Type: eventType, Data: data}
}

// NewErrorMessage builds an error frame.
func NewErrorMessage(message string) Message {
	return Message{Type: EventError, Data: ErrorPayload{Message: message}}
}

// DecodeInbound decodes the envelope of a raw frame.
func DecodeInbound(raw []byte) (InboundMessage, error) {
	var msg InboundMessage
	err := json.Unmarshal(raw, &msg)
	return msg, err
}

// MarshalMessage encodes a frame.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// EpochMillis truncates a wire timestamp to whole milliseconds. Browsers
// may send fractional values; NaN, infinities and anything outside the
// int64 range are rejected.
func EpochMillis(ts float64) (int64, bool) {
	if math.IsNaN(ts) || ts < math.MinInt64 || ts >= math.MaxInt64 {
		return 0, false
	}
	return int64(ts), true
}
