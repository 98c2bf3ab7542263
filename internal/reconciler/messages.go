// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package reconciler

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/geopresence/internal/models"
)

// positionPayload mirrors models.PositionBroadcast with every field optional
// so missing fields can be told apart from zero values.
type positionPayload struct {
	ID        *string  `json:"id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Timestamp *float64 `json:"timestamp"`
}

// HandleMessage decodes one frame from the hub and applies it. Malformed
// frames are dropped without being reported upstream; ranges are not
// checked again since the hub already validated them.
func (r *Reconciler) HandleMessage(raw []byte) Result {
	msg, err := models.DecodeInbound(raw)
	if err != nil {
		r.log.Debug().Err(err).Msg("dropped undecodable frame")
		return ResultMalformed
	}

	switch msg.Type {
	case models.EventConnected:
		var ack models.ConnectionAck
		if err := json.Unmarshal(msg.Data, &ack); err != nil || ack.ID == "" {
			return ResultMalformed
		}
		r.SetSelfID(ack.ID)
		return ResultAcknowledged

	case models.EventReceiveLocation:
		ev, ok := decodePosition(msg.Data)
		if !ok {
			r.log.Debug().Str("type", msg.Type).Msg("dropped malformed position event")
			return ResultMalformed
		}
		return r.OnPositionEvent(ev)

	case models.EventUserDisconnected:
		var id string
		if err := json.Unmarshal(msg.Data, &id); err != nil || id == "" {
			r.log.Debug().Str("type", msg.Type).Msg("dropped malformed disconnect event")
			return ResultMalformed
		}
		return r.OnDisconnectEvent(id)

	case models.EventError:
		var payload models.ErrorPayload
		_ = json.Unmarshal(msg.Data, &payload)
		r.log.Warn().Str("message", payload.Message).Msg("hub rejected a frame")
		return ResultServerError

	default:
		return ResultIgnored
	}
}

func decodePosition(data json.RawMessage) (PositionEvent, bool) {
	var p positionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return PositionEvent{}, false
	}
	if p.ID == nil || *p.ID == "" || p.Latitude == nil || p.Longitude == nil || p.Timestamp == nil {
		return PositionEvent{}, false
	}
	ts, ok := models.EpochMillis(*p.Timestamp)
	if !ok {
		return PositionEvent{}, false
	}
	return PositionEvent{
		ID:        *p.ID,
		Latitude:  *p.Latitude,
		Longitude: *p.Longitude,
		Accuracy:  p.Accuracy,
		Timestamp: ts,
	}, true
}
