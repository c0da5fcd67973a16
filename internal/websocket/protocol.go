// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package websocket

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/eventfeed/internal/events"
)

// Message types for WebSocket communication
const (
	// Client to server
	MessageTypeAuth      = "auth"
	MessageTypeReplay    = "replay"
	MessageTypePostEvent = "post_event"
	MessageTypePing      = "ping"

	// Server to client
	MessageTypeConnectError    = "connect_error"
	MessageTypeSnapshot        = "snapshot"
	MessageTypeEventCreated    = "event_created"
	MessageTypeReplayResult    = "replay_result"
	MessageTypePostEventResult = "post_event_result"
	MessageTypeError           = "error"
	MessageTypePong            = "pong"
)

// Error codes sent in error frames. Validation codes from the events
// package and rejection codes from the auth package pass through unchanged.
const (
	CodeReplayError    = "REPLAY_ERROR"
	CodePostEventError = "POST_EVENT_ERROR"
	CodeUnknownType    = "UNKNOWN_TYPE"
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeRateLimited    = "RATE_LIMITED"
)

// Message is an outbound frame. ID echoes the request it answers.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Data any    `json:"data,omitempty"`
}

// inboundMessage is a client frame with its payload left undecoded until
// the type is known.
type inboundMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// AuthPayload is the data of a first-frame auth message.
type AuthPayload struct {
	TenantID string `json:"tenantId"`
	Token    string `json:"token"`
}

// ReplayRequest asks for events after SinceID. A nil Limit uses the default.
type ReplayRequest struct {
	SinceID string `json:"sinceId,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

// ReplayResult answers a replay request.
type ReplayResult struct {
	Events []events.Event `json:"events"`
}

// PostEventRequest carries an untrusted message. Message is kept as any so
// that non-string values reach the validator and fail with MESSAGE_REQUIRED.
type PostEventRequest struct {
	Message any `json:"message"`
}

// PostEventResult answers a post_event request.
type PostEventResult struct {
	Event events.Event `json:"event"`
}

// ErrorPayload is the data of error and connect_error frames.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MarshalMessage encodes a frame.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func nonNil(evs []events.Event) []events.Event {
	if evs == nil {
		return []events.Event{}
	}
	return evs
}
