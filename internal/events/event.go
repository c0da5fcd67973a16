// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

import (
	"time"

	"github.com/google/uuid"
)

// TimestampFormat is ISO-8601 in UTC with millisecond precision,
// e.g. 2026-01-02T15:04:05.000Z.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Event is an immutable record in a tenant's feed.
type Event struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	AuthorID  string `json:"author_id,omitempty"`
}

// BufferStats describes one tenant's ring buffer.
type BufferStats struct {
	TenantID string `json:"tenant_id"`
	Count    int    `json:"count"`
	Capacity int    `json:"capacity"`
}

// newEventID returns a creation-ordered UUIDv7, falling back to a random
// UUIDv4 if the v7 generator fails.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
