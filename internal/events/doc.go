// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package events implements the tenant-scoped event bus: a bounded in-memory
ring buffer per tenant, message validation, and the ingestion path that
feeds both.

# Components

  - Store: per-tenant ring buffers with append, cursor reads (GetSince),
    last-N reads (GetLast) and an atomic join helper (Snapshot)
  - Validator: trims and bounds inbound messages
  - Ingestor: Validator + Store, shared by the HTTP and WebSocket paths
  - Sink: receives every appended event (the WebSocket hub, the NATS mirror)

# Ordering

Per tenant, append order equals read order equals Sink order. The Store
calls Sink.Publish while holding the tenant lock, so Sink implementations
must never block.

# Cursors

GetSince treats an unknown cursor (evicted or never issued) as "no data"
and returns an empty slice, never the whole buffer.

# Usage

	store := events.NewStore(500, events.WithSink(hub))
	ingest := events.NewIngestor(store, events.NewValidator(2048))

	ev, err := ingest.IngestFrom(events.SourceHTTP, "company_a", body.Message, user.ID)
	if ve, ok := events.AsValidationError(err); ok {
	    // ve.Code is MESSAGE_REQUIRED, MESSAGE_EMPTY or MESSAGE_TOO_LARGE
	}
	newer := store.GetSince("company_a", ev.ID, 100)

Nothing is persisted; buffers are lost on restart.
*/
package events
