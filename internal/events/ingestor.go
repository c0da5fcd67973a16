// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

import (
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// Ingestion sources, used as a metrics label.
const (
	SourceHTTP      = "http"
	SourceWebSocket = "websocket"
	SourceInternal  = "internal"
)

// Ingestor is the single ingestion path shared by HTTP and WebSocket
// producers: validate, then append.
type Ingestor struct {
	store     *Store
	validator *Validator
}

// NewIngestor combines a Store and a Validator.
func NewIngestor(store *Store, validator *Validator) *Ingestor {
	return &Ingestor{store: store, validator: validator}
}

// Ingest validates raw and appends it to tenantID's feed. On success the
// event has already been handed to the Store's Sink.
func (i *Ingestor) Ingest(tenantID string, raw any, authorID string) (Event, error) {
	return i.IngestFrom(SourceInternal, tenantID, raw, authorID)
}

// IngestFrom is Ingest with the producer named for metrics.
func (i *Ingestor) IngestFrom(source, tenantID string, raw any, authorID string) (Event, error) {
	message, err := i.validator.Validate(raw)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			metrics.RecordIngestRejection(source, ve.Code)
		}
		return Event{}, err
	}
	return i.store.Append(tenantID, message, authorID), nil
}

// Store returns the underlying Store.
func (i *Ingestor) Store() *Store {
	return i.store
}
