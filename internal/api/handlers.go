// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/config"
	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// ConnectionCounter reports live WebSocket subscribers per tenant.
type ConnectionCounter interface {
	ClientCount(tenantID string) int
}

// ReadinessCheck is one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Settings tunes the event endpoints.
type Settings struct {
	ReplayDefaultLimit int
	ReplayMaxLimit     int
	MaxBodyBytes       int64
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		ReplayDefaultLimit: 100,
		ReplayMaxLimit:     500,
		MaxBodyBytes:       DefaultMaxBodyBytes,
	}
}

// SettingsFromConfig reads the events section.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	s.ReplayDefaultLimit = cfg.Events.ReplayDefaultLimit
	s.ReplayMaxLimit = cfg.Events.ReplayMaxLimit
	return s
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.ReplayMaxLimit <= 0 {
		s.ReplayMaxLimit = d.ReplayMaxLimit
	}
	if s.ReplayDefaultLimit <= 0 {
		s.ReplayDefaultLimit = d.ReplayDefaultLimit
	}
	s.ReplayDefaultLimit = min(s.ReplayDefaultLimit, s.ReplayMaxLimit)
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = d.MaxBodyBytes
	}
	return s
}

// Handler serves the event and health endpoints.
type Handler struct {
	ingestor    *events.Ingestor
	connections ConnectionCounter
	checks      []ReadinessCheck
	settings    Settings
	startTime   time.Time
}

// NewHandler creates a Handler. connections may be nil.
func NewHandler(ingestor *events.Ingestor, connections ConnectionCounter, settings Settings, checks ...ReadinessCheck) *Handler {
	return &Handler{
		ingestor:    ingestor,
		connections: connections,
		checks:      checks,
		settings:    settings.withDefaults(),
		startTime:   time.Now(),
	}
}

// PostEvent appends an event to the caller's tenant feed. The author is
// the authenticated user; any tenant named in the body is ignored.
func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, auth.CodeUserTokenMissing, "X-User-Token header is required")
		return
	}

	req, reqErr := decodePostEvent(w, r, h.settings.MaxBodyBytes)
	if reqErr != nil {
		reqErr.write(w, r)
		return
	}

	event, err := h.ingestor.IngestFrom(events.SourceHTTP, id.TenantID, req.Message, id.UserID)
	if err != nil {
		if ve, ok := events.AsValidationError(err); ok {
			rw.Error(validationStatus(ve.Code), ve.Code, ve.Message)
			return
		}
		rw.InternalError("Failed to create event", err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("tenant_id", id.TenantID).
		Str("event_id", event.ID).
		Msg("Event created")
	rw.Created(event)
}

// ListEvents returns the tenant's events after sinceId, oldest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusBadRequest, auth.CodeTenantIDMissing, "X-Tenant-ID header is required")
		return
	}

	query, reqErr := parseListEventsQuery(r, h.settings.ReplayDefaultLimit, h.settings.ReplayMaxLimit)
	if reqErr != nil {
		reqErr.write(w, r)
		return
	}

	list := h.ingestor.Store().GetSince(t.ID, query.SinceID, query.Limit)
	metrics.RecordReplay(events.SourceHTTP)
	rw.SuccessList(list, len(list))
}

// EventStats is the body of GET /api/v1/events/stats.
type EventStats struct {
	events.BufferStats
	Connections int `json:"connections"`
}

// EventStats reports buffer occupancy and live subscribers for the tenant.
func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusBadRequest, auth.CodeTenantIDMissing, "X-Tenant-ID header is required")
		return
	}

	stats := EventStats{BufferStats: h.ingestor.Store().Stats(t.ID)}
	if h.connections != nil {
		stats.Connections = h.connections.ClientCount(t.ID)
	}
	rw.Success(stats)
}

// ClearEvents drops the tenant's buffered events. Admin only.
func (h *Handler) ClearEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusForbidden, auth.CodeForbidden, "Admin role required")
		return
	}

	cleared := h.ingestor.Store().Count(id.TenantID)
	h.ingestor.Store().Clear(id.TenantID)

	logging.Ctx(r.Context()).Info().
		Str("tenant_id", id.TenantID).
		Str("user_id", id.UserID).
		Int("cleared", cleared).
		Msg("Tenant events cleared")
	rw.Success(map[string]any{"tenant_id": id.TenantID, "cleared": cleared})
}
