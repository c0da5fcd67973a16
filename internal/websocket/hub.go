// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// gaugeRefreshInterval controls how often room gauges are recomputed.
const gaugeRefreshInterval = 30 * time.Second

// Hub maintains one room per tenant and fans appended events out to the
// clients in the matching room. It implements events.Sink.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	total   int
	stopped bool
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

var _ events.Sink = (*Hub)(nil)

// join adds c to its tenant's room and queues the snapshot frame. It is
// called inside events.Store.Snapshot, so no append for the tenant can
// land between the snapshot and room membership.
func (h *Hub) join(c *Client, snapshot []events.Event) bool {
	frame, err := MarshalMessage(Message{Type: MessageTypeSnapshot, Data: nonNil(snapshot)})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal snapshot")
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	if !c.enqueue(frame) {
		return false
	}
	metrics.RecordWSMessageSent(MessageTypeSnapshot)

	tenantID := c.TenantID()
	room, ok := h.rooms[tenantID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[tenantID] = room
	}
	room[c] = struct{}{}
	h.total++
	metrics.WSRoomConnections.WithLabelValues(tenantID).Set(float64(len(room)))
	metrics.WSConnections.Set(float64(h.total))
	return true
}

// leave removes c from its room. It reports whether c was a member, so it
// is safe to call more than once.
func (h *Hub) leave(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	tenantID := c.TenantID()
	room, ok := h.rooms[tenantID]
	if !ok {
		return false
	}
	if _, ok := room[c]; !ok {
		return false
	}
	delete(room, c)
	h.total--
	metrics.WSRoomConnections.WithLabelValues(tenantID).Set(float64(len(room)))
	metrics.WSConnections.Set(float64(h.total))
	if len(room) == 0 {
		delete(h.rooms, tenantID)
	}
	return true
}

// Publish pushes event_created to every client in the event's room. It is
// called by the Store under the tenant lock, so per-tenant order matches
// append order. Clients whose queue is full are dropped after the room
// lock is released.
func (h *Hub) Publish(event events.Event) {
	h.mu.RLock()
	room := h.rooms[event.TenantID]
	if len(room) == 0 {
		h.mu.RUnlock()
		return
	}

	frame, err := MarshalMessage(Message{Type: MessageTypeEventCreated, Data: event})
	if err != nil {
		h.mu.RUnlock()
		logging.Error().Err(err).Str("event_id", event.ID).Msg("failed to marshal event")
		return
	}

	var slow []*Client
	for _, c := range sortedClients(room) {
		if c.enqueue(frame) {
			metrics.RecordWSMessageSent(MessageTypeEventCreated)
			continue
		}
		slow = append(slow, c)
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.dropClient(c)
	}
}

// dropClient removes and closes a client that cannot keep up.
func (h *Hub) dropClient(c *Client) {
	wasMember := h.leave(c)
	if c.isClosed() {
		return
	}
	c.close()
	metrics.WSClientsDropped.Inc()
	logging.Warn().
		Uint64("client_id", c.id).
		Str("tenant_id", c.TenantID()).
		Bool("was_member", wasMember).
		Msg("websocket client dropped: send queue full")
}

// ClientCount returns the number of clients in tenantID's room.
func (h *Hub) ClientCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tenantID])
}

// TotalClients returns the number of joined clients across all rooms.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// RunWithContext refreshes room gauges until ctx is done, then closes
// every client and refuses new joins. It returns ctx.Err().
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.stopped = false
	h.mu.Unlock()

	ticker := time.NewTicker(gaugeRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			h.refreshGauges()
		}
	}
}

func (h *Hub) refreshGauges() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for tenantID, room := range h.rooms {
		metrics.WSRoomConnections.WithLabelValues(tenantID).Set(float64(len(room)))
		total += len(room)
	}
	metrics.WSConnections.Set(float64(total))
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err()
// is not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients closes every client in ID order and empties all rooms.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true

	var clients []*Client
	for tenantID, room := range h.rooms {
		for c := range room {
			clients = append(clients, c)
		}
		metrics.WSRoomConnections.DeleteLabelValues(tenantID)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, c := range clients {
		c.close()
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.total = 0
	metrics.WSConnections.Set(0)
	return len(clients)
}

// sortedClients returns the room's clients in ID order.
func sortedClients(room map[*Client]struct{}) []*Client {
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}
