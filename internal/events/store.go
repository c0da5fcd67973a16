// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// DefaultBufferSize is the per-tenant capacity used when NewStore is given
// a non-positive size.
const DefaultBufferSize = 500

// Store holds a bounded, ordered event log per tenant.
//
// Concurrency:
//   - mu guards the tenant map; buffers are created under the write lock
//     after a second lookup, so concurrent first appends share one buffer
//   - each tenantBuffer has its own mutex covering append, eviction, reads
//     and the Sink call for that tenant
//
// Complexity:
//   - Append: O(1)
//   - GetSince: O(1) cursor lookup + O(n) copy of the result
//   - GetLast: O(n) copy of the result
type Store struct {
	capacity int
	sink     Sink
	now      func() time.Time

	mu      sync.RWMutex
	buffers map[string]*tenantBuffer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSink sets the Sink that receives every appended event.
func WithSink(sink Sink) StoreOption {
	return func(s *Store) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a Store whose tenant buffers each hold at most capacity
// events.
func NewStore(capacity int, opts ...StoreOption) *Store {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	s := &Store{
		capacity: capacity,
		sink:     discardSink{},
		now:      time.Now,
		buffers:  make(map[string]*tenantBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the per-tenant buffer size.
func (s *Store) Capacity() int {
	return s.capacity
}

// tenantBuffer is a fixed-capacity circular buffer. Every event gets a
// sequence number; the event with sequence n lives at ring[n%capacity].
// Sequences [next-size, next) are live.
type tenantBuffer struct {
	mu    sync.Mutex
	ring  []Event
	index map[string]uint64 // event id -> sequence, live events only
	next  uint64
	size  int
	last  time.Time
}

func (s *Store) lookup(tenantID string) *tenantBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffers[tenantID]
}

func (s *Store) bufferFor(tenantID string) *tenantBuffer {
	if b := s.lookup(tenantID); b != nil {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buffers[tenantID]; ok {
		return b
	}
	b := &tenantBuffer{index: make(map[string]uint64)}
	s.buffers[tenantID] = b
	metrics.EventBuffers.Set(float64(len(s.buffers)))
	logging.Debug().Str("tenant_id", tenantID).Int("capacity", s.capacity).Msg("Created tenant event buffer")
	return b
}

// Append stores a new event for tenantID and hands it to the Sink before
// releasing the tenant lock, so sink order equals append order. The message
// is trimmed; callers are expected to have validated it already.
func (s *Store) Append(tenantID, message, authorID string) Event {
	b := s.bufferFor(tenantID)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := s.now()
	if now.Before(b.last) {
		now = b.last
	}
	b.last = now

	event := Event{
		ID:        newEventID(),
		TenantID:  tenantID,
		Message:   strings.TrimSpace(message),
		Timestamp: formatTimestamp(now),
		AuthorID:  authorID,
	}

	evicted := b.push(event, s.capacity)
	metrics.RecordEventAppended(evicted)
	metrics.SetBufferSize(tenantID, b.size)

	s.sink.Publish(event)
	return event
}

// push appends event and evicts the oldest entry once the ring is full.
// It reports whether an eviction happened.
func (b *tenantBuffer) push(event Event, capacity int) bool {
	seq := b.next
	b.next++
	b.index[event.ID] = seq

	if len(b.ring) < capacity {
		b.ring = append(b.ring, event)
		b.size++
		return false
	}

	slot := seq % uint64(capacity)
	delete(b.index, b.ring[slot].ID)
	b.ring[slot] = event
	return true
}

// copyRange returns n events starting at sequence from, oldest first.
func (b *tenantBuffer) copyRange(from uint64, n int) []Event {
	out := make([]Event, n)
	capacity := uint64(len(b.ring))
	for i := 0; i < n; i++ {
		out[i] = b.ring[(from+uint64(i))%capacity]
	}
	return out
}

// lastN returns the newest min(n, size) events, oldest first.
func (b *tenantBuffer) lastN(n int) []Event {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []Event{}
	}
	return b.copyRange(b.next-uint64(n), n)
}

// GetSince returns events for cursor-based incremental reads. A limit <= 0
// means no limit was given.
//
//   - sinceID empty: the newest min(limit, capacity) events
//   - sinceID not in the buffer (evicted or never existed): empty
//   - sinceID found: events strictly after it, at most limit
//
// Results are always oldest first and never nil.
func (s *Store) GetSince(tenantID, sinceID string, limit int) []Event {
	b := s.lookup(tenantID)
	if b == nil {
		return []Event{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if sinceID == "" {
		n := s.capacity
		if limit > 0 && limit < n {
			n = limit
		}
		return b.lastN(n)
	}

	seq, ok := b.index[sinceID]
	if !ok {
		return []Event{}
	}

	n := int(b.next - seq - 1)
	if limit > 0 && limit < n {
		n = limit
	}
	if n <= 0 {
		return []Event{}
	}
	return b.copyRange(seq+1, n)
}

// GetLast returns the newest min(count, size) events, oldest first.
func (s *Store) GetLast(tenantID string, count int) []Event {
	b := s.lookup(tenantID)
	if b == nil {
		return []Event{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastN(count)
}

// Snapshot creates the tenant's buffer if needed and calls fn with the
// newest count events while holding the tenant lock. No append for the
// tenant can interleave with fn, so a subscriber registered inside fn sees
// neither a gap nor a duplicate between the snapshot and the next event
// delivered through the Sink.
//
// fn must not block and must not call back into the Store.
func (s *Store) Snapshot(tenantID string, count int, fn func(events []Event)) {
	b := s.bufferFor(tenantID)

	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.lastN(count))
}

// Count returns the number of buffered events for tenantID.
func (s *Store) Count(tenantID string) int {
	b := s.lookup(tenantID)
	if b == nil {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Clear drops every buffered event for tenantID. The buffer itself is kept
// so existing cursors simply stop matching.
func (s *Store) Clear(tenantID string) {
	b := s.lookup(tenantID)
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring = nil
	b.index = make(map[string]uint64)
	b.next = 0
	b.size = 0
	metrics.SetBufferSize(tenantID, 0)
}

// Stats describes the tenant's buffer. Unknown tenants report zero events.
func (s *Store) Stats(tenantID string) BufferStats {
	return BufferStats{
		TenantID: tenantID,
		Count:    s.Count(tenantID),
		Capacity: s.capacity,
	}
}

// Tenants returns the ids of all tenants with a buffer, sorted.
func (s *Store) Tenants() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.buffers))
	for id := range s.buffers {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
