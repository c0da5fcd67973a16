// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/eventfeed/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// recordingSink collects published events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingSink) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func messages(evs []Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Message
	}
	return out
}

func assertMessages(t *testing.T, got []Event, want ...string) {
	t.Helper()
	gm := messages(got)
	if len(gm) != len(want) {
		t.Fatalf("Expected %v, got %v", want, gm)
	}
	for i := range want {
		if gm[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, gm)
		}
	}
}

// appendAll appends each message to tenant and returns the created events.
func appendAll(s *Store, tenant string, msgs ...string) []Event {
	out := make([]Event, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.Append(tenant, m, ""))
	}
	return out
}

func TestNewStore_DefaultCapacity(t *testing.T) {
	if got := NewStore(0).Capacity(); got != DefaultBufferSize {
		t.Errorf("Expected default capacity %d, got %d", DefaultBufferSize, got)
	}
	if got := NewStore(-5).Capacity(); got != DefaultBufferSize {
		t.Errorf("Expected default capacity %d, got %d", DefaultBufferSize, got)
	}
	if got := NewStore(3).Capacity(); got != 3 {
		t.Errorf("Expected capacity 3, got %d", got)
	}
}

func TestStore_Append(t *testing.T) {
	s := NewStore(10)
	ev := s.Append("company_a", "  hello  ", "user-1")

	if ev.ID == "" {
		t.Error("Expected an id")
	}
	if ev.TenantID != "company_a" {
		t.Errorf("Expected tenant company_a, got %q", ev.TenantID)
	}
	if ev.Message != "hello" {
		t.Errorf("Expected trimmed message, got %q", ev.Message)
	}
	if ev.AuthorID != "user-1" {
		t.Errorf("Expected author user-1, got %q", ev.AuthorID)
	}
	if _, err := time.Parse(TimestampFormat, ev.Timestamp); err != nil {
		t.Errorf("Timestamp %q not in %s: %v", ev.Timestamp, TimestampFormat, err)
	}
	if s.Count("company_a") != 1 {
		t.Errorf("Expected count 1, got %d", s.Count("company_a"))
	}
}

func TestStore_EvictionScenario(t *testing.T) {
	s := NewStore(3)
	appendAll(s, "company_a", "E1", "E2", "E3", "E4", "E5")

	assertMessages(t, s.GetLast("company_a", 10), "E3", "E4", "E5")

	if got := s.Count("company_a"); got != 3 {
		t.Errorf("Expected count 3, got %d", got)
	}
}

func TestStore_GetSinceScenario(t *testing.T) {
	s := NewStore(3)
	evs := appendAll(s, "company_a", "E1", "E2", "E3", "E4", "E5")
	e3 := evs[2]

	assertMessages(t, s.GetSince("company_a", e3.ID, 0), "E4", "E5")
	assertMessages(t, s.GetSince("company_a", e3.ID, 1), "E4")
}

func TestStore_GetSince(t *testing.T) {
	s := NewStore(5)
	evs := appendAll(s, "t", "a", "b", "c", "d")

	tests := []struct {
		name  string
		since string
		limit int
		want  []string
	}{
		{"no cursor no limit", "", 0, []string{"a", "b", "c", "d"}},
		{"no cursor limit 2", "", 2, []string{"c", "d"}},
		{"no cursor limit above size", "", 50, []string{"a", "b", "c", "d"}},
		{"first cursor", evs[0].ID, 0, []string{"b", "c", "d"}},
		{"first cursor limit 2", evs[0].ID, 2, []string{"b", "c"}},
		{"newest cursor", evs[3].ID, 0, []string{}},
		{"unknown cursor", "never-existed", 0, []string{}},
		{"unknown cursor with limit", "never-existed", 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.GetSince("t", tt.since, tt.limit)
			if got == nil {
				t.Fatal("Expected non-nil slice")
			}
			assertMessages(t, got, tt.want...)
		})
	}
}

func TestStore_GetSince_EvictedCursor(t *testing.T) {
	s := NewStore(3)
	evs := appendAll(s, "t", "E1", "E2", "E3", "E4", "E5")

	for _, ev := range evs[:2] {
		if got := s.GetSince("t", ev.ID, 0); len(got) != 0 {
			t.Errorf("Expected empty result for evicted cursor %s, got %v", ev.Message, messages(got))
		}
	}
}

func TestStore_GetSince_NoCursorCappedAtCapacity(t *testing.T) {
	s := NewStore(3)
	appendAll(s, "t", "1", "2", "3", "4")
	assertMessages(t, s.GetSince("t", "", 100), "2", "3", "4")
}

func TestStore_EvictedUnreachable(t *testing.T) {
	const capacity = 4
	s := NewStore(capacity)
	k := 11
	evs := make([]Event, 0, k)
	for i := 0; i < k; i++ {
		evs = append(evs, s.Append("t", fmt.Sprintf("m%d", i), ""))
	}

	last := s.GetLast("t", capacity)
	for i, ev := range last {
		if ev.ID != evs[k-capacity+i].ID {
			t.Errorf("GetLast[%d] = %s, want %s", i, ev.Message, evs[k-capacity+i].Message)
		}
	}

	reachable := make(map[string]bool)
	for _, ev := range s.GetSince("t", "", 0) {
		reachable[ev.ID] = true
	}
	for _, ev := range evs[:k-capacity] {
		if reachable[ev.ID] {
			t.Errorf("Evicted event %s still reachable", ev.Message)
		}
	}
}

func TestStore_GetSince_AfterWrap(t *testing.T) {
	s := NewStore(3)
	evs := appendAll(s, "t", "a", "b", "c", "d", "e", "f", "g")
	// live: e f g
	assertMessages(t, s.GetSince("t", evs[4].ID, 0), "f", "g")
	assertMessages(t, s.GetSince("t", evs[5].ID, 0), "g")
	assertMessages(t, s.GetLast("t", 2), "f", "g")
}

func TestStore_UnknownTenant(t *testing.T) {
	s := NewStore(3)

	if got := s.GetLast("nobody", 10); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
	if got := s.GetSince("nobody", "", 10); len(got) != 0 {
		t.Errorf("Expected empty, got %v", got)
	}
	if got := s.Count("nobody"); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	s.Clear("nobody")

	if tenants := s.Tenants(); len(tenants) != 0 {
		t.Errorf("Reads must not create buffers, got tenants %v", tenants)
	}
}

func TestStore_TenantIsolation(t *testing.T) {
	s := NewStore(5)
	a := s.Append("company_a", "for a", "")
	s.Append("company_b", "for b", "")

	for _, ev := range s.GetSince("company_b", "", 0) {
		if ev.TenantID != "company_b" {
			t.Errorf("company_b read returned event for %s", ev.TenantID)
		}
	}
	if got := s.GetSince("company_b", a.ID, 0); len(got) != 0 {
		t.Errorf("Cursor from company_a must not match in company_b, got %v", messages(got))
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(3)
	evs := appendAll(s, "t", "a", "b")
	s.Clear("t")

	if got := s.Count("t"); got != 0 {
		t.Errorf("Expected 0 after clear, got %d", got)
	}
	if got := s.GetSince("t", evs[0].ID, 0); len(got) != 0 {
		t.Errorf("Old cursor should not match after clear, got %v", messages(got))
	}

	appendAll(s, "t", "c", "d", "e", "f")
	assertMessages(t, s.GetLast("t", 10), "d", "e", "f")
}

func TestStore_SinkOrder(t *testing.T) {
	sink := &recordingSink{}
	s := NewStore(2, WithSink(sink))
	evs := appendAll(s, "t", "1", "2", "3")

	got := sink.all()
	if len(got) != len(evs) {
		t.Fatalf("Expected %d published events, got %d", len(evs), len(got))
	}
	for i := range evs {
		if got[i].ID != evs[i].ID {
			t.Errorf("Sink event %d = %s, want %s", i, got[i].Message, evs[i].Message)
		}
	}
}

func TestStore_Sinks_FanOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	var fnCount int
	s := NewStore(5, WithSink(Sinks{a, nil, b, SinkFunc(func(Event) { fnCount++ })}))
	s.Append("t", "x", "")

	if len(a.all()) != 1 || len(b.all()) != 1 || fnCount != 1 {
		t.Errorf("Expected every sink to receive 1 event, got %d/%d/%d", len(a.all()), len(b.all()), fnCount)
	}
}

func TestStore_MonotonicTimestamps(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Hour), base.Add(time.Second)}
	var i int
	s := NewStore(5, WithClock(func() time.Time {
		now := times[i]
		i++
		return now
	}))

	evs := appendAll(s, "t", "a", "b", "c")
	if evs[0].Timestamp != "2026-01-02T15:04:05.000Z" {
		t.Errorf("Unexpected timestamp format %q", evs[0].Timestamp)
	}
	if evs[1].Timestamp != evs[0].Timestamp {
		t.Errorf("Clock went backwards: expected %q clamped, got %q", evs[0].Timestamp, evs[1].Timestamp)
	}
	if evs[2].Timestamp != "2026-01-02T15:04:06.000Z" {
		t.Errorf("Expected 15:04:06.000Z, got %q", evs[2].Timestamp)
	}
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore(3)

	var called bool
	s.Snapshot("fresh", 10, func(evs []Event) {
		called = true
		if len(evs) != 0 {
			t.Errorf("Expected empty snapshot, got %v", messages(evs))
		}
	})
	if !called {
		t.Fatal("Snapshot callback not invoked")
	}
	if tenants := s.Tenants(); len(tenants) != 1 || tenants[0] != "fresh" {
		t.Errorf("Snapshot should create the buffer, got %v", tenants)
	}

	appendAll(s, "fresh", "a", "b", "c", "d")
	s.Snapshot("fresh", 2, func(evs []Event) {
		assertMessages(t, evs, "c", "d")
	})
}

func TestStore_SnapshotExcludesConcurrentAppends(t *testing.T) {
	// A subscriber registered inside Snapshot must see every later event
	// exactly once via the sink and never an event already in its snapshot.
	var mu sync.Mutex
	subscribed := false
	var live []Event
	sink := SinkFunc(func(e Event) {
		mu.Lock()
		if subscribed {
			live = append(live, e)
		}
		mu.Unlock()
	})
	s := NewStore(1000, WithSink(sink))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Append("t", fmt.Sprintf("m%d", i), "")
		}
	}()

	time.Sleep(time.Millisecond)
	var snap []Event
	s.Snapshot("t", 1000, func(evs []Event) {
		snap = evs
		mu.Lock()
		subscribed = true
		mu.Unlock()
	})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(snap)+len(live) != 200 {
		t.Fatalf("Expected snapshot+live = 200, got %d+%d", len(snap), len(live))
	}
	seen := make(map[string]bool)
	for _, e := range append(append([]Event(nil), snap...), live...) {
		if seen[e.ID] {
			t.Fatalf("Duplicate event %s across snapshot and live", e.Message)
		}
		seen[e.ID] = true
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	const (
		tenants   = 4
		perTenant = 250
		capacity  = 100
	)
	s := NewStore(capacity)

	var wg sync.WaitGroup
	for ti := 0; ti < tenants; ti++ {
		for w := 0; w < 5; w++ {
			wg.Add(1)
			go func(tenant string) {
				defer wg.Done()
				for i := 0; i < perTenant/5; i++ {
					s.Append(tenant, "m", "")
					s.GetLast(tenant, 10)
				}
			}(fmt.Sprintf("tenant-%d", ti))
		}
	}
	wg.Wait()

	for ti := 0; ti < tenants; ti++ {
		tenant := fmt.Sprintf("tenant-%d", ti)
		evs := s.GetSince(tenant, "", 0)
		if len(evs) != capacity {
			t.Errorf("%s: expected %d events, got %d", tenant, capacity, len(evs))
		}
		ids := make(map[string]bool, len(evs))
		for _, e := range evs {
			if e.TenantID != tenant {
				t.Errorf("%s: found event for %s", tenant, e.TenantID)
			}
			if ids[e.ID] {
				t.Errorf("%s: duplicate id %s", tenant, e.ID)
			}
			ids[e.ID] = true
		}
	}
	if got := len(s.Tenants()); got != tenants {
		t.Errorf("Expected %d buffers, got %d", tenants, got)
	}
}

func TestStore_Stats(t *testing.T) {
	s := NewStore(3)
	appendAll(s, "t", "a", "b", "c", "d")

	st := s.Stats("t")
	if st.TenantID != "t" || st.Count != 3 || st.Capacity != 3 {
		t.Errorf("Unexpected stats %+v", st)
	}
	if st := s.Stats("other"); st.Count != 0 || st.Capacity != 3 {
		t.Errorf("Unexpected stats for unknown tenant %+v", st)
	}
}

func TestStore_TenantsSorted(t *testing.T) {
	s := NewStore(3)
	s.Append("zeta", "x", "")
	s.Append("alpha", "x", "")
	s.Append("mid", "x", "")

	got := s.Tenants()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}
