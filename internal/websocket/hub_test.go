// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// createTestClient creates a connectionless client with the given queue size.
func createTestClient(tenantID string, queue int) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		identity: &auth.Identity{TenantID: tenantID, UserID: "u-" + tenantID},
		send:     make(chan []byte, queue),
	}
}

func drain(c *Client) int {
	n := 0
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

func TestHub_JoinQueuesSnapshot(t *testing.T) {
	hub := NewHub()
	c := createTestClient("company_a", 4)

	if !hub.join(c, []events.Event{{ID: "e1", TenantID: "company_a", Message: "m"}}) {
		t.Fatal("Expected join to succeed")
	}
	if got := drain(c); got != 1 {
		t.Errorf("Expected 1 queued frame, got %d", got)
	}
	if got := hub.ClientCount("company_a"); got != 1 {
		t.Errorf("Expected 1 client, got %d", got)
	}
}

func TestHub_PublishRoutesByTenant(t *testing.T) {
	hub := NewHub()
	a1 := createTestClient("company_a", 8)
	a2 := createTestClient("company_a", 8)
	b := createTestClient("company_b", 8)
	for _, c := range []*Client{a1, a2, b} {
		hub.join(c, nil)
		drain(c)
	}

	hub.Publish(events.Event{ID: "e1", TenantID: "company_a", Message: "hi"})

	if got := drain(a1); got != 1 {
		t.Errorf("Expected a1 to receive 1 frame, got %d", got)
	}
	if got := drain(a2); got != 1 {
		t.Errorf("Expected a2 to receive 1 frame, got %d", got)
	}
	if got := drain(b); got != 0 {
		t.Errorf("Expected b to receive nothing, got %d", got)
	}
}

func TestHub_PublishWithEmptyRoom(t *testing.T) {
	hub := NewHub()
	hub.Publish(events.Event{ID: "e1", TenantID: "nobody"})

	if got := hub.TotalClients(); got != 0 {
		t.Errorf("Expected 0 clients, got %d", got)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub()
	slow := createTestClient("company_a", 1)
	fast := createTestClient("company_a", 16)

	hub.join(slow, nil) // fills slow's queue
	hub.join(fast, nil)
	drain(fast)

	before := testutil.ToFloat64(metrics.WSClientsDropped)

	hub.Publish(events.Event{ID: "e1", TenantID: "company_a"})
	hub.Publish(events.Event{ID: "e2", TenantID: "company_a"})

	if !slow.isClosed() {
		t.Error("Expected slow client to be closed")
	}
	if got := hub.ClientCount("company_a"); got != 1 {
		t.Errorf("Expected 1 remaining client, got %d", got)
	}
	if got := drain(fast); got != 2 {
		t.Errorf("Expected fast client to receive 2 frames, got %d", got)
	}
	if got := testutil.ToFloat64(metrics.WSClientsDropped) - before; got != 1 {
		t.Errorf("Expected 1 drop, got %v", got)
	}
}

func TestHub_LeaveIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := createTestClient("company_a", 4)
	hub.join(c, nil)

	if !hub.leave(c) {
		t.Error("Expected first leave to report membership")
	}
	if hub.leave(c) {
		t.Error("Expected second leave to be a no-op")
	}
	if got := hub.TotalClients(); got != 0 {
		t.Errorf("Expected 0 clients, got %d", got)
	}
}

func TestHub_ClosedClientIgnoresEnqueue(t *testing.T) {
	c := createTestClient("company_a", 4)
	c.close()
	c.close()

	if c.enqueue([]byte("x")) {
		t.Error("Expected enqueue on closed client to fail")
	}
}

func TestHub_RunWithContextClosesClients(t *testing.T) {
	hub := NewHub()
	a := createTestClient("company_a", 4)
	b := createTestClient("company_b", 4)
	hub.join(a, nil)
	hub.join(b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithContext did not return")
	}

	if !a.isClosed() || !b.isClosed() {
		t.Error("Expected all clients closed")
	}
	if got := hub.TotalClients(); got != 0 {
		t.Errorf("Expected 0 clients, got %d", got)
	}
	if hub.join(createTestClient("company_a", 4), nil) {
		t.Error("Expected join after shutdown to fail")
	}
}

func TestHub_ShutdownClosesLiveConnections(t *testing.T) {
	env := newTestEnv(t, 500, DefaultSettings())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- env.hub.RunWithContext(ctx) }()

	conn, _ := env.join(t, "company_a", "token-alice")

	cancel()
	<-errCh

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("Expected normal close, got %v", err)
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("Expected %s, got %s", ShutdownReasonContextCanceled, got)
	}

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("Expected %s, got %s", ShutdownReasonContextDeadline, got)
	}
}
