// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/events"
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

// fakeAuthenticator admits tenant/token pairs from a fixed table.
type fakeAuthenticator struct {
	tenants map[string]bool
	users   map[string]*auth.Identity // key: tenant + "/" + token
}

func newFakeAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{
		tenants: map[string]bool{"company_a": true, "company_b": true},
		users: map[string]*auth.Identity{
			"company_a/token-alice": {TenantID: "company_a", UserID: "u-alice", Username: "alice", Role: auth.RoleAdmin},
			"company_a/token-bob":   {TenantID: "company_a", UserID: "u-bob", Username: "bob", Role: auth.RoleUser},
			"company_b/token-carol": {TenantID: "company_b", UserID: "u-carol", Username: "carol", Role: auth.RoleUser},
		},
	}
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, creds auth.Credentials) (*auth.Identity, error) {
	if creds.TenantID == "" || creds.Token == "" {
		return nil, &auth.RejectError{Code: auth.CodeAuthRequired, Message: "tenant id and token are required"}
	}
	if !f.tenants[creds.TenantID] {
		return nil, &auth.RejectError{Code: auth.CodeInvalidTenant, Message: "unknown or inactive tenant"}
	}
	id, ok := f.users[creds.TenantID+"/"+creds.Token]
	if !ok {
		return nil, &auth.RejectError{Code: auth.CodeInvalidToken, Message: "invalid token"}
	}
	return id, nil
}

type testEnv struct {
	server   *httptest.Server
	gateway  *Gateway
	hub      *Hub
	ingestor *events.Ingestor
}

func newTestEnv(t *testing.T, bufferSize int, settings Settings) *testEnv {
	t.Helper()

	hub := NewHub()
	store := events.NewStore(bufferSize, events.WithSink(hub))
	ingestor := events.NewIngestor(store, events.NewValidator(0))
	gw := NewGateway(hub, ingestor, newFakeAuthenticator(), settings)

	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, gateway: gw, hub: hub, ingestor: ingestor}
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http")
}

// dial connects with header credentials. Empty values are not sent.
func (e *testEnv) dial(t *testing.T, tenantID, token string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if tenantID != "" {
		header.Set(auth.HeaderTenantID, tenantID)
	}
	if token != "" {
		header.Set(auth.HeaderUserToken, token)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(e.wsURL(), header)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// join dials and consumes the snapshot frame.
func (e *testEnv) join(t *testing.T, tenantID, token string) (*websocket.Conn, []events.Event) {
	t.Helper()

	conn := e.dial(t, tenantID, token)
	frame := readFrame(t, conn)
	if frame.Type != MessageTypeSnapshot {
		t.Fatalf("Expected snapshot, got %s", frame.Type)
	}
	var snapshot []events.Event
	decodeFrameData(t, frame, &snapshot)
	return conn, snapshot
}

type testFrame struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	var frame testFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("Failed to decode frame %q: %v", data, err)
	}
	return frame
}

// expectSilence asserts that no frame arrives within d.
func expectSilence(t *testing.T, conn *websocket.Conn, d time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no frame, got %s", data)
	}
}

func decodeFrameData(t *testing.T, frame testFrame, v any) {
	t.Helper()
	if err := json.Unmarshal(frame.Data, v); err != nil {
		t.Fatalf("Failed to decode %s data %q: %v", frame.Type, frame.Data, err)
	}
}

func writeFrame(t *testing.T, conn *websocket.Conn, msgType, id string, data any) {
	t.Helper()

	payload := map[string]any{"type": msgType}
	if id != "" {
		payload["id"] = id
	}
	if data != nil {
		payload["data"] = data
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
}

func messagesOf(evs []events.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Message
	}
	return out
}

func assertMessages(t *testing.T, got []events.Event, want ...string) {
	t.Helper()
	gm := messagesOf(got)
	if len(gm) != len(want) {
		t.Fatalf("Expected %v, got %v", want, gm)
	}
	for i := range want {
		if gm[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, gm)
		}
	}
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}
