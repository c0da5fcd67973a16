// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/storage"
	"github.com/tomtom215/eventfeed/internal/tenant"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// staticCounter reports a fixed subscriber count per tenant.
type staticCounter map[string]int

func (c staticCounter) ClientCount(tenantID string) int {
	return c[tenantID]
}

// testEnv is a router over an in-memory directory with company_a
// (alice=admin, bob=user), company_b (carol=user) and dormant (inactive).
type testEnv struct {
	db       *badger.DB
	store    *events.Store
	ingestor *events.Ingestor
	handler  *Handler
	router   http.Handler
}

func newTestEnv(t *testing.T, bufferSize int, mw *ChiMiddlewareConfig) *testEnv {
	t.Helper()

	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() {
		if !db.IsClosed() {
			db.Close()
		}
	})

	ctx := context.Background()
	dir := tenant.NewDirectory(db)
	users := auth.NewBadgerUserStore(db)
	for _, tn := range []*tenant.Tenant{
		{ID: "company_a", IsActive: true},
		{ID: "company_b", IsActive: true},
		{ID: "dormant", IsActive: false},
	} {
		if err := dir.PutTenant(ctx, tn); err != nil {
			t.Fatalf("PutTenant(%s): %v", tn.ID, err)
		}
	}
	for _, u := range []struct{ tenant, name, role, token string }{
		{"company_a", "alice", auth.RoleAdmin, "token-alice"},
		{"company_a", "bob", auth.RoleUser, "token-bob"},
		{"company_b", "carol", auth.RoleUser, "token-carol"},
	} {
		if _, _, err := users.CreateUser(ctx, u.tenant, u.name, u.role, u.token); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.name, err)
		}
	}

	if mw == nil {
		mw = DefaultChiMiddlewareConfig()
		mw.RateLimitDisabled = true
	}

	authenticator := auth.NewAuthenticator(dir, users, auth.BreakerConfig{})
	store := events.NewStore(bufferSize)
	ingestor := events.NewIngestor(store, events.NewValidator(0))
	handler := NewHandler(ingestor, staticCounter{"company_a": 2}, DefaultSettings(),
		StorageCheck(db),
		BreakerCheck("auth-lookup", authenticator.BreakerState),
	)
	router := NewRouter(handler, auth.NewMiddleware(authenticator, WriteError), nil, mw)

	return &testEnv{
		db:       db,
		store:    store,
		ingestor: ingestor,
		handler:  handler,
		router:   router.SetupChi(),
	}
}

// do sends a request as tenant/token (either may be empty).
func (e *testEnv) do(t *testing.T, method, target, tenantID, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != "" {
		req.Header.Set(auth.HeaderTenantID, tenantID)
	}
	if token != "" {
		req.Header.Set(auth.HeaderUserToken, token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope is APIResponse with data left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func decodeEvents(t *testing.T, w *httptest.ResponseRecorder) []events.Event {
	t.Helper()
	env := decodeEnvelope(t, w)
	var list []events.Event
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("Failed to decode events %q: %v", env.Data, err)
	}
	return list
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("Expected status %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("Expected success=false")
	}
	if env.Error == nil {
		t.Fatal("Expected error body")
	}
	if env.Error.Code != code {
		t.Errorf("Expected code %s, got %s", code, env.Error.Code)
	}
}

func messages(list []events.Event) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Message
	}
	return out
}
