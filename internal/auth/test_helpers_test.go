// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package auth

import (
	"context"
	"io"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/tenant"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// createTestDB opens an in-memory BadgerDB closed at test end.
func createTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable logging for tests
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture is a tenant directory and user store with company_a (active,
// alice=admin, bob=user), company_b (active, carol=user) and dormant
// (inactive, dave=user).
type fixture struct {
	dir   *tenant.Directory
	users *BadgerUserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := createTestDB(t)
	f := &fixture{dir: tenant.NewDirectory(db), users: NewBadgerUserStore(db)}
	ctx := context.Background()

	for _, tn := range []*tenant.Tenant{
		{ID: "company_a", IsActive: true},
		{ID: "company_b", IsActive: true},
		{ID: "dormant", IsActive: false},
	} {
		if err := f.dir.PutTenant(ctx, tn); err != nil {
			t.Fatalf("PutTenant(%s): %v", tn.ID, err)
		}
	}
	for _, u := range []struct{ tenant, name, role, token string }{
		{"company_a", "alice", RoleAdmin, "token-alice"},
		{"company_a", "bob", RoleUser, "token-bob"},
		{"company_b", "carol", RoleUser, "token-carol"},
		{"dormant", "dave", RoleUser, "token-dave"},
	} {
		if _, _, err := f.users.CreateUser(ctx, u.tenant, u.name, u.role, u.token); err != nil {
			t.Fatalf("CreateUser(%s): %v", u.name, err)
		}
	}
	return f
}

// failingDirectory always fails.
type failingDirectory struct{ err error }

func (f failingDirectory) LookupTenant(context.Context, string) (*tenant.Tenant, error) {
	return nil, f.err
}

// failingUsers always fails.
type failingUsers struct{ err error }

func (f failingUsers) FindUserByToken(context.Context, string, string) (*User, error) {
	return nil, f.err
}
