// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/validation"
)

// ErrInvalidEntry wraps validation failures of a seed entry.
var ErrInvalidEntry = errors.New("invalid seed entry")

// Entry is one user of a seed file.
type Entry struct {
	Username string `json:"username" validate:"required,max=64"`
	Tenant   string `json:"tenant" validate:"required,tenantid"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
	Token    string `json:"token" validate:"omitempty,min=8"`
}

// File is a seed file keyed by an arbitrary label per user.
type File map[string]Entry

// TenantEnsurer is satisfied by *tenant.Directory.
type TenantEnsurer interface {
	EnsureTenant(ctx context.Context, id string) (bool, error)
}

// UserCreator is satisfied by *auth.BadgerUserStore.
type UserCreator interface {
	CreateUser(ctx context.Context, tenantID, username, role, token string) (*auth.User, bool, error)
}

// Result summarizes a seeding run.
type Result struct {
	TenantsCreated  int
	TenantsExisting int
	UsersCreated    int
	UsersExisting   int

	// Generated holds tokens created for entries without one, keyed by
	// "tenant/username". They are never logged.
	Generated map[string]string
}

// LoadFile reads and decodes a seed file. An empty path yields an empty
// File.
func LoadFile(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	if f == nil {
		f = File{}
	}
	return f, nil
}

// Validate checks every entry and returns the first failure in key order.
func (f File) Validate() error {
	for _, key := range f.keys() {
		entry := f[key]
		if verr := validation.ValidateStruct(&entry); verr != nil {
			return fmt.Errorf("%w %q: %s", ErrInvalidEntry, key, verr.Error())
		}
	}
	return nil
}

func (f File) keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Seeder creates tenants and users. It is idempotent: existing tenants and
// usernames are left untouched.
type Seeder struct {
	tenants TenantEnsurer
	users   UserCreator
}

// NewSeeder creates a Seeder.
func NewSeeder(tenants TenantEnsurer, users UserCreator) *Seeder {
	return &Seeder{tenants: tenants, users: users}
}

// Apply ensures tenantIDs and every tenant and user named in f exist. The
// file is validated before anything is written. Entries without a token
// get a generated one.
func (s *Seeder) Apply(ctx context.Context, f File, tenantIDs []string) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Generated: make(map[string]string)}
	seen := make(map[string]bool)
	ensure := func(id string) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		created, err := s.tenants.EnsureTenant(ctx, id)
		if err != nil {
			return fmt.Errorf("ensure tenant %s: %w", id, err)
		}
		if created {
			result.TenantsCreated++
			logging.Info().Str("tenant_id", id).Msg("Seeded tenant")
		} else {
			result.TenantsExisting++
		}
		return nil
	}

	for _, id := range tenantIDs {
		if id == "" {
			continue
		}
		if verr := validation.ValidateStruct(&struct {
			Tenant string `json:"tenant" validate:"tenantid"`
		}{id}); verr != nil {
			return nil, fmt.Errorf("%w: tenant %q: %s", ErrInvalidEntry, id, verr.Error())
		}
		if err := ensure(id); err != nil {
			return nil, err
		}
	}

	for _, key := range f.keys() {
		entry := f[key]
		if err := ensure(entry.Tenant); err != nil {
			return nil, err
		}
		token := entry.Token
		if token == "" {
			token = auth.GenerateToken()
		}
		user, created, err := s.users.CreateUser(ctx, entry.Tenant, entry.Username, entry.Role, token)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", entry.Username, err)
		}
		if !created {
			result.UsersExisting++
			logging.Debug().Str("tenant_id", entry.Tenant).Str("username", entry.Username).
				Msg("Seed user already exists, skipping")
			continue
		}
		result.UsersCreated++
		ev := logging.Info().Str("tenant_id", entry.Tenant).Str("username", user.Username).
			Str("role", user.Role).Str("user_id", user.ID)
		if entry.Token == "" {
			result.Generated[entry.Tenant+"/"+entry.Username] = token
			ev = ev.Bool("generated_token", true)
		}
		ev.Msg("Seeded user")
	}

	logging.Info().
		Int("tenants_created", result.TenantsCreated).
		Int("tenants_existing", result.TenantsExisting).
		Int("users_created", result.UsersCreated).
		Int("users_existing", result.UsersExisting).
		Msg("Seeding completed")
	return result, nil
}
