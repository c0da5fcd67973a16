// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

// Package tenant provides the tenant directory: which tenants exist and
// whether they are active.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefix for BadgerDB storage. Per-tenant data (users, tokens) lives
// under "tenant:<id>:" and is skipped when listing.
const keyPrefix = "tenant:"

// ErrInvalidID is returned for empty or malformed tenant ids.
var ErrInvalidID = errors.New("invalid tenant id")

// ErrNotFound is returned by SetActive for unknown tenants.
var ErrNotFound = errors.New("tenant not found")

// Tenant is an isolated customer boundary.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// Directory is a BadgerDB-backed tenant registry.
type Directory struct {
	db *badger.DB
}

// NewDirectory creates a directory on db.
func NewDirectory(db *badger.DB) *Directory {
	return &Directory{db: db}
}

// ValidID reports whether id can be used as a tenant id: non-empty, at most
// 64 bytes, and free of ':' and whitespace.
func ValidID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	return !strings.ContainsAny(id, ": \t\r\n")
}

func tenantKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// LookupTenant returns the tenant, or (nil, nil) if it does not exist.
func (d *Directory) LookupTenant(ctx context.Context, id string) (*Tenant, error) {
	if !ValidID(id) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t Tenant
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tenantKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

// PutTenant creates or replaces a tenant. CreatedAt is set if zero.
func (d *Directory) PutTenant(ctx context.Context, t *Tenant) error {
	if t == nil || !ValidID(t.ID) {
		return ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Name == "" {
		t.Name = t.ID
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tenant: %w", err)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tenantKey(t.ID), data)
	})
}

// EnsureTenant creates an active tenant if it does not exist yet. It
// reports whether a tenant was created.
func (d *Directory) EnsureTenant(ctx context.Context, id string) (bool, error) {
	existing, err := d.LookupTenant(ctx, id)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := d.PutTenant(ctx, &Tenant{ID: id, IsActive: true}); err != nil {
		return false, err
	}
	return true, nil
}

// SetActive enables or disables a tenant.
func (d *Directory) SetActive(ctx context.Context, id string, active bool) error {
	t, err := d.LookupTenant(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	t.IsActive = active
	return d.PutTenant(ctx, t)
}

// ListTenants returns every tenant sorted by id.
func (d *Directory) ListTenants(ctx context.Context) ([]*Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tenants []*Tenant
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rest := string(item.Key()[len(keyPrefix):])
			if strings.Contains(rest, ":") {
				continue // per-tenant sub-key
			}
			var t Tenant
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return fmt.Errorf("decode tenant %s: %w", rest, err)
			}
			tenants = append(tenants, &t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants, nil
}
