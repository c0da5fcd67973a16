// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Key layout, all scoped under the tenant:
//
//	tenant:<tid>:user:<uid>        -> User JSON
//	tenant:<tid>:username:<name>   -> uid
//	tenant:<tid>:token:<sha256>    -> uid
func userKey(tenantID, userID string) []byte {
	return []byte("tenant:" + tenantID + ":user:" + userID)
}

func usernameKey(tenantID, username string) []byte {
	return []byte("tenant:" + tenantID + ":username:" + username)
}

func tokenKey(tenantID, token string) []byte {
	return []byte("tenant:" + tenantID + ":token:" + HashToken(token))
}

func userPrefix(tenantID string) []byte {
	return []byte("tenant:" + tenantID + ":user:")
}

// BadgerUserStore implements UserStore using BadgerDB.
type BadgerUserStore struct {
	db *badger.DB
}

// NewBadgerUserStore creates a BadgerDB-backed user store.
func NewBadgerUserStore(db *badger.DB) *BadgerUserStore {
	return &BadgerUserStore{db: db}
}

// FindUserByToken resolves a token within one tenant. It returns (nil, nil)
// when the token is unknown in that tenant.
func (s *BadgerUserStore) FindUserByToken(ctx context.Context, tenantID, token string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tenantID == "" || token == "" {
		return nil, nil
	}

	var user *User
	err := s.db.View(func(txn *badger.Txn) error {
		uid, err := getString(txn, tokenKey(tenantID, token))
		if err != nil {
			return err
		}
		user, err = getUser(txn, tenantID, uid)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by token: %w", err)
	}
	return user, nil
}

// FindUserByUsername returns the user or (nil, nil).
func (s *BadgerUserStore) FindUserByUsername(ctx context.Context, tenantID, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *User
	err := s.db.View(func(txn *badger.Txn) error {
		uid, err := getString(txn, usernameKey(tenantID, username))
		if err != nil {
			return err
		}
		user, err = getUser(txn, tenantID, uid)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

// CreateUser creates a user in tenantID that authenticates with token. It
// is idempotent by username: if the name is taken, the existing user is
// returned with created=false and nothing is written.
func (s *BadgerUserStore) CreateUser(ctx context.Context, tenantID, username, role, token string) (*User, bool, error) {
	if username == "" {
		return nil, false, ErrUsernameRequired
	}
	if token == "" {
		return nil, false, ErrTokenRequired
	}
	if !ValidRole(role) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var (
		user    *User
		created bool
	)
	err := s.db.Update(func(txn *badger.Txn) error {
		uid, err := getString(txn, usernameKey(tenantID, username))
		switch {
		case err == nil:
			user, err = getUser(txn, tenantID, uid)
			return err
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		user = &User{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			Username:  username,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := txn.Set(userKey(tenantID, user.ID), data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(usernameKey(tenantID, username), []byte(user.ID)); err != nil {
			return fmt.Errorf("set username mapping: %w", err)
		}
		if err := txn.Set(tokenKey(tenantID, token), []byte(user.ID)); err != nil {
			return fmt.Errorf("set token mapping: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, created, nil
}

// ListUsers returns every user in tenantID.
func (s *BadgerUserStore) ListUsers(ctx context.Context, tenantID string) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var users []*User
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = userPrefix(tenantID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var u User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			}); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			users = append(users, &u)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func getString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func getUser(txn *badger.Txn, tenantID, userID string) (*User, error) {
	item, err := txn.Get(userKey(tenantID, userID))
	if err != nil {
		return nil, err
	}
	var u User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &u)
	}); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &u, nil
}
