// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User store errors
var (
	// ErrInvalidRole is returned for roles other than admin and user.
	ErrInvalidRole = errors.New("invalid role")

	// ErrTokenRequired is returned when creating a user without a token.
	ErrTokenRequired = errors.New("token is required")

	// ErrUsernameRequired is returned when creating a user without a name.
	ErrUsernameRequired = errors.New("username is required")
)

// User belongs to exactly one tenant.
type User struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// GenerateToken returns a new opaque access token (a random UUID without
// dashes).
func GenerateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HashToken returns the hex SHA-256 digest under which a token is stored.
// Plaintext tokens are never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
