// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package auth

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
	"github.com/tomtom215/eventfeed/internal/tenant"
)

// Rejection codes returned to connecting clients.
const (
	CodeAuthRequired  = "AUTH_REQUIRED"
	CodeInvalidTenant = "INVALID_TENANT"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeInternalError = "INTERNAL_ERROR"
)

// TenantDirectory answers "does tenant X exist". A missing tenant is
// (nil, nil), not an error.
type TenantDirectory interface {
	LookupTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error)
}

// UserStore answers "does token T map to a user in tenant X". An unknown
// token is (nil, nil), not an error.
type UserStore interface {
	FindUserByToken(ctx context.Context, tenantID, token string) (*User, error)
}

// Credentials are what a client presents when connecting.
type Credentials struct {
	TenantID string
	Token    string
}

// Identity is bound to a connection or request once admitted. It is never
// re-derived for the lifetime of a connection.
type Identity struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// RejectError is a structured authentication failure.
type RejectError struct {
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return e.Code + ": " + e.Message
}

// AsRejectError unwraps err to a *RejectError if it is one.
func AsRejectError(err error) (*RejectError, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

var (
	errAuthRequired  = &RejectError{Code: CodeAuthRequired, Message: "tenant id and token are required"}
	errInvalidTenant = &RejectError{Code: CodeInvalidTenant, Message: "unknown or inactive tenant"}
	errInvalidToken  = &RejectError{Code: CodeInvalidToken, Message: "invalid token"}
	errInternal      = &RejectError{Code: CodeInternalError, Message: "authentication failed"}
)

// BreakerConfig tunes the circuit breaker around collaborator lookups.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// Authenticator gates connection establishment: presence, tenant, token,
// in that order. Collaborator calls go through a circuit breaker; any
// failure, including an open breaker, rejects with INTERNAL_ERROR.
type Authenticator struct {
	tenants TenantDirectory
	users   UserStore
	breaker *gobreaker.CircuitBreaker[any]
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tenants TenantDirectory, users UserStore, cfg BreakerConfig) *Authenticator {
	return &Authenticator{
		tenants: tenants,
		users:   users,
		breaker: newBreaker("auth-lookup", cfg),
	}
}

// newBreaker mirrors breaker state into metrics and logs.
func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A client that went away is not a collaborator failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.BreakerClosed)
	return gobreaker.NewCircuitBreaker[any](settings)
}

// BreakerState returns the current breaker state name.
func (a *Authenticator) BreakerState() string {
	return a.breaker.State().String()
}

func (a *Authenticator) execute(fn func() (any, error)) (any, error) {
	result, err := a.breaker.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(a.breaker.Name(), "rejected")
	case err != nil:
		metrics.RecordBreakerRequest(a.breaker.Name(), "failure")
	default:
		metrics.RecordBreakerRequest(a.breaker.Name(), "success")
	}
	return result, err
}

// Authenticate admits or rejects a connection attempt. Rejections are
// *RejectError. The token is never logged.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.TenantID == "" || creds.Token == "" {
		return nil, errAuthRequired
	}

	t, err := a.ResolveTenant(ctx, creds.TenantID)
	if err != nil {
		return nil, err
	}

	user, err := a.ResolveUser(ctx, t.ID, creds.Token)
	if err != nil {
		return nil, err
	}

	return &Identity{
		TenantID: t.ID,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// ResolveTenant returns the tenant if it exists and is active, otherwise
// INVALID_TENANT, or INTERNAL_ERROR on lookup failure.
func (a *Authenticator) ResolveTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	if tenantID == "" {
		return nil, errAuthRequired
	}

	result, err := a.execute(func() (any, error) {
		return a.tenants.LookupTenant(ctx, tenantID)
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("tenant_id", tenantID).
			Str("stage", "tenant_lookup").
			Msg("Authentication collaborator failed")
		return nil, errInternal
	}

	t, _ := result.(*tenant.Tenant)
	if t == nil || !t.IsActive {
		return nil, errInvalidTenant
	}
	return t, nil
}

// ResolveUser returns the user that token maps to within tenantID,
// otherwise INVALID_TOKEN, or INTERNAL_ERROR on lookup failure.
func (a *Authenticator) ResolveUser(ctx context.Context, tenantID, token string) (*User, error) {
	if token == "" {
		return nil, errAuthRequired
	}

	result, err := a.execute(func() (any, error) {
		return a.users.FindUserByToken(ctx, tenantID, token)
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("tenant_id", tenantID).
			Str("stage", "token_lookup").
			Msg("Authentication collaborator failed")
		return nil, errInternal
	}

	user, _ := result.(*User)
	if user == nil || user.TenantID != tenantID {
		return nil, errInvalidToken
	}
	return user, nil
}
