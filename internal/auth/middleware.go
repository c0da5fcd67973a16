// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package auth

import (
	"context"
	"net/http"

	"github.com/tomtom215/eventfeed/internal/tenant"
)

// Request headers carrying credentials.
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserToken = "X-User-Token"
)

// HTTP-only error codes.
const (
	CodeTenantIDMissing  = "TENANT_ID_MISSING"
	CodeTenantInvalid    = "TENANT_INVALID"
	CodeUserTokenMissing = "USER_TOKEN_MISSING"
	CodeForbidden        = "FORBIDDEN"
)

type contextKey string

const (
	tenantContextKey   contextKey = "tenant"
	identityContextKey contextKey = "identity"
)

// ContextWithTenant stores the resolved tenant.
func ContextWithTenant(ctx context.Context, t *tenant.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, t)
}

// TenantFromContext returns the tenant set by RequireTenant.
func TenantFromContext(ctx context.Context) (*tenant.Tenant, bool) {
	t, ok := ctx.Value(tenantContextKey).(*tenant.Tenant)
	return t, ok && t != nil
}

// ContextWithIdentity stores the authenticated identity.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity set by RequireUser.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok && id != nil
}

// ErrorWriter renders an error response. The API package supplies one that
// writes its standard envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware resolves the tenant and user for HTTP requests from the
// X-Tenant-ID and X-User-Token headers.
type Middleware struct {
	auth       *Authenticator
	writeError ErrorWriter
}

// NewMiddleware creates HTTP auth middleware.
func NewMiddleware(a *Authenticator, writeError ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
			http.Error(w, code, status)
		}
	}
	return &Middleware{auth: a, writeError: writeError}
}

// RequireTenant rejects requests without a known, active tenant:
// 400 TENANT_ID_MISSING, 404 TENANT_INVALID, 500 INTERNAL_ERROR.
func (m *Middleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(HeaderTenantID)
		if tenantID == "" {
			m.writeError(w, r, http.StatusBadRequest, CodeTenantIDMissing, "X-Tenant-ID header is required")
			return
		}

		t, err := m.auth.ResolveTenant(r.Context(), tenantID)
		if err != nil {
			if re, ok := AsRejectError(err); ok && re.Code == CodeInvalidTenant {
				m.writeError(w, r, http.StatusNotFound, CodeTenantInvalid, "Unknown or inactive tenant")
				return
			}
			m.writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to resolve tenant")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithTenant(r.Context(), t)))
	})
}

// RequireUser must run after RequireTenant. It rejects requests without a
// valid token for that tenant: 401 USER_TOKEN_MISSING, 401 INVALID_TOKEN,
// 500 INTERNAL_ERROR.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, ok := TenantFromContext(r.Context())
		if !ok {
			m.writeError(w, r, http.StatusBadRequest, CodeTenantIDMissing, "X-Tenant-ID header is required")
			return
		}

		token := r.Header.Get(HeaderUserToken)
		if token == "" {
			m.writeError(w, r, http.StatusUnauthorized, CodeUserTokenMissing, "X-User-Token header is required")
			return
		}

		user, err := m.auth.ResolveUser(r.Context(), t.ID, token)
		if err != nil {
			if re, ok := AsRejectError(err); ok && re.Code == CodeInvalidToken {
				m.writeError(w, r, http.StatusUnauthorized, CodeInvalidToken, "Invalid token")
				return
			}
			m.writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to resolve user")
			return
		}

		id := &Identity{TenantID: t.ID, UserID: user.ID, Username: user.Username, Role: user.Role}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}

// RequireAdmin must run after RequireUser. Non-admins get 403 FORBIDDEN.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok || !id.IsAdmin() {
			m.writeError(w, r, http.StatusForbidden, CodeForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
