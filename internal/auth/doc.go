// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package auth admits connections and requests to exactly one tenant.

Key Components:

  - Authenticator: presence, tenant and token checks, in that order, with
    lookups guarded by a sony/gobreaker circuit breaker
  - BadgerUserStore: per-tenant users and SHA-256 hashed opaque tokens
  - Middleware: chi-compatible RequireTenant, RequireUser and RequireAdmin

Rejection Codes:

	AUTH_REQUIRED    tenant id or token missing
	INVALID_TENANT   tenant unknown or inactive
	INVALID_TOKEN    token does not resolve to a user in that tenant
	INTERNAL_ERROR   a lookup failed or the breaker is open

The HTTP middleware maps these onto TENANT_ID_MISSING (400),
TENANT_INVALID (404), USER_TOKEN_MISSING (401), INVALID_TOKEN (401) and
FORBIDDEN (403) for admin-only routes.

Usage Example:

	users := auth.NewBadgerUserStore(db)
	a := auth.NewAuthenticator(tenant.NewDirectory(db), users, auth.BreakerConfig{
	    FailureThreshold: 5,
	    Timeout:          30 * time.Second,
	})

	id, err := a.Authenticate(ctx, auth.Credentials{TenantID: "company_a", Token: tok})
	if re, ok := auth.AsRejectError(err); ok {
	    // re.Code is one of the codes above
	}

Tokens are never logged and never stored in plaintext.
*/
package auth
