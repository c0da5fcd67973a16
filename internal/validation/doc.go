// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide. Field names in error
// messages come from the struct's json tag, falling back to its query tag,
// so messages name what the client actually sent.
//
// # Custom Tags
//
//	tenantid   a tenant id accepted by the tenant directory
//
// # Usage
//
//	type ListEventsQuery struct {
//	    SinceID string `query:"sinceId" validate:"omitempty,max=128"`
//	    Limit   int    `query:"limit" validate:"gte=1"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError(events.CodeInvalidLimit)
//	    // write apiErr.Code / apiErr.Message
//	}
package validation
