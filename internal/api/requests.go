// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/validation"
)

// DefaultMaxBodyBytes bounds POST bodies. It leaves room for a maximum
// length message of four-byte characters plus JSON escaping.
const DefaultMaxBodyBytes int64 = 64 * 1024

// requestError is a client error produced while parsing a request.
type requestError struct {
	status  int
	code    string
	message string
	details any
}

func (e *requestError) write(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).ErrorWithDetails(e.status, e.code, e.message, e.details)
}

// ListEventsQuery holds the parsed query of GET /api/v1/events.
type ListEventsQuery struct {
	SinceID string `query:"sinceId"`
	Limit   int    `query:"limit" validate:"gte=1"`
}

// parseListEventsQuery reads sinceId and limit. A missing or empty limit
// selects defaultLimit; the result is capped at maxLimit.
//
// The whole limit value must be an integer: trailing characters ("5abc")
// and decimals ("1.5") are INVALID_LIMIT rather than read as their numeric
// prefix.
func parseListEventsQuery(r *http.Request, defaultLimit, maxLimit int) (ListEventsQuery, *requestError) {
	q := r.URL.Query()
	query := ListEventsQuery{SinceID: q.Get("sinceId"), Limit: defaultLimit}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, &requestError{
				status:  http.StatusBadRequest,
				code:    events.CodeInvalidLimit,
				message: "limit must be a positive integer",
				details: map[string]any{"field": "limit", "value": raw},
			}
		}
		query.Limit = limit
	}

	if verr := validation.ValidateStruct(&query); verr != nil {
		apiErr := verr.ToAPIError(events.CodeInvalidLimit)
		return query, &requestError{
			status:  http.StatusBadRequest,
			code:    apiErr.Code,
			message: apiErr.Message,
			details: apiErr.Details,
		}
	}

	query.Limit = min(query.Limit, maxLimit)
	return query, nil
}

// PostEventRequest is the body of POST /api/v1/events. Message stays
// untyped so the ingest validator decides between MESSAGE_REQUIRED and the
// other codes.
type PostEventRequest struct {
	Message any `json:"message"`
}

// decodePostEvent reads at most maxBytes of body. An empty body decodes to
// an empty request.
func decodePostEvent(w http.ResponseWriter, r *http.Request, maxBytes int64) (PostEventRequest, *requestError) {
	var req PostEventRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, &requestError{
				status:  http.StatusRequestEntityTooLarge,
				code:    events.CodeMessageTooLarge,
				message: "request body too large",
			}
		}
		return req, &requestError{
			status:  http.StatusBadRequest,
			code:    ErrCodeInvalidBody,
			message: "failed to read request body",
		}
	}
	if len(body) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, &requestError{
			status:  http.StatusBadRequest,
			code:    ErrCodeInvalidBody,
			message: "request body must be a JSON object",
		}
	}
	return req, nil
}

// validationStatus maps ingest validation codes onto HTTP status codes.
func validationStatus(code string) int {
	switch code {
	case events.CodeMessageTooLarge:
		return http.StatusRequestEntityTooLarge
	case events.CodeInvalidLimit:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
