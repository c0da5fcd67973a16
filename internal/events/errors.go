// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

import "errors"

// Validation codes returned to clients.
const (
	CodeMessageRequired = "MESSAGE_REQUIRED"
	CodeMessageEmpty    = "MESSAGE_EMPTY"
	CodeMessageTooLarge = "MESSAGE_TOO_LARGE"
	CodeInvalidLimit    = "INVALID_LIMIT"
)

// ValidationError is a caller error. It is surfaced to the client as-is and
// is never logged as a system fault.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// AsValidationError unwraps err to a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
