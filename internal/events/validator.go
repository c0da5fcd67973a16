// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxMessageLength is the maximum trimmed message length in characters.
const DefaultMaxMessageLength = 2048

// Validator normalizes inbound event messages before they reach the Store.
type Validator struct {
	maxLength int
}

// NewValidator returns a Validator enforcing maxLength characters. A
// non-positive value selects DefaultMaxMessageLength.
func NewValidator(maxLength int) *Validator {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &Validator{maxLength: maxLength}
}

// MaxLength returns the configured limit.
func (v *Validator) MaxLength() int {
	return v.maxLength
}

// Validate returns the trimmed message, which is exactly what should be
// stored, or a *ValidationError:
//
//   - MESSAGE_REQUIRED: raw is missing or not a string
//   - MESSAGE_EMPTY: nothing left after trimming whitespace
//   - MESSAGE_TOO_LARGE: more than maxLength characters after trimming
//
// Length is counted in Unicode code points.
func (v *Validator) Validate(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Code: CodeMessageRequired, Message: "message is required and must be a string"}
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &ValidationError{Code: CodeMessageEmpty, Message: "message must not be empty"}
	}

	if n := utf8.RuneCountInString(trimmed); n > v.maxLength {
		return "", &ValidationError{
			Code:    CodeMessageTooLarge,
			Message: fmt.Sprintf("message is %d characters, maximum is %d", n, v.maxLength),
		}
	}

	return trimmed, nil
}
