// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/edusphere/edusphere-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoBaseURL is returned when the client has no server address.
	ErrNoBaseURL = errors.New("server base URL not configured")

	// ErrSessionInvalidated matches every *SessionInvalidatedError.
	ErrSessionInvalidated = errors.New("session invalidated")
)

// NetworkError is returned when no response was obtained.
type NetworkError struct {
	Op  string // "POST /chat/stream"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is returned for a non-2xx response.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message())
}

// Message returns the server's error text. The API answers failures with
// {"error": "..."}; other bodies are shortened, and an empty body falls back
// to the status text.
func (e *HTTPError) Message() string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(e.Body)); text != "" {
		return util.TruncateRunes(util.SingleLine(text), 200)
	}
	return http.StatusText(e.Status)
}

// TimeoutError is returned when an exchange overran its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response within %v", e.Op, e.After)
}

// Timeout marks the error for net.Error style checks.
func (e *TimeoutError) Timeout() bool {
	return true
}

// SessionInvalidatedError is returned when a 401 ended the session.
type SessionInvalidatedError struct {
	Path string
	Err  *HTTPError
}

func (e *SessionInvalidatedError) Error() string {
	return fmt.Sprintf("session invalidated by %s", e.Path)
}

// Is matches ErrSessionInvalidated.
func (e *SessionInvalidatedError) Is(target error) bool {
	return target == ErrSessionInvalidated
}

func (e *SessionInvalidatedError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// =============================================================================
// HELPERS
// =============================================================================

// IsTimeout reports whether err is a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsSessionInvalidated reports whether err ended the session.
func IsSessionInvalidated(err error) bool {
	return errors.Is(err, ErrSessionInvalidated)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// Notice returns the user-facing text for a failed exchange.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTimeout(err):
		return "The request took too long and was aborted. Please try again."
	case IsSessionInvalidated(err):
		return "Your session has expired. Please log in again."
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message()
	}
	return "Something went wrong. Please try again."
}
