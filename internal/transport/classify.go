// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
)

// DefaultDownloadPattern matches file retrieval paths.
const DefaultDownloadPattern = `/download`

// Action is the classification of one exchange.
type Action int

const (
	// ActionPass returns the response or error unchanged.
	ActionPass Action = iota

	// ActionInvalidateSession clears the credential and signals subscribers.
	ActionInvalidateSession

	// ActionTimeout reports a distinguishable timeout.
	ActionTimeout
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionInvalidateSession:
		return "invalidate-session"
	case ActionTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Policy decides what an exchange outcome means for the session.
type Policy struct {
	// DownloadExempt matches paths whose 401s never end the session.
	DownloadExempt *regexp.Regexp
}

// NewPolicy compiles the download exemption pattern. An empty pattern uses
// DefaultDownloadPattern.
func NewPolicy(downloadPattern string) (Policy, error) {
	if downloadPattern == "" {
		downloadPattern = DefaultDownloadPattern
	}
	re, err := regexp.Compile(downloadPattern)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid download pattern %q: %w", downloadPattern, err)
	}
	return Policy{DownloadExempt: re}, nil
}

var defaultPolicy = Policy{DownloadExempt: regexp.MustCompile(DefaultDownloadPattern)}

// Classify applies the default policy.
func Classify(path string, status int, err error) Action {
	return defaultPolicy.Classify(path, status, err)
}

// Classify maps a request path, response status (0 when none) and transport
// error to an Action. Rules are evaluated in order: 401 outside the
// exemption, then timeout, then pass.
func (p Policy) Classify(path string, status int, err error) Action {
	if status == http.StatusUnauthorized && !p.exempt(path) {
		return ActionInvalidateSession
	}
	if isTimeoutErr(err) {
		return ActionTimeout
	}
	return ActionPass
}

func (p Policy) exempt(path string) bool {
	return p.DownloadExempt != nil && p.DownloadExempt.MatchString(path)
}

func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
