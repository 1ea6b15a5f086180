// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display, and exit codes for edusphere commands.
//
// Handlers always return errors; main displays them once and picks the
// exit code.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/edusphere/edusphere-tui/internal/api"
	"github.com/edusphere/edusphere-tui/internal/auth"
	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/credential"
	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing or expired session
	ExitAuthError = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitInterrupted indicates the user cancelled
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "summary")
	Action  string // Action being performed (e.g., "download")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrUnknownSubcommand creates an error for an unrecognized subcommand.
func ErrUnknownSubcommand(command, sub string, valid ...string) error {
	return &ValidationError{
		Field:   command + " subcommand",
		Value:   sub,
		Reason:  "unknown subcommand",
		Example: fmt.Sprintf("edusphere %s %v", command, valid),
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Describe returns the message shown for err. Service and transport failures
// use the same notices as the chat view.
func Describe(err error) string {
	var verr *ValidationError
	var cerr *CommandError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, auth.ErrNotLoggedIn),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, api.ErrNotPDF),
		errors.Is(err, api.ErrNoRecommendation),
		errors.Is(err, credential.ErrSealed):
		return rootMessage(err)
	case errors.As(err, &cerr) && cerr.Err == nil:
		return cerr.Error()
	}

	var tw *session.TurnError
	if errors.As(err, &tw) {
		err = tw.Err
	}
	var herr *transport.HTTPError
	if transport.IsTimeout(err) || transport.IsSessionInvalidated(err) || errors.As(err, &herr) {
		return transport.Notice(err)
	}
	return err.Error()
}

func rootMessage(err error) string {
	for _, target := range []error{auth.ErrNotLoggedIn, auth.ErrMissingCredentials, api.ErrNotPDF, api.ErrNoRecommendation, credential.ErrSealed} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// DisplayError writes err to w, as JSON when jsonMode is set.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		out := map[string]interface{}{
			"success":    false,
			"error":      Describe(err),
			"detail":     err.Error(),
			"exit_code":  GetExitCode(err),
			"error_type": errorType(err),
		}
		if status := transport.StatusCode(err); status != 0 {
			out["status"] = status
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(out)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), Describe(err))
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "validation_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "network_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitTimeoutError:
		return "timeout_error"
	case ExitInterrupted:
		return "interrupted"
	}
	return "generic_error"
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var verr *ValidationError
	var cfgErrs config.ValidateErrors
	var netErr *transport.NetworkError
	switch {
	case errors.As(err, &verr):
		return ExitUsageError
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	case errors.Is(err, auth.ErrNotLoggedIn),
		errors.Is(err, credential.ErrSealed),
		transport.IsSessionInvalidated(err):
		return ExitAuthError
	case transport.IsTimeout(err):
		return ExitTimeoutError
	case errors.As(err, &netErr):
		return ExitNetworkError
	case errors.Is(err, errInterrupted):
		return ExitInterrupted
	}

	switch transport.StatusCode(err) {
	case 401, 403:
		return ExitAuthError
	case 404:
		return ExitNotFoundError
	case 400, 422:
		return ExitUsageError
	}
	return ExitGeneralError
}

// errInterrupted is returned when the user cancels a running command.
var errInterrupted = errors.New("interrupted")
