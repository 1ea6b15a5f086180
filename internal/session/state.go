// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"

	"github.com/edusphere/edusphere-tui/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the phase of the current turn.
type State int32

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Busy reports whether a turn is in flight.
func (s State) Busy() bool {
	return s != StateIdle
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned by SendTurn while another turn is in flight.
	ErrBusy = errors.New("a message is already being answered")

	// ErrEmptyMessage is returned for blank user text.
	ErrEmptyMessage = errors.New("message is empty")
)

// TurnError reports a failed turn. Fallback is the apology appended to the
// conversation.
type TurnError struct {
	Err      error
	Fallback model.Message
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("chat turn failed: %v", e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Observer is notified from the goroutine running SendTurn.
type Observer interface {
	// OnUpdate receives a snapshot after every visible change.
	OnUpdate(messages []model.Message)

	// OnStateChange receives every transition.
	OnStateChange(from, to State)
}

// funcObserver adapts an update callback.
type funcObserver func([]model.Message)

func (f funcObserver) OnUpdate(messages []model.Message) { f(messages) }
func (f funcObserver) OnStateChange(from, to State)      {}
