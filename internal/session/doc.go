// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs conversation turns against the streaming chat
// endpoint.
//
// A Session owns one Conversation and moves through
//
//	Idle -> Sending -> Streaming -> Idle     (success)
//	Idle -> Sending -> Failed    -> Idle     (error)
//
// The state machine is its own reentrancy guard: a SendTurn issued while a
// turn is in flight fails with ErrBusy and leaves the open message alone.
//
// # Key Types
//
//   - Session: the state machine and read loop
//   - Observer: receives conversation snapshots and state changes
//   - TurnError: a failed turn, carrying the fallback message that was appended
//
// # Usage
//
//	s := session.New(client, session.DefaultConfig())
//	s.OnUpdate(func(msgs []model.Message) { render(msgs) })
//	msgs, err := s.SendTurn(ctx, "Which electives fit my schedule?")
package session
