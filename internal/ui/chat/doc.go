// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen chat view.
//
// The model owns no conversation state of its own: it renders the snapshots
// a session.Session publishes. Bridge forwards those snapshots, and session
// invalidation events from the transport, into the running tea.Program.
//
// Keys:
//   Enter        Send the message
//   Esc, Ctrl+C  Cancel the reply in progress (Ctrl+C quits when idle)
//   Ctrl+Y       Copy the last reply
//   Ctrl+L       Start a new conversation
//   PgUp, PgDn   Scroll
//   Ctrl+Q       Quit
package chat
