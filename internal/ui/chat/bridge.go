// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards session snapshots and invalidation events to p. The event
// goroutine exits when events is closed.
func Bridge(p Sender, s *session.Session, events <-chan transport.SessionEvent) {
	s.OnUpdate(func(messages []model.Message) {
		p.Send(SessionUpdateMsg{Messages: messages})
	})
	go func() {
		for ev := range events {
			p.Send(SessionExpiredMsg{Path: ev.Path})
		}
	}()
}

// sendTurn runs one turn off the UI goroutine.
func sendTurn(ctx context.Context, s *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.SendTurn(ctx, text)
		return TurnDoneMsg{Err: err}
	}
}
