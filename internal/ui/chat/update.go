// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/edusphere/edusphere-tui/internal/export"
	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/transport"
	"github.com/edusphere/edusphere-tui/internal/ui/styles"
)

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionUpdateMsg:
		m.messages = msg.Messages
		m.refresh()
		return m, nil

	case TurnDoneMsg:
		return m.finishTurn(msg.Err), nil

	case SessionExpiredMsg:
		m.expired = true
		m.setNotice(noticeError, "Your session has expired. Run 'edusphere login' and start the chat again.")
		return m, nil

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.theme = styles.NewTheme(msg.Config.UI.Theme)
			m.markdown = msg.Config.UI.Markdown
			m.wordWrap = msg.Config.UI.WordWrap
			m.applyTheme()
			m.refresh()
			m.setNotice(noticeInfo, "Configuration reloaded.")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelTurn()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Interrupt):
		if m.busy {
			m.cancelTurn()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.busy {
			m.cancelTurn()
		} else {
			m.showHelp = false
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyLastReply()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.clearConversation()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn with the input text.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if fields := strings.Fields(text); len(fields) > 0 && strings.EqualFold(fields[0], "/export") {
		m.input.Reset()
		m.exportConversation(fields[1:])
		return m, nil
	}

	switch strings.ToLower(text) {
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	case "/clear", "/new":
		m.input.Reset()
		m.clearConversation()
		return m, nil
	case "/copy":
		m.input.Reset()
		m.copyLastReply()
		return m, nil
	case "/help":
		m.input.Reset()
		m.showHelp = true
		return m, nil
	}

	if m.busy {
		m.setNotice(noticeWarn, "Wait for the current reply, or press Esc to cancel it.")
		return m, nil
	}
	if m.expired {
		m.setNotice(noticeError, "Your session has expired. Run 'edusphere login' and start the chat again.")
		return m, nil
	}
	if m.session == nil {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.busy = true
	m.notice = ""
	m.input.Reset()
	return m, tea.Batch(m.spinner.Tick, sendTurn(ctx, m.session, text))
}

// finishTurn records the outcome of SendTurn.
func (m Model) finishTurn(err error) Model {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.busy = false
	if m.session != nil {
		m.messages = m.session.Messages()
	}
	m.refresh()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		m.setNotice(noticeWarn, "Reply cancelled.")
	case errors.Is(err, session.ErrBusy):
		m.setNotice(noticeWarn, err.Error())
	default:
		log.Printf("Chat turn failed: %v", err)
		m.setNotice(noticeError, turnNotice(err))
		if transport.IsSessionInvalidated(err) {
			m.expired = true
		}
	}
	return m
}

// turnNotice returns the text shown for a failed turn.
func turnNotice(err error) string {
	var te *session.TurnError
	if errors.As(err, &te) {
		err = te.Err
	}
	return transport.Notice(err)
}

func (m *Model) cancelTurn() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) clearConversation() {
	if m.session == nil {
		return
	}
	if err := m.session.Reset(); err != nil {
		m.setNotice(noticeWarn, err.Error())
		return
	}
	m.messages = m.session.Messages()
	m.rendered = make(map[string]string)
	m.refresh()
	m.setNotice(noticeInfo, "Started a new conversation.")
}

func (m *Model) copyLastReply() {
	var last *model.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == model.RoleAssistant && !m.messages[i].Open {
			last = &m.messages[i]
			break
		}
	}
	if last == nil {
		m.setNotice(noticeWarn, "Nothing to copy yet.")
		return
	}
	if err := m.clipboard(last.Content); err != nil {
		m.setNotice(noticeError, "Copy failed: "+err.Error())
		return
	}
	m.setNotice(noticeInfo, "Reply copied to clipboard.")
}

func (m *Model) exportConversation(args []string) {
	path := export.DefaultFilename(time.Now())
	if len(args) > 0 {
		path = args[0]
	}
	opts := export.DefaultOptions()
	opts.User = m.user
	if err := export.ToFile(path, m.messages, opts); err != nil {
		m.setNotice(noticeError, "Export failed: "+err.Error())
		return
	}
	m.setNotice(noticeInfo, "Saved conversation to "+path+".")
}

func (m *Model) setNotice(kind noticeKind, text string) {
	m.noticeStyle = kind
	m.notice = text
}

func (m *Model) resize(width, height int) {
	widthChanged := width != m.width
	m.width, m.height = width, height

	vh := height - chromeHeight
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.input.Width = width - 4
	if widthChanged {
		m.renderer = nil
		m.rendered = make(map[string]string)
	}
	m.ready = true
	m.refresh()
}

// refresh re-renders the transcript and keeps it pinned to the bottom.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || m.busy {
		m.viewport.GotoBottom()
	}
}
