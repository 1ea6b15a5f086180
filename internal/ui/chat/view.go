// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/ui/styles"
	"github.com/edusphere/edusphere-tui/internal/util"
)

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.renderHelp())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderNotice())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("EduSphere")
	var right string
	switch {
	case m.expired:
		right = m.theme.ErrorStyle.Render(styles.Indicators.Error + " session expired")
	case m.user != "":
		right = m.theme.HeaderUser.Render(util.TruncateWidth(m.user, 30))
	}

	gap := m.width - 2 - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + right)
}

// renderMessages renders the whole transcript for the viewport.
func (m *Model) renderMessages() string {
	if len(m.messages) == 0 {
		return m.theme.Timestamp.Render("  No messages yet. Ask the advisor anything about your studies.")
	}

	width := m.contentWidth()
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		label := m.theme.UserLabel
		if msg.Role == model.RoleAssistant {
			label = m.theme.AssistantLabel
		}
		b.WriteString(label.Render(msg.Role.DisplayName()))
		b.WriteString(" ")
		b.WriteString(m.theme.Timestamp.Render(msg.Timestamp.Format("15:04")))
		b.WriteString("\n")
		b.WriteString(m.renderBody(msg, width))
		b.WriteString("\n")
	}
	return b.String()
}

// renderBody renders one message. Closed replies go through glamour; the
// open reply stays plain so each update is cheap.
func (m *Model) renderBody(msg model.Message, width int) string {
	if msg.Role == model.RoleUser {
		return m.theme.UserText.Width(width).Render(msg.Content)
	}
	if msg.Open {
		return m.theme.AssistantText.Width(width).Render(msg.Content + m.theme.Cursor.Render(styles.StreamCursor))
	}
	if !m.markdown {
		return m.theme.AssistantText.Width(width).Render(msg.Content)
	}

	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	r := m.markdownRenderer()
	if r == nil {
		return m.theme.AssistantText.Width(width).Render(msg.Content)
	}
	out, err := r.Render(msg.Content)
	if err != nil {
		return m.theme.AssistantText.Width(width).Render(msg.Content)
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = out
	return out
}

func (m Model) renderNotice() string {
	if m.busy {
		return m.spinner.View() + " " + m.theme.Timestamp.Render("EduSphere AI is typing...")
	}
	if m.notice == "" {
		return ""
	}
	text := util.TruncateWidth(m.notice, m.width-2)
	switch m.noticeStyle {
	case noticeError:
		return m.theme.ErrorStyle.Render(styles.Indicators.Error + " " + text)
	case noticeWarn:
		return m.theme.WarningStyle.Render(styles.Indicators.Warning + " " + text)
	default:
		return m.theme.SuccessStyle.Render(styles.Indicators.Success + " " + text)
	}
}

func (m Model) renderInput() string {
	return m.input.View()
}

func (m Model) renderStatusBar() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	line := lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, "  "))
	return m.theme.StatusBar.Width(m.width).Render(line)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Keys") + "\n\n")
	for _, k := range m.keys.FullHelp() {
		h := k.Help()
		b.WriteString("  " + m.theme.ShortcutKey.Render(util.PadRight(h.Key, 8)) + m.theme.ShortcutDesc.Render(h.Desc) + "\n")
	}
	b.WriteString("\n" + m.theme.HeaderTitle.Render("Commands") + "\n\n")
	for _, c := range [][2]string{
		{"/clear", "start a new conversation"},
		{"/copy", "copy the last reply"},
		{"/export [file]", "save the conversation (.md or .json)"},
		{"/help", "show this help"},
		{"/quit", "exit"},
	} {
		b.WriteString("  " + m.theme.ShortcutKey.Render(util.PadRight(c[0], 16)) + m.theme.ShortcutDesc.Render(c[1]) + "\n")
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	for len(lines) < m.viewport.Height {
		lines = append(lines, "")
	}
	if len(lines) > m.viewport.Height {
		lines = lines[:m.viewport.Height]
	}
	return strings.Join(lines, "\n")
}
