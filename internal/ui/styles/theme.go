// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds the styled components of the chat view.
type Theme struct {
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderUser  lipgloss.Style

	// Messages
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	Timestamp      lipgloss.Style
	Cursor         lipgloss.Style

	// Input and status
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	Spinner          lipgloss.Style
	StatusBar        lipgloss.Style
	ShortcutKey      lipgloss.Style
	ShortcutDesc     lipgloss.Style

	// Notices
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	SuccessStyle lipgloss.Style
}

// NewTheme creates a theme. name is "auto", "dark" or "light"; anything
// else is treated as "auto".
func NewTheme(name string) *Theme {
	name = strings.ToLower(strings.TrimSpace(name))

	t := &Theme{Name: name, ColorProfile: termenv.ColorProfile()}
	switch name {
	case ThemeDark:
		t.IsDark = true
	case ThemeLight:
		t.IsDark = false
	default:
		t.Name = ThemeAuto
		t.IsDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(t.IsDark)

	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.AssistantText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Cursor = lipgloss.NewStyle().
		Foreground(Indigo)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(Red).
		Bold(true)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(Amber)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(Green)
}
