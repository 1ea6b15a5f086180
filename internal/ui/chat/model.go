// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/ui/styles"
)

// maxInputLength bounds one message.
const maxInputLength = 4096

// Layout rows outside the viewport: header, notice, input, status bar (2).
const chromeHeight = 5

// Options configures a chat model.
type Options struct {
	Session  *session.Session
	Theme    *styles.Theme
	User     string
	Markdown bool
	WordWrap int

	// Clipboard writes copied text; nil uses the system clipboard.
	Clipboard func(string) error
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	session *session.Session
	theme   *styles.Theme
	user    string
	keys    KeyMap

	markdown bool
	wordWrap int
	renderer *glamour.TermRenderer
	rendered map[string]string // closed message ID -> rendered markdown

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	messages []model.Message
	busy     bool
	cancel   context.CancelFunc

	notice      string
	noticeStyle noticeKind
	expired     bool
	showHelp    bool

	clipboard func(string) error
}

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeWarn
	noticeError
)

// New creates a chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about courses, scholarships, or your transcript..."
	ti.CharLimit = maxInputLength
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := Model{
		session:   opts.Session,
		theme:     theme,
		user:      opts.User,
		keys:      DefaultKeyMap(),
		markdown:  opts.Markdown,
		wordWrap:  opts.WordWrap,
		rendered:  make(map[string]string),
		viewport:  viewport.New(80, 20),
		input:     ti,
		spinner:   sp,
		clipboard: copyFn,
	}
	if opts.Session != nil {
		m.messages = opts.Session.Messages()
	}
	m.applyTheme()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Busy reports whether a reply is in progress.
func (m Model) Busy() bool {
	return m.busy
}

// Messages returns the last rendered snapshot.
func (m Model) Messages() []model.Message {
	return m.messages
}

// applyTheme restyles the components and drops cached renders.
func (m *Model) applyTheme() {
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.InputPlaceholder
	m.spinner.Style = m.theme.Spinner
	m.renderer = nil
	m.rendered = make(map[string]string)
}

// contentWidth is the wrap width for message bodies.
func (m Model) contentWidth() int {
	w := m.width - 4
	if m.wordWrap > 0 && m.wordWrap < w {
		w = m.wordWrap
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) markdownRenderer() *glamour.TermRenderer {
	if m.renderer != nil {
		return m.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(m.contentWidth()),
	)
	if err != nil {
		return nil
	}
	m.renderer = r
	return r
}
