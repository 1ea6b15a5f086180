// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat with the advisor.
//
// Replies stream as they arrive. Ctrl+C cancels a reply in progress; at the
// prompt it exits.
//
// Interactive Commands:
//   /help, /h           Show available commands
//   /clear, /c          Start a new conversation
//   /history            Show the conversation so far
//   /quit, /q           Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"

	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/export"
	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and closes the liner.
func (c *ChatCLI) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// STREAM PRINTER
// =============================================================================

// streamPrinter writes the growing assistant reply to w. The transcript only
// ever grows by appending, so each update prints the new suffix.
type streamPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	printed int
}

func (p *streamPrinter) reset() {
	p.mu.Lock()
	p.printed = 0
	p.mu.Unlock()
}

// OnUpdate prints whatever the open reply gained since the last call.
func (p *streamPrinter) OnUpdate(messages []model.Message) {
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != model.RoleAssistant || !last.Open {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(last.Content) <= p.printed {
		return
	}
	fmt.Fprint(p.w, last.Content[p.printed:])
	p.printed = len(last.Content)
}

// OnStateChange is unused.
func (p *streamPrinter) OnStateChange(from, to session.State) {}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive loop.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}

	s := env.NewSession()
	printer := &streamPrinter{w: env.Out}
	s.Observe(printer)

	events := env.Client.Subscribe()
	defer env.Client.Unsubscribe(events)
	go func() {
		for range events {
			fmt.Fprintln(env.Err, WarningStyle.Render("Your session has expired. Run 'edusphere login' to sign in again."))
		}
	}()

	input := NewChatCLI()
	defer input.Close()

	if !env.Quiet {
		printWelcome(env)
	}

	for {
		line, err := input.ReadInput(PromptStyle.Render("you> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(env.Out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !handleSlashCommand(env, s, line) {
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		runTurn(ctx, env, s, printer, line)
	}
}

// runTurn sends one message; Ctrl+C cancels only this turn.
func runTurn(ctx context.Context, env *Env, s *session.Session, printer *streamPrinter, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	printer.reset()
	fmt.Fprint(env.Out, TitleStyle.Render(model.RoleAssistant.DisplayName()+": "))

	_, err := s.SendTurn(turnCtx, text)
	fmt.Fprintln(env.Out)

	var turnErr *session.TurnError
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(env.Err, WarningStyle.Render("[Cancelled]"))
	case errors.As(err, &turnErr):
		fmt.Fprintln(env.Out, turnErr.Fallback.Content)
		fmt.Fprintf(env.Err, "%s %s\n", ErrorStyle.Render("[Error]"), Describe(err))
	default:
		fmt.Fprintf(env.Err, "%s %s\n", ErrorStyle.Render("[Error]"), Describe(err))
	}
}

// handleSlashCommand runs a chat command and reports whether to continue.
func handleSlashCommand(env *Env, s *session.Session, line string) bool {
	cmd := strings.ToLower(strings.Fields(line)[0])
	switch cmd {
	case "/quit", "/q", "/exit":
		return false
	case "/help", "/h", "/?":
		fmt.Fprintln(env.Out, chatHelp)
	case "/clear", "/c", "/new":
		if err := s.Reset(); err != nil {
			fmt.Fprintf(env.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			break
		}
		fmt.Fprintln(env.Out, DimStyle.Render("Started a new conversation."))
	case "/history":
		printHistory(env.Out, s.Messages())
	case "/export", "/save":
		exportChat(env, s, strings.Fields(line)[1:])
	default:
		fmt.Fprintf(env.Err, "Unknown command %s. Type /help.\n", cmd)
	}
	return true
}

const chatHelp = `Commands:
  /help, /h       Show this help
  /clear, /c      Start a new conversation
  /history        Show the conversation so far
  /export [FILE]  Save the conversation (.md or .json)
  /quit, /q       Exit chat
  Ctrl+C          Cancel the reply in progress`

func exportChat(env *Env, s *session.Session, args []string) {
	path := export.DefaultFilename(time.Now())
	if len(args) > 0 {
		path = args[0]
	}

	opts := export.DefaultOptions()
	if u, ok := env.Auth.CurrentUser(); ok {
		opts.User = u.DisplayName()
	}
	if err := export.ToFile(path, s.Messages(), opts); err != nil {
		fmt.Fprintf(env.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		return
	}
	fmt.Fprintf(env.Out, "%s Saved conversation to %s\n", SuccessStyle.Render("✓"), path)
}

func printWelcome(env *Env) {
	name := "there"
	if u, ok := env.Auth.CurrentUser(); ok {
		name = u.DisplayName()
	}
	fmt.Fprintln(env.Out, TitleStyle.Render("EduSphere advisor"))
	fmt.Fprintf(env.Out, "Hi %s! Ask about courses, scholarships, or your transcript. Type /help for commands.\n\n", name)
}

func printHistory(w io.Writer, messages []model.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages yet."))
		return
	}
	for _, m := range messages {
		fmt.Fprintf(w, "%s %s %s\n",
			DimStyle.Render(m.Timestamp.Format("15:04")),
			TitleStyle.Render(m.Role.DisplayName()+":"),
			util.TruncateRunes(util.SingleLine(m.Content), 200))
	}
}
