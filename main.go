// edusphere - academic advising in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/edusphere/edusphere-tui/internal/auth"
	"github.com/edusphere/edusphere-tui/internal/cli"
	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/ui/chat"
	"github.com/edusphere/edusphere-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()
	cli.SetupLogging(args.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdChat:
		// The REPL handles Ctrl+C per turn.
		stop()
		err = cli.Run(context.Background(), cmd, args)
	default:
		err = cli.Run(ctx, cmd, args)
	}

	if err != nil {
		if !errors.Is(err, cli.ErrChecksFailed) {
			cli.DisplayError(os.Stderr, err, args.JSON)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

// runTUI starts the full-screen chat.
func runTUI(args cli.Args) error {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		return &cli.TTYRequiredError{Operation: "start the chat view (use 'edusphere ask' in scripts)"}
	}

	cfgPath, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromPath(cfgPath)
	if err != nil {
		return err
	}

	// Logging must never write to the screen while the TUI owns it.
	if logPath, err := config.LogPath(); err == nil {
		if f, err := tea.LogToFile(logPath, "edusphere"); err == nil {
			defer f.Close()
		}
	}

	env, err := cli.OpenWith(cfg, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	user, ok := env.Auth.CurrentUser()
	if !ok {
		fmt.Fprintln(os.Stderr, "Log in first with 'edusphere login'.")
		return auth.ErrNotLoggedIn
	}

	s := env.NewSession()
	m := chat.New(chat.Options{
		Session:  s,
		Theme:    styles.NewTheme(cfg.UI.Theme),
		User:     user.DisplayName(),
		Markdown: cfg.UI.Markdown,
		WordWrap: cfg.UI.WordWrap,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	events := env.Client.Subscribe()
	defer env.Client.Unsubscribe(events)
	chat.Bridge(p, s, events)

	watcher, err := config.Watch(cfgPath, func(c *config.Config, err error) {
		if err != nil {
			log.Printf("Config reload rejected: %v", err)
			return
		}
		p.Send(chat.ConfigReloadedMsg{Config: c})
	})
	if err != nil {
		log.Printf("Config watch disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	_, err = p.Run()
	return err
}
