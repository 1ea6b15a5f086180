// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// edusphere.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags plus the raw command arguments
//   - Env: Config, local store, credentials, and API clients for a command
//
// # Usage
//
//	cmd, args := cli.Parse()
//	if err := cli.Run(ctx, cmd, args); err != nil {
//	    cli.DisplayError(os.Stderr, err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands Overview
//
// Account:
//   - login, register, logout, whoami
//
// Advisor:
//   - ask: One question, reply printed as markdown
//   - chat: Line-mode conversation with history
//
// Advising data:
//   - upload, transcripts, recommend, courses, scholarships, summary, search
//
// Setup:
//   - config, doctor, version
//
// All commands accept --json.
package cli
