// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Command dispatch for everything except the TUI.

package cli

import (
	"context"
	"fmt"
	"os"
)

// Run executes a non-TUI command.
func Run(ctx context.Context, cmd Command, args Args) error {
	switch cmd {
	case CmdHelp:
		if len(args.Raw) > 0 {
			PrintUsage()
			return NewValidationError("command", args.Raw[0], "unknown command")
		}
		PrintUsage()
		return nil
	case CmdVersion:
		PrintVersion()
		return nil
	case CmdConfig:
		return HandleConfig(args, os.Stdout)
	case CmdDoctor:
		return HandleDoctor(ctx, args, os.Stdout)
	case CmdTUI:
		return fmt.Errorf("the TUI is started by the main program")
	}

	env, err := Open(args)
	if err != nil {
		return err
	}
	defer env.Close()
	return Dispatch(ctx, env, cmd, args)
}

// Dispatch runs cmd against an open Env.
func Dispatch(ctx context.Context, env *Env, cmd Command, args Args) error {
	switch cmd {
	case CmdLogin:
		return HandleLogin(ctx, env, args)
	case CmdRegister:
		return HandleRegister(ctx, env, args)
	case CmdLogout:
		return HandleLogout(env, args)
	case CmdWhoami:
		return HandleWhoami(env)
	case CmdAsk:
		return HandleAsk(ctx, env, args, os.Stdin)
	case CmdChat:
		return HandleChat(ctx, env, args)
	case CmdUpload:
		return HandleUpload(ctx, env, args)
	case CmdRecommend:
		return HandleRecommend(ctx, env, args)
	case CmdCourses:
		return HandleCourses(ctx, env, args)
	case CmdScholarships:
		return HandleScholarships(ctx, env, args)
	case CmdSummary:
		return HandleSummary(ctx, env, args)
	case CmdTranscripts:
		return HandleTranscripts(ctx, env, args)
	case CmdSearch:
		return HandleSearch(ctx, env, args)
	default:
		return NewValidationError("command", cmd.String(), "not available here")
	}
}
