// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question to the advisor.
//
// Examples:
//   edusphere ask "Which electives fit a data science track?"
//   echo "What should I take next term?" | edusphere ask
//   edusphere ask --raw "Summarize my options"     Print without markdown

package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/edusphere/edusphere-tui/internal/model"
)

// maxStdinQuestion bounds a question read from a pipe.
const maxStdinQuestion = 64 * 1024

// HandleAsk sends one turn and prints the reply.
func HandleAsk(ctx context.Context, env *Env, args Args, stdin io.Reader) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}

	p := args.Parser()
	question := JoinPositionalArgs(p, 0)
	if question == "" && stdin != nil && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuestion))
		if err != nil {
			return err
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return ErrMissingArgument("question", `edusphere ask "Which courses should I take next?"`)
	}

	s := env.NewSession()
	messages, err := s.SendTurn(ctx, question)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errInterrupted
		}
		return err
	}

	reply, ok := lastAssistant(messages)
	if !ok {
		return NewCommandError("ask", "reply", "the advisor returned nothing", nil)
	}
	if env.JSON {
		return writeJSON(env.Out, reply)
	}

	text := reply.Content
	if env.Config.UI.Markdown && !p.BoolFlag("raw", "no-markdown") {
		text = renderMarkdown(text, env.Config.UI.WordWrap)
	}
	_, err = io.WriteString(env.Out, text+"\n")
	return err
}

func lastAssistant(messages []model.Message) (model.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleAssistant {
			return messages[i], true
		}
	}
	return model.Message{}, false
}
