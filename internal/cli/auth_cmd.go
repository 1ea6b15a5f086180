// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, register, logout, and whoami.
//
// Examples:
//   edusphere login                 Prompt for username and password
//   edusphere login ana             Prompt for the password only
//   edusphere register              Create an account interactively
//   edusphere whoami --json         Show the saved profile as JSON

package cli

import (
	"context"

	"github.com/edusphere/edusphere-tui/internal/auth"
)

// HandleLogin logs in and stores the session.
func HandleLogin(ctx context.Context, env *Env, args Args) error {
	p := args.Parser()

	username := p.Positional(0)
	if username == "" {
		username = p.Flag("username", "u")
	}
	if username == "" {
		var err error
		if username, err = env.Prompt.Ask("Username: "); err != nil {
			return err
		}
	}
	password, err := env.Prompt.Secret("Password: ")
	if err != nil {
		return err
	}

	user, err := env.Auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if env.JSON {
		return writeJSON(env.Out, user)
	}
	env.printf("%s Logged in as %s\n", SuccessStyle.Render("✓"), user.DisplayName())
	return nil
}

// HandleRegister creates an account, logging in when the service allows it.
func HandleRegister(ctx context.Context, env *Env, args Args) error {
	p := args.Parser()
	req := auth.RegisterRequest{
		Username: p.Flag("username", "u"),
		FullName: p.Flag("name", "full-name"),
		Email:    p.Flag("email", "e"),
	}

	ask := func(field *string, prompt string) error {
		if *field != "" {
			return nil
		}
		v, err := env.Prompt.Ask(prompt)
		*field = v
		return err
	}
	if err := ask(&req.Username, "Username: "); err != nil {
		return err
	}
	if err := ask(&req.FullName, "Full name: "); err != nil {
		return err
	}
	if err := ask(&req.Email, "Email: "); err != nil {
		return err
	}

	pw, err := env.Prompt.Secret("Password: ")
	if err != nil {
		return err
	}
	confirm, err := env.Prompt.Secret("Confirm password: ")
	if err != nil {
		return err
	}
	if pw != confirm {
		return NewValidationError("password", "", "passwords do not match")
	}
	req.Password = pw

	if err := req.Validate(); err != nil {
		return NewValidationError("registration", "", err.Error())
	}

	reg, err := env.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	if env.JSON {
		return writeJSON(env.Out, reg)
	}
	env.printf("%s Account created for %s\n", SuccessStyle.Render("✓"), reg.User.Username)
	if !reg.LoggedIn {
		env.printf("%s\n", DimStyle.Render("Run 'edusphere login' to sign in."))
	}
	return nil
}

// HandleLogout forgets the session.
// With --forget the recommendation context and upload history go too.
func HandleLogout(env *Env, args Args) error {
	if err := env.Auth.Logout(); err != nil {
		return err
	}
	if args.Parser().BoolFlag("forget") {
		if err := env.API.ClearHistory(); err != nil {
			return err
		}
	}
	env.printf("Logged out.\n")
	return nil
}

// HandleWhoami prints the saved profile.
func HandleWhoami(env *Env) error {
	user, ok, err := env.Auth.Restore()
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrNotLoggedIn
	}
	if env.JSON {
		return writeJSON(env.Out, user)
	}
	env.printf("%s%s\n", RenderLabel("Username"), user.Username)
	env.printf("%s%s\n", RenderLabel("Name"), user.FullName)
	env.printf("%s%s\n", RenderLabel("Email"), user.Email)
	if !user.CreatedAt.IsZero() {
		env.printf("%s%s\n", RenderLabel("Member since"), user.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
