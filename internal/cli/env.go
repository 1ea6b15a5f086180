// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Wiring of config, local state, credentials, and clients shared by
// every command.

package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/edusphere/edusphere-tui/internal/api"
	"github.com/edusphere/edusphere-tui/internal/auth"
	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/credential"
	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// Env is everything a command handler needs.
type Env struct {
	Config *config.Config
	Store  *storage.LocalStore
	Creds  *credential.Store
	Client *transport.Client
	Auth   *auth.Manager
	API    *api.Client

	Out    io.Writer
	Err    io.Writer
	Prompt Prompter

	JSON  bool
	Quiet bool
}

// SetupLogging sends log output to stderr when verbose, otherwise discards it.
func SetupLogging(verbose bool) {
	if verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ltime | log.Lmicroseconds)
		return
	}
	log.SetOutput(io.Discard)
}

// Open loads the configuration and builds an Env for a command.
func Open(args Args) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	env, err := OpenWith(cfg, os.Stdout, os.Stderr)
	if err != nil {
		return nil, err
	}
	env.Prompt = NewTermPrompter()
	env.JSON = args.JSON
	env.Quiet = args.Quiet
	return env, nil
}

// OpenWith builds an Env from an already loaded configuration.
func OpenWith(cfg *config.Config, out, errOut io.Writer) (*Env, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	var opts []credential.Option
	if cfg.Security.EncryptToken {
		pass := os.Getenv(config.EnvTokenPassphrase)
		if pass == "" {
			store.Close()
			return nil, NewValidationError(config.EnvTokenPassphrase, "",
				"security.encrypt_token is on but no passphrase is set")
		}
		sealer, err := credential.NewSealer(pass, store)
		if err != nil {
			store.Close()
			return nil, err
		}
		opts = append(opts, credential.WithSealer(sealer))
	}

	creds, err := credential.NewStore(store, opts...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}
	client, err := transport.New(cfg.TransportConfig(), creds)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Env{
		Config: cfg,
		Store:  store,
		Creds:  creds,
		Client: client,
		Auth:   auth.NewManager(client, store),
		API:    api.NewClient(client, store),
		Out:    out,
		Err:    errOut,
	}, nil
}

// NewSession creates a conversation session bound to the client.
func (e *Env) NewSession() *session.Session {
	return session.New(e.Client, e.Config.SessionConfig(e.Store))
}

// Close releases the local store.
func (e *Env) Close() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.Close()
}

// printf writes to Out unless quiet.
func (e *Env) printf(format string, a ...any) {
	if e.Quiet {
		return
	}
	fmt.Fprintf(e.Out, format, a...)
}
