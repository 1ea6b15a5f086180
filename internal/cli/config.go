// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command.
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Change a value in the config file
//   keys                List every key
//   reset               Restore the defaults
//   path                Show the configuration file path
//
// Examples:
//   edusphere config set server.base_url https://advising.example.edu/api
//   edusphere config set server.timeout 2m
//   edusphere config set ui.markdown false
//   edusphere config get chat.fallback_message

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/edusphere/edusphere-tui/internal/config"
)

// HandleConfig runs the config subcommands. It needs no session.
func HandleConfig(args Args, out io.Writer) error {
	p := args.Parser()

	switch sub := p.Subcommand(); sub {
	case "", "show":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if args.JSON {
			return writeJSON(out, cfg)
		}
		data, err := cfg.Encode()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err

	case "get":
		key := p.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "edusphere config get server.base_url")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		val, err := cfg.Get(key)
		if err != nil {
			return NewValidationError("key", key, err.Error())
		}
		if args.JSON {
			return writeJSON(out, map[string]any{"key": key, "value": val})
		}
		fmt.Fprintln(out, val)
		return nil

	case "set":
		key, value := p.Positional(1), p.Positional(2)
		if key == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "edusphere config set ui.word_wrap 100")
		}
		path, cfg, err := loadFileConfig()
		if err != nil {
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			return NewValidationError("key", key, err.Error())
		}
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.SaveTOML(cfg, path); err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Fprintf(out, "%s %s = %v\n", SuccessStyle.Render("✓"), key, value)
		}
		return nil

	case "keys":
		keys := config.GetAllKeys()
		if args.JSON {
			return writeJSON(out, keys)
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil

	case "reset":
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Fprintf(out, "%s Configuration reset to defaults\n", SuccessStyle.Render("✓"))
		}
		return nil

	case "path":
		path, err := config.Path()
		if err != nil {
			return err
		}
		if args.JSON {
			_, statErr := os.Stat(path)
			return writeJSON(out, map[string]any{"path": path, "exists": statErr == nil})
		}
		fmt.Fprintln(out, path)
		return nil

	default:
		return ErrUnknownSubcommand("config", sub, "show", "get", "set", "keys", "reset", "path")
	}
}

// loadFileConfig reads only the config file, so set never persists values
// that came from the environment.
func loadFileConfig() (string, *config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return "", nil, err
	}
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return "", nil, err
		}
	}
	return path, cfg, nil
}
