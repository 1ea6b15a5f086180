// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for edusphere.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (EDUSPHERE_*)
//   - .env in the working directory (never overrides variables already set)
//   - ~/.edusphere/config.toml, or the file named by EDUSPHERE_CONFIG
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := transport.New(cfg.TransportConfig(), creds)
//
// Watch reloads the file on change so the TUI can apply theme and wrap
// settings live.
package config
