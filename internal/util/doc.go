// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the CLI and the TUI.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writes (config, downloaded PDFs)
//   - TruncateRunes / TruncateWidth: UTF-8 and column aware truncation
//   - PadRight, SingleLine: table and preview formatting
package util
