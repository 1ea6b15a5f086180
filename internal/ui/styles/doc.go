// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the colors and lipgloss styles of the EduSphere TUI.
//
// Colors are lipgloss.AdaptiveColor values, so the same palette works on
// light and dark terminals. NewTheme picks the background either from the
// terminal (theme "auto") or from the configured override ("dark", "light").
package styles
