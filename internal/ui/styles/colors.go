// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Teal - Brand color, header, user highlights
var Teal = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// Indigo - Advisor replies and selections
var Indigo = lipgloss.AdaptiveColor{Light: "#4338CA", Dark: "#A5B4FC"}

// Gold - Scholarship and match highlights
var Gold = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Green - Success
var Green = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}

// Red - Errors and expired sessions
var Red = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

// Amber - Warnings and cancelled replies
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE & TEXT
// =============================================================================

var (
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#111827"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#374151"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#E5E7EB"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#9CA3AF"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#6B7280"}
)

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// Indicators pair every status color with a shape for colorblind users.
var Indicators = struct {
	Success string
	Error   string
	Warning string
	Pending string
}{
	Success: "✓",
	Error:   "✗",
	Warning: "!",
	Pending: "…",
}

// StreamCursor marks the end of a reply that is still arriving.
const StreamCursor = "▌"
