// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - Markdown, table, and JSON rendering for command output.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/edusphere/edusphere-tui/internal/util"
)

// renderMarkdown renders md for the terminal. It falls back to the raw text
// when rendering fails or colors are off.
func renderMarkdown(md string, wrap int) string {
	if !ColorsEnabled() {
		return md
	}
	if wrap <= 0 {
		wrap = GetTerminalWidth() - 4
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table renders rows in fixed-width columns. widths[i] <= 0 leaves the column
// unpadded.
type table struct {
	widths []int
	rows   [][]string
}

func newTable(widths ...int) *table {
	return &table{widths: widths}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) {
	for i, row := range t.rows {
		var b strings.Builder
		for c, cell := range row {
			cell = util.SingleLine(cell)
			if c < len(t.widths) && t.widths[c] > 0 {
				cell = util.PadRight(util.TruncateWidth(cell, t.widths[c]), t.widths[c])
			}
			if c > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
		}
		line := strings.TrimRight(b.String(), " ")
		if i == 0 {
			line = TitleStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

// percent formats a 0-1 match score.
func percent(match float64) string {
	if match > 1 {
		return fmt.Sprintf("%.0f%%", match)
	}
	return fmt.Sprintf("%.0f%%", match*100)
}
