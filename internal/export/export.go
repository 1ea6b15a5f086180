// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes an advising conversation to Markdown or JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/util"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format selects the export encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ErrEmpty is returned when there are no closed messages to export.
var ErrEmpty = errors.New("conversation has no messages")

// FormatForPath picks the format from the file extension. Anything other
// than .json is written as Markdown.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkdown
}

// Options controls the rendered document.
type Options struct {
	Title             string
	User              string
	IncludeTimestamps bool
	Now               func() time.Time
}

// DefaultOptions returns the options used by the chat commands.
func DefaultOptions() Options {
	return Options{
		Title:             "EduSphere advising session",
		IncludeTimestamps: true,
		Now:               time.Now,
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// Render encodes the closed messages of msgs. A reply that is still
// streaming is left out.
func Render(msgs []model.Message, format Format, opts Options) ([]byte, error) {
	closed := closedMessages(msgs)
	if len(closed) == 0 {
		return nil, ErrEmpty
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	switch format {
	case FormatJSON:
		return renderJSON(closed, opts)
	case FormatMarkdown, "":
		return renderMarkdown(closed, opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// ToFile renders msgs in the format implied by path and writes it atomically.
func ToFile(path string, msgs []model.Message, opts Options) error {
	data, err := Render(msgs, FormatForPath(path), opts)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// DefaultFilename returns a timestamped file name in the working directory.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("edusphere_chat_%s.md", now.Format("20060102_150405"))
}

func closedMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Open {
			continue
		}
		out = append(out, m)
	}
	return out
}

// =============================================================================
// JSON
// =============================================================================

type jsonDocument struct {
	Title    string          `json:"title"`
	User     string          `json:"user,omitempty"`
	Exported time.Time       `json:"exported"`
	Messages []model.Message `json:"messages"`
}

func renderJSON(msgs []model.Message, opts Options) ([]byte, error) {
	doc := jsonDocument{
		Title:    opts.Title,
		User:     opts.User,
		Exported: opts.Now().UTC(),
		Messages: msgs,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return append(data, '\n'), nil
}

// =============================================================================
// MARKDOWN
// =============================================================================

func renderMarkdown(msgs []model.Message, opts Options) []byte {
	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", escapeYAML(opts.Title))
	if opts.User != "" {
		fmt.Fprintf(&sb, "user: %s\n", escapeYAML(opts.User))
	}
	fmt.Fprintf(&sb, "messages: %d\n", len(msgs))
	fmt.Fprintf(&sb, "exported: %s\n", opts.Now().Format(time.RFC3339))
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(opts.Title))

	for i, msg := range msgs {
		label := msg.Role.DisplayName()
		if opts.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, msg.Timestamp.Format("15:04:05"))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n\n")

		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String())
}

// escapeMarkdown neutralizes characters that would change heading structure.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "#", "\\#", "\n", " ")
	return r.Replace(s)
}

// escapeYAML quotes a scalar so newlines and colons cannot break frontmatter.
func escapeYAML(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return "\"" + s + "\""
}
