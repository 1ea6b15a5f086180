// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"

	"github.com/edusphere/edusphere-tui/internal/model"
)

// Builder folds stream deltas into the open assistant message of a
// conversation.
type Builder struct {
	conv *model.Conversation
}

// NewBuilder creates a builder writing into conv.
func NewBuilder(conv *model.Conversation) *Builder {
	return &Builder{conv: conv}
}

// Open appends an empty assistant message and makes it the open message.
func (b *Builder) Open() (string, error) {
	return b.conv.OpenAssistant()
}

// Apply folds one delta into the open message.
//
// Apply panics when no message is open; callers own the Open/Close pairing.
func (b *Builder) Apply(delta string) {
	b.ApplyAll([]string{delta})
}

// ApplyAll folds the deltas of one read as a single update, so readers of
// the conversation see either none or all of them.
func (b *Builder) ApplyAll(deltas []string) {
	normalized := make([]string, 0, len(deltas))
	for _, d := range deltas {
		if n := Normalize(d); n != "" {
			normalized = append(normalized, n)
		}
	}

	err := b.conv.UpdateOpen(func(current string) string {
		for _, n := range normalized {
			current = Join(current, n)
		}
		return current
	})
	if errors.Is(err, model.ErrNoOpenMessage) {
		panic("transcript: apply with no open message")
	}
}

// Close marks the open message final. It reports whether one was open.
func (b *Builder) Close() bool {
	return b.conv.CloseOpen()
}

// Building reports whether a message is open.
func (b *Builder) Building() bool {
	return b.conv.HasOpen()
}
