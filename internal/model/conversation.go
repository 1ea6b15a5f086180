// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMessageOpen is returned when appending behind a message that is
	// still streaming.
	ErrMessageOpen = errors.New("conversation has an open message")

	// ErrNoOpenMessage is returned when mutating the open message of a
	// conversation that has none.
	ErrNoOpenMessage = errors.New("conversation has no open message")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered, append-only list of messages. The last message
// may be open and mutated in place while a response streams in.
//
// All methods are safe for concurrent use; readers take Snapshot copies so
// they never observe a half-applied update.
type Conversation struct {
	mu        sync.RWMutex
	id        string
	createdAt time.Time
	updatedAt time.Time
	messages  []Message
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		id:        "conv_" + uuid.NewString(),
		createdAt: now,
		updatedAt: now,
		messages:  make([]Message, 0, 16),
	}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// UpdatedAt returns the time of the last mutation.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// =============================================================================
// MUTATION
// =============================================================================

// Append adds a closed message. It fails while the last message is open.
func (c *Conversation) Append(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasOpenLocked() {
		return ErrMessageOpen
	}
	msg.Open = false
	c.messages = append(c.messages, msg)
	c.updatedAt = time.Now()
	return nil
}

// OpenAssistant appends an empty assistant message in the open state and
// returns its ID.
func (c *Conversation) OpenAssistant() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasOpenLocked() {
		return "", ErrMessageOpen
	}
	msg := NewMessage(RoleAssistant, "")
	msg.Open = true
	c.messages = append(c.messages, msg)
	c.updatedAt = time.Now()
	return msg.ID, nil
}

// UpdateOpen replaces the open message content with fn(current). fn runs
// under the write lock so the whole update is one atomic step for readers.
func (c *Conversation) UpdateOpen(fn func(current string) string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasOpenLocked() {
		return ErrNoOpenMessage
	}
	last := &c.messages[len(c.messages)-1]
	last.Content = fn(last.Content)
	c.updatedAt = time.Now()
	return nil
}

// CloseOpen marks the open message final. It reports whether a message was
// open.
func (c *Conversation) CloseOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasOpenLocked() {
		return false
	}
	c.messages[len(c.messages)-1].Open = false
	c.updatedAt = time.Now()
	return true
}

// Clear removes every message.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
	c.updatedAt = time.Now()
}

// =============================================================================
// READERS
// =============================================================================

// Snapshot returns a copy of the messages.
func (c *Conversation) Snapshot() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Wire returns the closed messages in request-body form. An open message is
// never part of a request.
func (c *Conversation) Wire() []WireMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]WireMessage, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Open {
			continue
		}
		out = append(out, m.Wire())
	}
	return out
}

// HasOpen reports whether the last message is open.
func (c *Conversation) HasOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasOpenLocked()
}

// Last returns the last message, if any.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the most recent assistant message with content.
func (c *Conversation) LastAssistant() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant && c.messages[i].Content != "" {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty reports whether the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Conversation) hasOpenLocked() bool {
	n := len(c.messages)
	return n > 0 && c.messages[n-1].Open
}
