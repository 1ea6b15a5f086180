// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/edusphere/edusphere-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "EduSphere AI"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the roles the chat endpoint accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry of a Conversation.
//
// Content is mutable only while Open is true, which can only be the case for
// the last message of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Open is set while the message is still receiving stream deltas.
	Open bool `json:"-"`
}

// WireMessage is the role/content pair sent to the chat endpoint.
type WireMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a closed message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        newID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a closed assistant message, used for the
// fallback apology after a failed turn.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// Wire returns the role/content pair for the request body.
func (m Message) Wire() WireMessage {
	return WireMessage{Role: m.Role, Content: m.Content}
}

// Preview returns a single-line preview truncated to maxLen characters.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.SingleLine(m.Content), maxLen)
}

// IsEmpty reports whether the message has no visible content.
func (m Message) IsEmpty() bool {
	return m.Content == ""
}

func newID() string {
	return "msg_" + uuid.NewString()
}
