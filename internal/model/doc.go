// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered, append-only message list; the last message may be open
//   - Message: role, content, timestamp and the open flag
//   - WireMessage: the {role, content} pair sent to the chat endpoint
//   - Role: user or assistant
//
// # Usage
//
//	conv := model.NewConversation()
//	_ = conv.Append(model.NewUserMessage("Which courses fit a data science minor?"))
//	id, _ := conv.OpenAssistant()
//	_ = conv.UpdateOpen(func(cur string) string { return cur + "Try STAT 200." })
//	conv.CloseOpen()
package model
