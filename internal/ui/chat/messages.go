// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/edusphere/edusphere-tui/internal/config"
	"github.com/edusphere/edusphere-tui/internal/model"
)

// SessionUpdateMsg carries a conversation snapshot.
type SessionUpdateMsg struct {
	Messages []model.Message
}

// TurnDoneMsg is sent when SendTurn returns.
type TurnDoneMsg struct {
	Err error
}

// SessionExpiredMsg is sent when a 401 ended the session.
type SessionExpiredMsg struct {
	Path string
}

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}
