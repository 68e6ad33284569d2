// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/session"
)

type LanguagesSetRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type ContextSetRequest struct {
	Context string `json:"context"`
}

type ContextResponse struct {
	Context string `json:"context"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// Socket message types.
const (
	MsgSession      = "session"
	MsgView         = "view"
	MsgNotification = "notification"
	MsgStopped      = "stopped"
	MsgError        = "error"
	MsgSetLanguages = "set_languages"
	MsgSetContext   = "set_context"
	MsgResetBackend = "reset_backend"
)

// ServerMessage is a JSON frame sent to the session socket.
type ServerMessage struct {
	Type         string               `json:"type"`
	SessionID    string               `json:"session_id,omitempty"`
	View         *session.View        `json:"view,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// ClientMessage is a JSON control frame received on the session socket.
type ClientMessage struct {
	Type    string `json:"type"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
	Context string `json:"context,omitempty"`
	Backend string `json:"backend,omitempty"`
}
