// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package constants

import "time"

const (
	WindowSize                  = 10
	RecognitionHandshakeTimeout = 30 * time.Second
	RecognitionWriteTimeout     = 10 * time.Second
	TranslationTimeout          = 30 * time.Second
	SendTimeout                 = 10 * time.Second
	SocketPingInterval          = 30 * time.Second
	SocketPongTimeout           = 60 * time.Second
	HTTPShutdownTimeout         = 30 * time.Second
	AudioChunkSize              = 4096
	AudioQueueSize              = 64
	RecognitionQueueSize        = 256
	ControlQueueSize            = 16
	OutboundQueueSize           = 32
	MaxSocketMessageSize        = 1 << 20
)
