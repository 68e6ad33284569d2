// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recognition

import (
	"encoding/json"
	"fmt"

	"github.com/nextcloud/go_live_translation/internal/notify"
)

const (
	EventFinal   = "final"
	EventPartial = "partial"
)

// Event is one message of the recognition stream.
type Event struct {
	Type    string `json:"type"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func (e Event) Known() bool {
	return e.Type == EventFinal || e.Type == EventPartial
}

// ParseEvent decodes a recognition message. Messages of unknown type decode
// without error; callers skip them with Known.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: decoding recognition event: %v", notify.ErrParse, err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: recognition event without type", notify.ErrParse)
	}
	return ev, nil
}
