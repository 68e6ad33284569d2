// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/transcript"
)

type BackendID string

const (
	Regional BackendID = "REGIONAL"
	LLM      BackendID = "LLM"
)

// Backends lists the backends in display order.
var Backends = []BackendID{Regional, LLM}

func ParseBackendID(s string) (BackendID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Regional):
		return Regional, nil
	case string(LLM):
		return LLM, nil
	}
	return "", fmt.Errorf("unknown backend %q", s)
}

func (b BackendID) Label() string {
	switch b {
	case Regional:
		return "MS Translator"
	case LLM:
		return "GPT 4o-mini"
	}
	return string(b)
}

// ShortLabel is used in compact latency columns.
func (b BackendID) ShortLabel() string {
	switch b {
	case Regional:
		return "MS"
	case LLM:
		return "GPT"
	}
	return string(b)
}

func (b BackendID) Subsystem() notify.Subsystem {
	if b == LLM {
		return notify.SubsystemLLM
	}
	return notify.SubsystemRegional
}

// Request is the payload of a single dispatch. Context is only used by the
// LLM backend.
type Request struct {
	Text    string
	Source  string
	Target  string
	Context string
}

type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Result is one successful translation of a dispatched window. Window is the
// snapshot taken at dispatch time.
type Result struct {
	Backend   BackendID         `json:"backend"`
	Window    transcript.Window `json:"-"`
	Lines     []string          `json:"lines"`
	ElapsedMs float64           `json:"elapsed_ms"`
}

type Outcome struct {
	Backend BackendID
	Result  Result
	Err     error
}
