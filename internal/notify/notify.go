// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify defines the error taxonomy shared by the recognition and
// translation subsystems and the user-visible notifications derived from it.
package notify

import (
	"errors"
	"time"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransport     = errors.New("transport error")
	ErrParse         = errors.New("parse error")
	ErrConnection    = errors.New("connection error")
)

type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindTransport     Kind = "transport"
	KindParse         Kind = "parse"
	KindConnection    Kind = "connection"
)

type Subsystem string

const (
	SubsystemRecognition Subsystem = "recognition"
	SubsystemRegional    Subsystem = "regional"
	SubsystemLLM         Subsystem = "llm"
)

// Notification is a non-blocking, user-facing error report. It never carries
// state changes of its own.
type Notification struct {
	Subsystem   Subsystem `json:"subsystem"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Detail      string    `json:"detail,omitempty"`
	Time        time.Time `json:"time"`
}

// Classify maps a wrapped error onto its taxonomy kind. Errors outside the
// taxonomy are treated as transport failures, which are always recoverable.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrConnection):
		return KindConnection
	default:
		return KindTransport
	}
}

func titleFor(kind Kind) string {
	switch kind {
	case KindConfiguration:
		return "Configuration Error"
	case KindParse:
		return "Data Error"
	case KindConnection:
		return "Connection Error"
	default:
		return "Translation Error"
	}
}

// FromError builds the notification for a failure in the given subsystem.
// label is the human name of the subsystem, e.g. "MS Translator".
func FromError(subsystem Subsystem, label string, err error) Notification {
	kind := Classify(err)
	n := Notification{
		Subsystem: subsystem,
		Kind:      kind,
		Title:     titleFor(kind),
		Time:      time.Now(),
	}
	if err != nil {
		n.Detail = err.Error()
	}

	switch {
	case subsystem == SubsystemRecognition && kind == KindConnection:
		n.Description = "Recognition stream error. Audio capture stopped."
	case subsystem == SubsystemRecognition:
		n.Description = "Error processing transcription data."
	case kind == KindConfiguration:
		n.Description = label + " credentials are not set."
	case kind == KindParse:
		n.Description = "Unexpected response from " + label + "."
	default:
		n.Description = "Failed to translate using " + label + "."
	}
	return n
}
