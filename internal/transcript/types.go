// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "strings"

// SpeakerDelimiter separates the speaker label from the spoken text in the
// rendered form of a line.
const SpeakerDelimiter = ": "

// Line is a finalized transcript line. Index is its position in the log.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Index   int    `json:"index"`
}

func (l Line) String() string {
	return l.Speaker + SpeakerDelimiter + l.Text
}

// Empty reports whether the line carries no spoken text.
func (l Line) Empty() bool {
	return strings.TrimSpace(l.Text) == ""
}

type Partial struct {
	Text string `json:"text"`
}

type Snapshot struct {
	Lines   []Line  `json:"lines"`
	Partial Partial `json:"partial"`
}

// Window is a trailing slice of non-empty lines together with the number of
// non-empty lines the log held when it was taken. Total counts in the same
// space as the rows of the detail table.
type Window struct {
	Lines []Line `json:"lines"`
	Total int    `json:"total"`
}

func (w Window) Empty() bool {
	return len(w.Lines) == 0
}

// SourceLines returns the window in its "speaker: text" form.
func (w Window) SourceLines() []string {
	out := make([]string, len(w.Lines))
	for i, l := range w.Lines {
		out[i] = l.String()
	}
	return out
}

// Text is the payload sent to translation backends.
func (w Window) Text() string {
	return strings.Join(w.SourceLines(), "\n")
}
