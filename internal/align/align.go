// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package align maps a backend's translated lines back onto the
// speaker-tagged source lines they were produced from.
//
// The join is positional: translated line i is paired with source line i.
// When a backend merges or splits lines the pairing drifts; that is accepted
// and not corrected by any reflow or diff.
package align

import (
	"regexp"
	"strings"

	"github.com/nextcloud/go_live_translation/internal/speaker"
	"github.com/nextcloud/go_live_translation/internal/transcript"
)

// Fragment is one rendered translated line.
type Fragment struct {
	Speaker    string        `json:"speaker,omitempty"`
	Color      speaker.Color `json:"color,omitempty"`
	Text       string        `json:"text"`
	Attributed bool          `json:"attributed"`
}

type Alignment struct {
	// Offset is len(source) - len(translated). It is informational only.
	Offset    int        `json:"offset"`
	Fragments []Fragment `json:"fragments"`
}

// echoedLabelPatterns are speaker labels backends tend to repeat at the start
// of a translated line, in source and target language forms.
var echoedLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^Guest-\d+\s*[:：]\s*`),
	regexp.MustCompile(`^ゲスト[-\s]*\d+\s*[:：]\s*`),
	regexp.MustCompile(`^(?:Invitado|Invitada|Invité|Invitée|Gast)[-\s]*\d+\s*:\s*`),
}

// SplitLines splits text into its non-empty lines.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Trailing returns the last n elements of lines.
func Trailing(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// SpeakerOf returns the label before the first delimiter of a source line.
func SpeakerOf(sourceLine string) (string, bool) {
	label, _, found := strings.Cut(sourceLine, transcript.SpeakerDelimiter)
	if !found || label == "" {
		return "", false
	}
	return label, true
}

// Align produces one fragment per translated line.
func Align(source, translated []string) Alignment {
	out := Alignment{
		Offset:    len(source) - len(translated),
		Fragments: make([]Fragment, 0, len(translated)),
	}

	for i, line := range translated {
		var label string
		var ok bool
		if i < len(source) {
			label, ok = SpeakerOf(source[i])
		}

		frag := Fragment{Text: stripEchoedLabel(line, label)}
		if ok {
			frag.Speaker = label
			frag.Color = speaker.ColorFor(label)
			frag.Attributed = true
		}
		out.Fragments = append(out.Fragments, frag)
	}
	return out
}

func stripEchoedLabel(line, label string) string {
	line = strings.TrimSpace(line)
	for _, p := range echoedLabelPatterns {
		if loc := p.FindStringIndex(line); loc != nil {
			return strings.TrimSpace(line[loc[1]:])
		}
	}
	if label != "" {
		for _, sep := range []string{":", "："} {
			if rest, found := strings.CutPrefix(line, label+sep); found {
				return strings.TrimSpace(rest)
			}
		}
	}
	return line
}
