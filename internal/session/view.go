// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"

	"github.com/nextcloud/go_live_translation/internal/align"
	"github.com/nextcloud/go_live_translation/internal/speaker"
	"github.com/nextcloud/go_live_translation/internal/transcript"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

type SourceLine struct {
	Index   int           `json:"index"`
	Speaker string        `json:"speaker"`
	Color   speaker.Color `json:"color"`
	Text    string        `json:"text"`
}

type BackendView struct {
	Backend   translation.BackendID `json:"backend"`
	Label     string                `json:"label"`
	State     string                `json:"state"`
	InFlight  bool                  `json:"in_flight"`
	Offset    int                   `json:"offset"`
	Fragments []align.Fragment      `json:"fragments"`
}

// View is the live tail of a session: the current window with the partial
// line, and the aligned output of each backend's latest result.
type View struct {
	SessionID   string        `json:"session_id"`
	Source      string        `json:"source"`
	Target      string        `json:"target"`
	Total       int           `json:"total"`
	Window      []SourceLine  `json:"window"`
	Partial     string        `json:"partial,omitempty"`
	Backends    []BackendView `json:"backends"`
	StreamEnded bool          `json:"stream_ended"`
}

func (s *Session) View() View {
	snap := s.log.Snapshot()
	window := transcript.SelectWindow(snap.Lines, s.windowSize)

	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		SessionID:   s.id,
		Source:      s.source,
		Target:      s.target,
		Total:       len(snap.Lines),
		Window:      make([]SourceLine, len(window)),
		Partial:     snap.Partial.Text,
		StreamEnded: s.streamEnded,
	}
	for i, l := range window {
		v.Window[i] = SourceLine{Index: l.Index, Speaker: l.Speaker, Color: speaker.ColorFor(l.Speaker), Text: l.Text}
	}
	current := transcript.Window{Lines: window}.SourceLines()

	for _, id := range translation.Backends {
		state := s.dispatcher.State(id)
		bv := BackendView{
			Backend:  id,
			Label:    id.Label(),
			State:    state.String(),
			InFlight: state == translation.InFlight,
		}
		if res, ok := s.results[id]; ok {
			// The latest result is laid against the window on display now,
			// which may have moved on since the result was dispatched.
			a := align.Align(current, align.Trailing(res.Lines, s.windowSize))
			bv.Offset = a.Offset
			bv.Fragments = a.Fragments
		}
		v.Backends = append(v.Backends, bv)
	}
	return v
}

// DetailRow is one row of the full session table. Rows enumerate the
// non-empty transcript lines; Translations hold the latest result of each
// backend, indexed positionally by row.
type DetailRow struct {
	Index        int                                `json:"index"`
	Speaker      string                             `json:"speaker,omitempty"`
	Color        speaker.Color                      `json:"color,omitempty"`
	Text         string                             `json:"text"`
	Translations map[translation.BackendID]string   `json:"translations"`
	Latency      map[translation.BackendID]*float64 `json:"latency_ms"`
}

// LatencyLabel renders e.g. "MS: 412 ms / GPT: - ms".
func (r DetailRow) LatencyLabel() string {
	parts := make([]string, 0, len(translation.Backends))
	for _, id := range translation.Backends {
		value := "-"
		if ms := r.Latency[id]; ms != nil {
			value = fmt.Sprintf("%.0f", *ms)
		}
		parts = append(parts, fmt.Sprintf("%s: %s ms", id.ShortLabel(), value))
	}
	return strings.Join(parts, " / ")
}

func (s *Session) Detail() []DetailRow {
	lines := transcript.NonEmpty(s.log.Snapshot().Lines)

	s.mu.RLock()
	results := make(map[translation.BackendID][]string, len(s.results))
	for id, res := range s.results {
		results[id] = res.Lines
	}
	s.mu.RUnlock()

	count := len(lines)
	for _, translated := range results {
		count = max(count, len(translated))
	}

	rows := make([]DetailRow, count)
	for i := range rows {
		row := DetailRow{
			Index:        i,
			Translations: make(map[translation.BackendID]string, len(translation.Backends)),
			Latency:      make(map[translation.BackendID]*float64, len(translation.Backends)),
		}
		if i < len(lines) {
			line := lines[i]
			row.Text = line.Text
			if line.Speaker != "" {
				row.Speaker = line.Speaker
				row.Color = speaker.ColorFor(line.Speaker)
			}
		}
		for _, id := range translation.Backends {
			if translated := results[id]; i < len(translated) {
				row.Translations[id] = translated[i]
			}
			if ms, ok := s.tracks[id].Get(i); ok {
				row.Latency[id] = &ms
			}
		}
		rows[i] = row
	}
	return rows
}

// Latency returns a copy of the latency track of one backend.
func (s *Session) Latency(id translation.BackendID) map[int]float64 {
	track, ok := s.tracks[id]
	if !ok {
		return nil
	}
	return track.Snapshot()
}
