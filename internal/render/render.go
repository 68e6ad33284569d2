// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render draws session views as terminal text.
package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nextcloud/go_live_translation/internal/session"
	"github.com/nextcloud/go_live_translation/internal/speaker"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

var paletteColors = map[speaker.Color]lipgloss.Color{
	speaker.Blue:    lipgloss.Color("#3b82f6"),
	speaker.Emerald: lipgloss.Color("#10b981"),
	speaker.Purple:  lipgloss.Color("#a855f7"),
	speaker.Amber:   lipgloss.Color("#f59e0b"),
	speaker.Rose:    lipgloss.Color("#f43f5e"),
	speaker.Indigo:  lipgloss.Color("#6366f1"),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("246"))
	partialStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("239")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func SpeakerStyle(c speaker.Color) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if color, ok := paletteColors[c]; ok {
		style = style.Foreground(color)
	}
	return style
}

func labelled(name string, c speaker.Color, text string) string {
	if name == "" {
		return text
	}
	return SpeakerStyle(c).Render(name+":") + " " + text
}

// Live renders the transcription panel and one panel per backend. Panels are
// placed side by side when width allows it.
func Live(v session.View, width int) string {
	panels := []string{transcriptPanel(v)}
	for _, b := range v.Backends {
		panels = append(panels, backendPanel(b))
	}

	if width <= 0 {
		return lipgloss.JoinVertical(lipgloss.Left, panels...)
	}

	panelWidth := width/len(panels) - 2
	if panelWidth < 30 {
		for i, p := range panels {
			panels[i] = panelStyle.Width(width - 2).Render(p)
		}
		return lipgloss.JoinVertical(lipgloss.Left, panels...)
	}
	for i, p := range panels {
		panels[i] = panelStyle.Width(panelWidth).Render(p)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func transcriptPanel(v session.View) string {
	lines := []string{titleStyle.Render("Transcription")}
	for _, l := range v.Window {
		lines = append(lines, labelled(l.Speaker, l.Color, l.Text))
	}
	if v.Partial != "" {
		lines = append(lines, partialStyle.Render(v.Partial))
	}
	if len(v.Window) == 0 && v.Partial == "" {
		lines = append(lines, mutedStyle.Render("Waiting for speech..."))
	}
	if v.StreamEnded {
		lines = append(lines, mutedStyle.Render("Recognition stopped."))
	}
	return strings.Join(lines, "\n")
}

func backendPanel(b session.BackendView) string {
	title := titleStyle.Render(b.Label)
	switch b.State {
	case translation.InFlight.String():
		title += " " + busyStyle.Render("translating...")
	case translation.Disabled.String():
		title += " " + busyStyle.Render("disabled")
	}

	lines := []string{title}
	for _, f := range b.Fragments {
		if f.Attributed {
			lines = append(lines, labelled(f.Speaker, f.Color, f.Text))
		} else {
			lines = append(lines, f.Text)
		}
	}
	if len(b.Fragments) == 0 {
		lines = append(lines, mutedStyle.Render("No translation yet."))
	}
	return strings.Join(lines, "\n")
}

// DetailTable renders one row per transcript index with both translations
// and the recorded latencies.
func DetailTable(rows []session.DetailRow) string {
	headers := []string{"Line #", "Speaker", "Transcription"}
	for _, id := range translation.Backends {
		headers = append(headers, id.Label())
	}
	headers = append(headers, "Latency")

	data := make([][]string, 0, len(rows))
	colors := make([]speaker.Color, 0, len(rows))
	for _, r := range rows {
		record := []string{strconv.Itoa(r.Index + 1), r.Speaker, r.Text}
		for _, id := range translation.Backends {
			record = append(record, r.Translations[id])
		}
		record = append(record, r.LatencyLabel())
		data = append(data, record)
		colors = append(colors, r.Color)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(colors) && colors[row] != "" {
				return SpeakerStyle(colors[row]).Padding(0, 1)
			}
			return cellStyle
		})
	return t.Render()
}
