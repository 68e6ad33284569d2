// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/render"
	"github.com/nextcloud/go_live_translation/internal/session"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

const maxNotifications = 3

type tab int

const (
	tabLive tab = iota
	tabDetail
)

type viewMsg session.View

type notificationMsg notify.Notification

type errMsg struct{ err error }

// Controller is the part of a session the console drives.
type Controller interface {
	Detail() []session.DetailRow
	ResetBackend(ctx context.Context, id translation.BackendID) error
}

type model struct {
	ctrl          Controller
	view          session.View
	tab           tab
	notifications []notify.Notification
	status        string
	width         int
	height        int
}

func newModel(ctrl Controller) model {
	return model{ctrl: ctrl}
}

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	errorTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab":
			if m.tab == tabLive {
				m.tab = tabDetail
			} else {
				m.tab = tabLive
			}
		case "1":
			return m, m.reset(translation.Regional)
		case "2":
			return m, m.reset(translation.LLM)
		}

	case viewMsg:
		m.view = session.View(msg)
		if m.view.StreamEnded {
			m.status = "recognition stopped"
		}

	case notificationMsg:
		m.notifications = append(m.notifications, notify.Notification(msg))
		if len(m.notifications) > maxNotifications {
			m.notifications = m.notifications[len(m.notifications)-maxNotifications:]
		}

	case errMsg:
		m.status = msg.err.Error()
	}
	return m, nil
}

func (m model) reset(id translation.BackendID) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.ResetBackend(context.Background(), id); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m model) View() string {
	var b strings.Builder

	live, detail := inactiveTabStyle, inactiveTabStyle
	if m.tab == tabLive {
		live = activeTabStyle
	} else {
		detail = activeTabStyle
	}
	header := live.Render("Live") + detail.Render("Detail")
	if m.view.SessionID != "" {
		header += statusStyle.Render("  " + m.view.Source + " → " + m.view.Target)
	}
	if m.status != "" {
		header += statusStyle.Render("  [" + m.status + "]")
	}
	b.WriteString(header + "\n\n")

	if m.tab == tabLive {
		b.WriteString(render.Live(m.view, m.width))
	} else {
		b.WriteString(render.DetailTable(m.ctrl.Detail()))
	}
	b.WriteString("\n")

	for _, n := range m.notifications {
		b.WriteString(errorTitleStyle.Render(n.Title) + " " + n.Description + "\n")
	}

	b.WriteString(helpStyle.Render("tab: switch view • 1/2: re-enable backend • q: quit"))
	return b.String()
}
