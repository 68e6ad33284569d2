// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/session"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

type fakeController struct {
	resets []translation.BackendID
	err    error
}

func (f *fakeController) Detail() []session.DetailRow {
	return []session.DetailRow{{Index: 0, Speaker: "Guest-1", Text: "Hello"}}
}

func (f *fakeController) ResetBackend(_ context.Context, id translation.BackendID) error {
	f.resets = append(f.resets, id)
	return f.err
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestModelSwitchesTabs(t *testing.T) {
	t.Parallel()

	m := newModel(&fakeController{})
	m, _ = update(t, m, viewMsg(session.View{
		SessionID: "s",
		Source:    "en",
		Target:    "ja",
		Window:    []session.SourceLine{{Speaker: "Guest-1", Text: "live line"}},
	}))

	if out := m.View(); !strings.Contains(out, "live line") || !strings.Contains(out, "en → ja") {
		t.Fatalf("live tab missing content:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabDetail {
		t.Fatalf("expected detail tab")
	}
	if out := m.View(); !strings.Contains(out, "Line #") || !strings.Contains(out, "Hello") {
		t.Fatalf("detail tab missing table:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabLive {
		t.Fatalf("expected live tab")
	}
}

func TestModelKeepsRecentNotifications(t *testing.T) {
	t.Parallel()

	m := newModel(&fakeController{})
	for i := 0; i < 5; i++ {
		m, _ = update(t, m, notificationMsg(notify.Notification{Title: "Translation Error", Description: string(rune('a' + i))}))
	}
	if len(m.notifications) != maxNotifications {
		t.Fatalf("expected %d notifications, got %d", maxNotifications, len(m.notifications))
	}
	if m.notifications[0].Description != "c" {
		t.Fatalf("oldest notifications should be dropped first")
	}
}

func TestModelResetAndQuit(t *testing.T) {
	t.Parallel()

	ctrl := &fakeController{err: errors.New("boom")}
	m := newModel(ctrl)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	if cmd == nil {
		t.Fatalf("expected reset command")
	}
	msg := cmd()
	if len(ctrl.resets) != 1 || ctrl.resets[0] != translation.LLM {
		t.Fatalf("unexpected resets %v", ctrl.resets)
	}
	m, _ = update(t, m, msg)
	if m.status != "boom" {
		t.Fatalf("reset error should show in status, got %q", m.status)
	}

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestModelShowsStreamEnd(t *testing.T) {
	t.Parallel()

	m := newModel(&fakeController{})
	m, _ = update(t, m, viewMsg(session.View{SessionID: "s", StreamEnded: true}))
	if !strings.Contains(m.View(), "recognition stopped") {
		t.Fatalf("expected stream end status")
	}
}
