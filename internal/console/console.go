// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console runs a translation session in-process with a terminal UI.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/recognition"
	"github.com/nextcloud/go_live_translation/internal/service"
	"github.com/nextcloud/go_live_translation/internal/session"
)

// programSink forwards session output to the TUI without blocking the
// session loop. Views may be dropped when the program lags; notifications
// are queued without limit.
type programSink struct {
	msgs  chan tea.Msg
	notes *notify.Queue
}

func newProgramSink() *programSink {
	return &programSink{
		msgs:  make(chan tea.Msg, constants.OutboundQueueSize),
		notes: notify.NewQueue(),
	}
}

func (s *programSink) Publish(v session.View) {
	select {
	case s.msgs <- viewMsg(v):
	default:
	}
}

func (s *programSink) Notify(n notify.Notification) { s.notes.Push(n) }

func (s *programSink) pump(ctx context.Context, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.msgs:
			p.Send(msg)
		case <-s.notes.Ready():
			for _, n := range s.notes.Drain() {
				p.Send(notificationMsg(n))
			}
		}
	}
}

// Run starts a session, streams audio from r to the recognition service and
// shows the session until the user quits.
func Run(ctx context.Context, app *service.Application, r io.Reader, source, target string) error {
	sink := newProgramSink()
	sess, err := app.StartSession(ctx, source, target, sink)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer app.StopSession(sess.ID())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(sess), tea.WithAltScreen(), tea.WithInputTTY(), tea.WithContext(ctx))
	go sink.pump(ctx, p)
	go streamAudio(ctx, app, sess, r)

	sink.Publish(sess.View())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}

func streamAudio(ctx context.Context, app *service.Application, sess *session.Session, r io.Reader) {
	logger := slog.With("component", "console_audio", "session_id", sess.ID())
	buf := make([]byte, constants.AudioChunkSize)

	for {
		select {
		case <-sess.StreamDone():
			return
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sendErr := app.SendAudio(ctx, sess.ID(), chunk); sendErr != nil {
				if !errors.Is(sendErr, recognition.ErrClosed) && ctx.Err() == nil {
					logger.Warn("forwarding audio failed", "error", sendErr)
				}
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("reading audio failed", "error", err)
			}
			logger.Info("audio input ended")
			return
		}
	}
}
