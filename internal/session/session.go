// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of one live translation session and runs
// the loop that serializes recognition events, control requests and
// translation outcomes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/languages"
	"github.com/nextcloud/go_live_translation/internal/latency"
	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/recognition"
	"github.com/nextcloud/go_live_translation/internal/transcript"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

var ErrStopped = errors.New("session stopped")

// Stream is the inbound side of a recognition connection.
type Stream interface {
	Messages() <-chan []byte
	Err() error
}

// Sink receives views and notifications from the session loop. Both methods
// are called from the loop and must not block.
type Sink interface {
	Publish(View)
	Notify(notify.Notification)
}

type nopSink struct{}

func (nopSink) Publish(View)               {}
func (nopSink) Notify(notify.Notification) {}

type Options struct {
	ID          string
	Source      string
	Target      string
	Context     string
	WindowSize  int
	Translators map[translation.BackendID]translation.Translator
	Sink        Sink
	Logger      *slog.Logger
}

type control func(ctx context.Context) error

type controlReq struct {
	fn    control
	reply chan error
}

type Session struct {
	id         string
	windowSize int
	log        *transcript.Log
	dispatcher *translation.Dispatcher
	tracks     map[translation.BackendID]*latency.Track
	sink       Sink

	controls   chan controlReq
	streamDone chan struct{}
	stopped    chan struct{}
	doneOnce   sync.Once

	mu           sync.RWMutex
	source       string
	target       string
	instructions string
	results      map[translation.BackendID]translation.Result
	streamEnded  bool

	logger *slog.Logger
}

func New(opts Options) (*Session, error) {
	source, err := languages.Normalize(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("source language: %w", err)
	}
	target, err := languages.Normalize(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("target language: %w", err)
	}

	if opts.WindowSize <= 0 {
		opts.WindowSize = constants.WindowSize
	}
	if strings.TrimSpace(opts.Context) == "" {
		opts.Context = config.DefaultTranslationContext
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "session", "session_id", opts.ID)

	tracks := make(map[translation.BackendID]*latency.Track, len(translation.Backends))
	for _, id := range translation.Backends {
		tracks[id] = latency.NewTrack()
	}

	return &Session{
		id:           opts.ID,
		windowSize:   opts.WindowSize,
		log:          transcript.NewLog(opts.WindowSize),
		dispatcher:   translation.NewDispatcher(opts.Translators, logger),
		tracks:       tracks,
		sink:         opts.Sink,
		controls:     make(chan controlReq, constants.ControlQueueSize),
		streamDone:   make(chan struct{}),
		stopped:      make(chan struct{}),
		source:       source,
		target:       target,
		instructions: opts.Context,
		results:      make(map[translation.BackendID]translation.Result),
		logger:       logger,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

// StreamDone is closed once the recognition stream has ended. Audio should
// no longer be forwarded after that.
func (s *Session) StreamDone() <-chan struct{} {
	return s.streamDone
}

// Stopped is closed when Run returns.
func (s *Session) Stopped() <-chan struct{} {
	return s.stopped
}

func (s *Session) Languages() (source, target string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.target
}

func (s *Session) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instructions
}

// Lines is the number of finalized lines, blank ones included.
func (s *Session) Lines() int {
	return s.log.Len()
}

// Run processes the stream until ctx is cancelled. The loop keeps serving
// controls and translation outcomes after the stream has ended.
func (s *Session) Run(ctx context.Context, stream Stream) error {
	defer close(s.stopped)

	s.logger.Info("session started")
	defer s.logger.Info("session stopped")

	var msgs <-chan []byte
	if stream != nil {
		msgs = stream.Messages()
	} else {
		s.endStream(nil)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				s.endStream(stream.Err())
				continue
			}
			s.handleMessage(ctx, msg)
		case req := <-s.controls:
			req.reply <- req.fn(ctx)
		case out := <-s.dispatcher.Outcomes():
			s.handleOutcome(out)
		}
	}
}

func (s *Session) handleMessage(ctx context.Context, msg []byte) {
	ev, err := recognition.ParseEvent(msg)
	if err != nil {
		s.logger.Warn("invalid recognition event", "error", err)
		s.sink.Notify(notify.FromError(notify.SubsystemRecognition, "Recognition", err))
		return
	}

	if !ev.Known() {
		s.logger.Debug("ignoring recognition event", "type", ev.Type)
		return
	}

	if ev.Type == recognition.EventFinal {
		line := s.log.AppendFinal(ev.Speaker, ev.Text)
		s.logger.Debug("final line", "index", line.Index, "speaker", line.Speaker)
		s.dispatch(ctx)
	} else {
		s.log.SetPartial(ev.Text)
	}
	s.publish()
}

func (s *Session) dispatch(ctx context.Context) {
	s.mu.RLock()
	source, target, instructions := s.source, s.target, s.instructions
	s.mu.RUnlock()

	started := s.dispatcher.Dispatch(ctx, s.log.Window(), source, target, instructions)
	if len(started) > 0 {
		s.logger.Debug("translation dispatched", "backends", started)
	}
}

func (s *Session) handleOutcome(out translation.Outcome) {
	defer s.publish()
	defer s.dispatcher.Complete(out)

	if out.Err != nil {
		s.logger.Warn("translation failed", "backend", out.Backend, "error", out.Err)
		s.sink.Notify(notify.FromError(out.Backend.Subsystem(), out.Backend.Label(), out.Err))
		return
	}

	res := out.Result
	s.mu.Lock()
	s.results[out.Backend] = res
	s.mu.Unlock()

	if track, ok := s.tracks[out.Backend]; ok {
		if set := track.Record(res.Window.Total, len(res.Lines), res.ElapsedMs); len(set) > 0 {
			s.logger.Debug("latency recorded", "backend", out.Backend, "rows", set, "elapsed_ms", res.ElapsedMs)
		}
	}
}

func (s *Session) endStream(err error) {
	s.doneOnce.Do(func() {
		if err != nil {
			s.logger.Warn("recognition stream failed", "error", err)
			s.sink.Notify(notify.FromError(notify.SubsystemRecognition, "Recognition", err))
		}
		s.mu.Lock()
		s.streamEnded = true
		s.mu.Unlock()
		close(s.streamDone)
		s.publish()
	})
}

func (s *Session) publish() {
	s.sink.Publish(s.View())
}

func (s *Session) do(ctx context.Context, fn control) error {
	req := controlReq{fn: fn, reply: make(chan error, 1)}
	select {
	case s.controls <- req:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetLanguages changes the translation pair. A change counts as a transcript
// change and triggers a dispatch of the current window.
func (s *Session) SetLanguages(ctx context.Context, source, target string) error {
	src, err := languages.Normalize(source)
	if err != nil {
		return fmt.Errorf("source language: %w", err)
	}
	tgt, err := languages.Normalize(target)
	if err != nil {
		return fmt.Errorf("target language: %w", err)
	}

	return s.do(ctx, func(loopCtx context.Context) error {
		s.mu.Lock()
		changed := s.source != src || s.target != tgt
		s.source, s.target = src, tgt
		s.mu.Unlock()

		if !changed {
			return nil
		}
		s.logger.Info("languages changed", "source", src, "target", tgt)
		s.dispatch(loopCtx)
		s.publish()
		return nil
	})
}

// SetContext replaces the LLM instructions for future dispatches. Blank text
// keeps the current instructions.
func (s *Session) SetContext(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.do(ctx, func(context.Context) error {
		s.mu.Lock()
		s.instructions = text
		s.mu.Unlock()
		s.logger.Info("translation context updated", "length", len(text))
		return nil
	})
}

// ResetBackend re-enables a backend disabled by a configuration failure.
func (s *Session) ResetBackend(ctx context.Context, id translation.BackendID) error {
	return s.do(ctx, func(context.Context) error {
		if err := s.dispatcher.Reset(id); err != nil {
			return err
		}
		s.logger.Info("backend reset", "backend", id)
		s.publish()
		return nil
	})
}
