// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/languages"
	"github.com/nextcloud/go_live_translation/internal/recognition"
	"github.com/nextcloud/go_live_translation/internal/session"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

var ErrSessionNotFound = errors.New("session not found")

// AudioStream is a live recognition connection.
type AudioStream interface {
	session.Stream
	SendAudio(ctx context.Context, chunk []byte) error
	Close() error
}

// Dialer opens a recognition stream for a language code.
type Dialer func(ctx context.Context, language string) (AudioStream, error)

type sessionState struct {
	session *session.Session
	stream  AudioStream
	cancel  context.CancelFunc
	created time.Time
}

type Application struct {
	mu          sync.Mutex
	cfg         *config.Config
	translators map[translation.BackendID]translation.Translator
	dial        Dialer
	sessions    map[string]*sessionState
}

type Option func(*Application)

// WithTranslators replaces the configured translation backends.
func WithTranslators(t map[translation.BackendID]translation.Translator) Option {
	return func(app *Application) { app.translators = t }
}

func WithDialer(d Dialer) Option {
	return func(app *Application) { app.dial = d }
}

func NewApplication(cfg *config.Config, opts ...Option) *Application {
	httpClient := translation.NewHTTPClient(cfg.SkipCertVerify)
	app := &Application{
		cfg: cfg,
		translators: map[translation.BackendID]translation.Translator{
			translation.Regional: translation.NewRegionalTranslator(cfg.Regional, httpClient),
			translation.LLM:      translation.NewLLMTranslator(cfg.LLM, httpClient),
		},
		sessions: make(map[string]*sessionState),
	}
	app.dial = func(ctx context.Context, language string) (AudioStream, error) {
		c, err := recognition.Dial(ctx, cfg.RecognitionURL, language, cfg.SkipCertVerify)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	for _, opt := range opts {
		opt(app)
	}

	if cfg.Regional.SubscriptionKey == "" || cfg.Regional.Region == "" {
		slog.Warn("MS Translator credentials not set, regional translations will fail")
	}
	if cfg.LLM.Endpoint == "" || cfg.LLM.APIKey == "" {
		slog.Warn("Azure OpenAI credentials not set, LLM translations will fail")
	}

	slog.Info("application service initialized", "recognition_url", cfg.RecognitionURL)
	return app
}

// StartSession connects to the recognition service and starts a session
// loop. Empty languages fall back to the configured defaults.
func (app *Application) StartSession(ctx context.Context, source, target string, sink session.Sink) (*session.Session, error) {
	if source == "" {
		source = app.cfg.SourceLang
	}
	if target == "" {
		target = app.cfg.TargetLang
	}
	src, err := languages.Normalize(source)
	if err != nil {
		return nil, fmt.Errorf("source language: %w", err)
	}

	id := uuid.NewString()
	sess, err := session.New(session.Options{
		ID:          id,
		Source:      src,
		Target:      target,
		Context:     app.cfg.TranslationContext,
		Translators: app.translators,
		Sink:        sink,
		Logger:      slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	stream, err := app.dial(ctx, src)
	if err != nil {
		slog.Error("failed to connect to recognition service", "error", err, "session_id", id)
		return nil, fmt.Errorf("recognition connect: %w", err)
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	st := &sessionState{session: sess, stream: stream, cancel: cancel, created: time.Now()}

	app.mu.Lock()
	app.sessions[id] = st
	app.mu.Unlock()

	go func() {
		if err := sess.Run(sessCtx, stream); err != nil {
			slog.Error("session loop failed", "error", err, "session_id", id)
		}
	}()

	slog.Info("session started", "session_id", id, "source", src, "target", target)
	return sess, nil
}

func (app *Application) Session(id string) (*session.Session, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	st, ok := app.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return st.session, nil
}

// SendAudio forwards one audio chunk to the session's recognition stream.
func (app *Application) SendAudio(ctx context.Context, id string, chunk []byte) error {
	app.mu.Lock()
	st, ok := app.sessions[id]
	app.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return st.stream.SendAudio(ctx, chunk)
}

// StopSession closes the recognition stream and stops the session loop.
func (app *Application) StopSession(id string) {
	app.mu.Lock()
	st, ok := app.sessions[id]
	delete(app.sessions, id)
	app.mu.Unlock()

	if !ok {
		return
	}
	st.stop()
	slog.Info("session stopped", "session_id", id)
}

func (st *sessionState) stop() {
	if err := st.stream.Close(); err != nil {
		slog.Warn("closing recognition stream", "error", err, "session_id", st.session.ID())
	}
	st.cancel()
}

type Summary struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Target      string    `json:"target"`
	Lines       int       `json:"lines"`
	StreamEnded bool      `json:"stream_ended"`
	CreatedAt   time.Time `json:"created_at"`
}

func (app *Application) Sessions() []Summary {
	app.mu.Lock()
	states := make([]*sessionState, 0, len(app.sessions))
	for _, st := range app.sessions {
		states = append(states, st)
	}
	app.mu.Unlock()

	out := make([]Summary, 0, len(states))
	for _, st := range states {
		src, tgt := st.session.Languages()
		ended := false
		select {
		case <-st.session.StreamDone():
			ended = true
		default:
		}
		out = append(out, Summary{
			ID:          st.session.ID(),
			Source:      src,
			Target:      tgt,
			Lines:       st.session.Lines(),
			StreamEnded: ended,
			CreatedAt:   st.created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (app *Application) Shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	for id, st := range app.sessions {
		st.stop()
		delete(app.sessions, id)
	}
	slog.Info("application shutdown complete")
}
