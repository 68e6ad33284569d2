// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

type fakeStream struct {
	mu     sync.Mutex
	ch     chan []byte
	audio  [][]byte
	closed bool
}

func (f *fakeStream) Messages() <-chan []byte { return f.ch }
func (f *fakeStream) Err() error              { return nil }

func (f *fakeStream) SendAudio(_ context.Context, chunk []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, chunk)
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
	return nil
}

type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, req translation.Request) (string, error) {
	return req.Text, nil
}

func testConfig() *config.Config {
	return &config.Config{
		RecognitionURL: "ws://recognition.invalid/ws",
		SourceLang:     "en",
		TargetLang:     "ja",
	}
}

func newTestApp(t *testing.T) (*Application, *[]*fakeStream, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var streams []*fakeStream
	var langs []string
	app := NewApplication(testConfig(),
		WithTranslators(map[translation.BackendID]translation.Translator{
			translation.Regional: echoTranslator{},
			translation.LLM:      echoTranslator{},
		}),
		WithDialer(func(_ context.Context, language string) (AudioStream, error) {
			mu.Lock()
			defer mu.Unlock()
			s := &fakeStream{ch: make(chan []byte, 8)}
			streams = append(streams, s)
			langs = append(langs, language)
			return s, nil
		}),
	)
	t.Cleanup(app.Shutdown)
	return app, &streams, &langs
}

func TestStartSessionDefaultsAndLookup(t *testing.T) {
	t.Parallel()
	app, streams, langs := newTestApp(t)

	sess, err := app.StartSession(context.Background(), "", "", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if src, tgt := sess.Languages(); src != "en" || tgt != "ja" {
		t.Fatalf("unexpected defaults %s/%s", src, tgt)
	}
	if (*langs)[0] != "en" {
		t.Fatalf("recognition dialed with %q", (*langs)[0])
	}

	got, err := app.Session(sess.ID())
	if err != nil || got != sess {
		t.Fatalf("Session lookup failed: %v", err)
	}
	if err := app.SendAudio(context.Background(), sess.ID(), []byte{1, 2}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if len((*streams)[0].audio) != 1 {
		t.Fatalf("audio not forwarded")
	}

	list := app.Sessions()
	if len(list) != 1 || list[0].ID != sess.ID() {
		t.Fatalf("unexpected session list %+v", list)
	}
}

func TestStartSessionRejectsBadLanguage(t *testing.T) {
	t.Parallel()
	app, streams, _ := newTestApp(t)

	if _, err := app.StartSession(context.Background(), "en", "zz", nil); err == nil {
		t.Fatalf("expected language error")
	}
	if len(*streams) != 0 {
		t.Fatalf("no recognition stream should be opened for an invalid request")
	}
}

func TestStopSession(t *testing.T) {
	t.Parallel()
	app, streams, _ := newTestApp(t)

	sess, err := app.StartSession(context.Background(), "fr", "de", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	(*streams)[0].ch <- []byte(`{"type":"final","speaker":"Guest-1","text":"bonjour"}`)

	app.StopSession(sess.ID())
	select {
	case <-sess.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatalf("session loop did not stop")
	}
	if !(*streams)[0].closed {
		t.Fatalf("recognition stream not closed")
	}
	if _, err := app.Session(sess.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := app.SendAudio(context.Background(), sess.ID(), nil); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
