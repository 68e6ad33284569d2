// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/languages"
	"github.com/nextcloud/go_live_translation/internal/service"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

type fakeStream struct {
	ch    chan []byte
	audio chan []byte
	once  sync.Once
}

func (f *fakeStream) Messages() <-chan []byte { return f.ch }
func (f *fakeStream) Err() error              { return nil }

func (f *fakeStream) SendAudio(_ context.Context, chunk []byte) error {
	f.audio <- chunk
	return nil
}

func (f *fakeStream) Close() error {
	f.once.Do(func() { close(f.ch) })
	return nil
}

type prefixTranslator struct{ prefix string }

func (p prefixTranslator) Translate(_ context.Context, req translation.Request) (string, error) {
	var out []string
	for _, line := range strings.Split(req.Text, "\n") {
		out = append(out, p.prefix+line)
	}
	return strings.Join(out, "\n"), nil
}

type testServer struct {
	srv     *httptest.Server
	streams chan *fakeStream
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()
	cfg := &config.Config{
		APIToken:           token,
		RecognitionURL:     "ws://recognition.invalid/ws",
		SourceLang:         "en",
		TargetLang:         "ja",
		TranslationContext: config.DefaultTranslationContext,
	}
	ts := &testServer{streams: make(chan *fakeStream, 4)}
	app := service.NewApplication(cfg,
		service.WithTranslators(map[translation.BackendID]translation.Translator{
			translation.Regional: prefixTranslator{"MS "},
			translation.LLM:      prefixTranslator{"GPT "},
		}),
		service.WithDialer(func(_ context.Context, _ string) (service.AudioStream, error) {
			s := &fakeStream{ch: make(chan []byte, 16), audio: make(chan []byte, 16)}
			ts.streams <- s
			return s, nil
		}),
	)

	mux := http.NewServeMux()
	NewHandler(cfg, app).RegisterRoutes(mux)
	ts.srv = httptest.NewServer(AuthMiddleware(token, map[string]bool{"/heartbeat": true}, mux))
	t.Cleanup(func() {
		ts.srv.Close()
		app.Shutdown()
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestHeartbeatAndLanguages(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, "")

	resp, body := ts.do(t, http.MethodGet, "/heartbeat", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("unexpected heartbeat %d %s", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/v1/languages", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var langs []languages.LanguageModel
	if err := json.Unmarshal(body, &langs); err != nil {
		t.Fatal(err)
	}
	if len(langs) != 5 || langs[0].Code != "de" || langs[4].Code != "ja" {
		t.Fatalf("unexpected languages %+v", langs)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/v1/context/default", "")
	var ctxResp ContextResponse
	if err := json.Unmarshal(body, &ctxResp); err != nil || ctxResp.Context != config.DefaultTranslationContext {
		t.Fatalf("unexpected default context %s (%v)", body, err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, "s3cret")

	if resp, _ := ts.do(t, http.MethodGet, "/heartbeat", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("heartbeat must skip auth, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodGet, "/api/v1/languages", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodGet, "/api/v1/languages?token=wrong", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodGet, "/api/v1/languages?token=s3cret", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", resp.StatusCode)
	}
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, "")

	for _, path := range []string{"/api/v1/sessions/nope/view", "/api/v1/sessions/nope/table"} {
		if resp, _ := ts.do(t, http.MethodGet, path, ""); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestSocketRejectsBadLanguage(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, "")

	if resp, _ := ts.do(t, http.MethodGet, "/ws/session?target=klingon", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// readUntil reads socket frames until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, what string, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func TestSessionSocketFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, "")

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/session?source=en&target=ja"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := readUntil(t, conn, "session id", func(m ServerMessage) bool { return m.Type == MsgSession })
	id := hello.SessionID
	if id == "" {
		t.Fatalf("missing session id")
	}
	stream := <-ts.streams

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{9, 9}); err != nil {
		t.Fatal(err)
	}
	select {
	case chunk := <-stream.audio:
		if len(chunk) != 2 {
			t.Fatalf("unexpected audio %v", chunk)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("audio not forwarded")
	}

	stream.ch <- []byte(`{"type":"final","speaker":"Guest-1","text":"Hello"}`)
	msg := readUntil(t, conn, "translated view", func(m ServerMessage) bool {
		if m.Type != MsgView || m.View == nil || len(m.View.Backends) != 2 {
			return false
		}
		return len(m.View.Backends[0].Fragments) == 1 && len(m.View.Backends[1].Fragments) == 1
	})
	if got := msg.View.Backends[0].Fragments[0].Text; got != "MS Guest-1: Hello" {
		t.Fatalf("unexpected regional fragment %q", got)
	}

	resp, body := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/view", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"Hello"`) {
		t.Fatalf("unexpected view %d %s", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/table", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Guest-1") || !strings.Contains(string(body), "MS: ") {
		t.Fatalf("unexpected table %d %s", resp.StatusCode, body)
	}

	resp, body = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/context", `{"context":"be brief"}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "be brief") {
		t.Fatalf("unexpected context response %d %s", resp.StatusCode, body)
	}
	resp, body = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/context", `{"context":""}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "be brief") {
		t.Fatalf("blank context should keep the current one: %s", body)
	}

	if resp, _ := ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/languages", `{"source":"en","target":"xx"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad language, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/languages", `{"source":"en","target":"fr"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for language change, got %d", resp.StatusCode)
	}

	if resp, _ := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/backends/llm/reset", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for reset, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/backends/deepl/reset", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown backend, got %d", resp.StatusCode)
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgSetLanguages, Source: "en", Target: "zz"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "control error", func(m ServerMessage) bool { return m.Type == MsgError })

	resp, body = ts.do(t, http.MethodGet, "/api/v1/sessions", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), id) {
		t.Fatalf("session not listed: %s", body)
	}

	stream.Close()
	readUntil(t, conn, "stopped", func(m ServerMessage) bool { return m.Type == MsgStopped })
}
