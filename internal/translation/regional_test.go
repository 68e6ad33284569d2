// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/notify"
)

func TestRegionalTranslate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/translate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api-version") != "3.0" || q.Get("from") != "en" || q.Get("to") != "ja" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "key" || r.Header.Get("Ocp-Apim-Subscription-Region") != "japaneast" {
			t.Errorf("missing subscription headers")
		}
		var body []map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) != 1 || body[0]["Text"] != "Guest-1: Hello" {
			t.Errorf("unexpected body %v (%v)", body, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"translations":[{"text":"ゲスト1: こんにちは","to":"ja"}]}]`))
	}))
	defer srv.Close()

	tr := NewRegionalTranslator(config.RegionalConfig{
		SubscriptionKey: "key",
		Region:          "japaneast",
		Endpoint:        srv.URL + "/",
	}, srv.Client())

	got, err := tr.Translate(context.Background(), Request{Text: "Guest-1: Hello", Source: "en", Target: "ja"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "ゲスト1: こんにちは" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestRegionalMissingCredentials(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tr := NewRegionalTranslator(config.RegionalConfig{Endpoint: srv.URL}, srv.Client())
	_, err := tr.Translate(context.Background(), Request{Text: "x", Source: "en", Target: "ja"})
	if !errors.Is(err, notify.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if called {
		t.Fatalf("no request should be sent without credentials")
	}
}

func TestRegionalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusServiceUnavailable, `{"error":{}}`, notify.ErrTransport},
		{"unauthorized", http.StatusUnauthorized, `{"error":{}}`, notify.ErrTransport},
		{"malformed", http.StatusOK, `{"translations":`, notify.ErrParse},
		{"empty", http.StatusOK, `[]`, notify.ErrParse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			tr := NewRegionalTranslator(config.RegionalConfig{
				SubscriptionKey: "key", Region: "r", Endpoint: srv.URL,
			}, srv.Client())
			_, err := tr.Translate(context.Background(), Request{Text: "x", Source: "en", Target: "ja"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
