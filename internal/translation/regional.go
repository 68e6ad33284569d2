// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translation

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/notify"
)

const regionalAPIVersion = "3.0"

// RegionalTranslator calls the Azure Translator v3 text API.
type RegionalTranslator struct {
	cfg        config.RegionalConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(skipCertVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if skipCertVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   constants.TranslationTimeout,
		Transport: transport,
	}
}

func NewRegionalTranslator(cfg config.RegionalConfig, httpClient *http.Client) *RegionalTranslator {
	if httpClient == nil {
		httpClient = NewHTTPClient(false)
	}
	return &RegionalTranslator{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     slog.With("component", "regional_translator"),
	}
}

type regionalInput struct {
	Text string `json:"Text"`
}

type regionalOutput struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

func (t *RegionalTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if t.cfg.SubscriptionKey == "" || t.cfg.Region == "" {
		return "", fmt.Errorf("%w: MS Translator key or region is not set", notify.ErrConfiguration)
	}

	body, err := json.Marshal([]regionalInput{{Text: req.Text}})
	if err != nil {
		return "", fmt.Errorf("marshaling body: %w", err)
	}

	query := url.Values{}
	query.Set("api-version", regionalAPIVersion)
	query.Set("from", req.Source)
	query.Set("to", req.Target)
	endpoint := strings.TrimRight(t.cfg.Endpoint, "/") + "/translate?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", notify.ErrConfiguration, err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", t.cfg.SubscriptionKey)
	httpReq.Header.Set("Ocp-Apim-Subscription-Region", t.cfg.Region)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: executing request: %v", notify.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", notify.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("translate request failed", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("%w: translate request failed with status %d", notify.ErrTransport, resp.StatusCode)
	}

	var out []regionalOutput
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: parsing translate response: %v", notify.ErrParse, err)
	}
	if len(out) == 0 || len(out[0].Translations) == 0 {
		return "", fmt.Errorf("%w: no translations in response", notify.ErrParse)
	}

	return out[0].Translations[0].Text, nil
}
