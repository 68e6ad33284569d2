// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/nextcloud/go_live_translation/internal/config"
	"github.com/nextcloud/go_live_translation/internal/notify"
)

const llmSystemPrompt = "You are a translation assistant."

// LLMTranslator translates through an Azure OpenAI chat deployment. The
// request context text is appended to every prompt.
type LLMTranslator struct {
	cfg    config.LLMConfig
	client *openai.Client
	logger *slog.Logger
}

func NewLLMTranslator(cfg config.LLMConfig, httpClient *http.Client) *LLMTranslator {
	t := &LLMTranslator{
		cfg:    cfg,
		logger: slog.With("component", "llm_translator", "deployment", cfg.Deployment),
	}
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return t
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	t.client = &client
	return t
}

func buildPrompt(req Request) string {
	return fmt.Sprintf("Translate the following text from %s to %s:\n\n%s\nUse the following context:\n%s",
		req.Source, req.Target, req.Text, req.Context)
}

func (t *LLMTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("%w: Azure OpenAI endpoint or key is not set", notify.ErrConfiguration)
	}

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: t.cfg.Deployment,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llmSystemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
		MaxTokens:   openai.Int(800),
		Temperature: openai.Float(0.7),
		TopP:        openai.Float(0.95),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			t.logger.Warn("chat completion failed", "status", apiErr.StatusCode)
			return "", fmt.Errorf("%w: chat completion failed with status %d", notify.ErrTransport, apiErr.StatusCode)
		}
		return "", fmt.Errorf("%w: chat completion: %v", notify.ErrTransport, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in chat completion", notify.ErrParse)
	}
	return resp.Choices[0].Message.Content, nil
}
