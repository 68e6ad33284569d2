// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nextcloud/go_live_translation/internal/languages"
)

const DefaultTranslationContext = `The speaker is Jayson, from Insights and Data of Capgemini. You can shorten that to I&D Japan. Keep the use of words under a business scenario.
For translation style: Always keep the flow of translation that sounds natural like a native speaker.`

type Config struct {
	AppPort            string         `yaml:"port"`
	LogLevel           string         `yaml:"log_level"`
	APIToken           string         `yaml:"api_token"`
	RecognitionURL     string         `yaml:"recognition_url"`
	SourceLang         string         `yaml:"source_lang"`
	TargetLang         string         `yaml:"target_lang"`
	TranslationContext string         `yaml:"translation_context"`
	SkipCertVerify     bool           `yaml:"skip_cert_verify"`
	Regional           RegionalConfig `yaml:"regional"`
	LLM                LLMConfig      `yaml:"llm"`
}

type RegionalConfig struct {
	SubscriptionKey string `yaml:"subscription_key"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
}

type LLMConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"`
	Deployment string `yaml:"deployment"`
}

func defaults() *Config {
	return &Config{
		AppPort:            "8000",
		LogLevel:           "info",
		RecognitionURL:     "ws://localhost:8001/ws/transcriptions",
		SourceLang:         "en",
		TargetLang:         "ja",
		TranslationContext: DefaultTranslationContext,
		Regional: RegionalConfig{
			Endpoint: "https://api.cognitive.microsofttranslator.com",
		},
		LLM: LLMConfig{
			APIVersion: "2024-05-01-preview",
			Deployment: "gpt-4o-mini",
		},
	}
}

// LoadConfig resolves the configuration from defaults, an optional YAML file
// (path, or LT_CONFIG_FILE when path is empty) and environment variables, in
// that order of precedence. Missing backend credentials are not an error here;
// they are reported by the backend when a translation is attempted.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("LT_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	src, err := languages.Normalize(cfg.SourceLang)
	if err != nil {
		return nil, fmt.Errorf("source language: %w", err)
	}
	tgt, err := languages.Normalize(cfg.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("target language: %w", err)
	}
	cfg.SourceLang, cfg.TargetLang = src, tgt

	if cfg.RecognitionURL == "" {
		return nil, fmt.Errorf("LT_RECOGNITION_URL is required")
	}
	if strings.TrimSpace(cfg.TranslationContext) == "" {
		cfg.TranslationContext = DefaultTranslationContext
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.AppPort, "LT_PORT")
	setFromEnv(&c.LogLevel, "LT_LOG_LEVEL")
	setFromEnv(&c.APIToken, "LT_API_TOKEN")
	setFromEnv(&c.RecognitionURL, "LT_RECOGNITION_URL")
	setFromEnv(&c.SourceLang, "LT_SOURCE_LANG")
	setFromEnv(&c.TargetLang, "LT_TARGET_LANG")
	setFromEnv(&c.TranslationContext, "LT_TRANSLATION_CONTEXT")

	setFromEnv(&c.Regional.SubscriptionKey, "MS_TRANSLATOR_SUBSCRIPTION_KEY")
	setFromEnv(&c.Regional.Region, "MS_TRANSLATOR_REGION")
	setFromEnv(&c.Regional.Endpoint, "MS_TRANSLATOR_ENDPOINT")

	setFromEnv(&c.LLM.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setFromEnv(&c.LLM.APIKey, "AZURE_OPENAI_API_KEY")
	setFromEnv(&c.LLM.APIVersion, "AZURE_OPENAI_API_VERSION")
	setFromEnv(&c.LLM.Deployment, "AZURE_OPENAI_DEPLOYMENT")

	skipCert := os.Getenv("SKIP_CERT_VERIFY")
	if skipCert == "true" || skipCert == "1" {
		c.SkipCertVerify = true
	}
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
