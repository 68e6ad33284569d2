// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package languages

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type LanguageModel struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// recognitionLocales maps the selectable codes onto the locale the
// recognition service is configured with.
var recognitionLocales = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"ja": "ja-JP",
}

const defaultLocale = "en-US"

var SupportedLanguageMap = buildSupported()

func buildSupported() map[string]LanguageModel {
	namer := display.English.Languages()
	out := make(map[string]LanguageModel, len(recognitionLocales))
	for code, locale := range recognitionLocales {
		tag := language.MustParse(code)
		out[code] = LanguageModel{
			Code:   code,
			Name:   namer.Name(tag),
			Locale: locale,
		}
	}
	return out
}

// Normalize canonicalizes a user supplied code ("EN", "en-us") and checks it
// against the supported set.
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	base, _ := tag.Base()
	if _, ok := SupportedLanguageMap[base.String()]; !ok {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return base.String(), nil
}

// RecognitionLocale falls back to en-US for unknown codes.
func RecognitionLocale(code string) string {
	if locale, ok := recognitionLocales[code]; ok {
		return locale
	}
	return defaultLocale
}
