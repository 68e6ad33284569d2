// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speaker maps diarization speaker ids onto a fixed display palette.
package speaker

import (
	"regexp"
	"strconv"
	"unicode/utf16"
)

type Color string

const (
	Blue    Color = "blue"
	Emerald Color = "emerald"
	Purple  Color = "purple"
	Amber   Color = "amber"
	Rose    Color = "rose"
	Indigo  Color = "indigo"
)

// Palette is ordered; guest numbers index into it starting at 1.
var Palette = []Color{Blue, Emerald, Purple, Amber, Rose, Indigo}

var guestPattern = regexp.MustCompile(`Guest-(\d+)`)

// ColorFor is deterministic: the same id always yields the same color.
// Numbered guests cycle through the palette, so Guest-1 and Guest-7 share
// a color.
func ColorFor(id string) Color {
	p := len(Palette)
	if m := guestPattern.FindStringSubmatch(id); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return Palette[((n-1)%p+p)%p]
		}
	}

	h := stringHash(id)
	if h < 0 {
		h = -h
	}
	return Palette[h%int64(p)]
}

// stringHash is the classic h*31 + c string hash over UTF-16 code units,
// with the shift operand truncated to 32 bits on every step.
func stringHash(s string) int64 {
	var h int64
	for _, c := range utf16.Encode([]rune(s)) {
		shifted := int64(int32(h) << 5)
		h = int64(c) + (shifted - h)
	}
	return h
}
