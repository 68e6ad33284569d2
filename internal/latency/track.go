// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package latency records, per global transcript line, how long it took for a
// translation covering that line to first appear.
package latency

import (
	"sync"
	"time"
)

// Track is a sparse, write-once index -> elapsed milliseconds map.
type Track struct {
	mu      sync.RWMutex
	entries map[int]float64
}

func NewTrack() *Track {
	return &Track{entries: make(map[int]float64)}
}

func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Record assigns elapsedMs to the translatedCount indices ending at
// totalLines, skipping indices that already hold a value. It returns the
// indices that were newly set.
func (t *Track) Record(totalLines, translatedCount int, elapsedMs float64) []int {
	start := max(totalLines-translatedCount, 0)

	t.mu.Lock()
	defer t.mu.Unlock()

	var set []int
	for i := 0; i < translatedCount; i++ {
		idx := start + i
		if _, ok := t.entries[idx]; ok {
			continue
		}
		t.entries[idx] = elapsedMs
		set = append(set, idx)
	}
	return set
}

func (t *Track) Get(index int) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[index]
	return v, ok
}

// Snapshot returns a copy of the recorded entries.
func (t *Track) Snapshot() map[int]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int]float64, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}
