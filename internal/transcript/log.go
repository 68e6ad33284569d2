// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "sync"

// Log is the append-only transcript of a session plus its single partial
// slot. Writes are expected from one goroutine; readers on other goroutines
// always get a copy taken under the read lock.
type Log struct {
	mu      sync.RWMutex
	lines   []Line
	spoken  int
	partial Partial
	recent  *lineRing
}

func NewLog(windowSize int) *Log {
	return &Log{recent: newLineRing(windowSize)}
}

// AppendFinal stores a new finalized line and clears the partial slot.
func (l *Log) AppendFinal(speaker, text string) Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := Line{Speaker: speaker, Text: text, Index: len(l.lines)}
	l.lines = append(l.lines, line)
	if !line.Empty() {
		l.recent.push(line)
		l.spoken++
	}
	l.partial = Partial{}
	return line
}

func (l *Log) SetPartial(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partial = Partial{Text: text}
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

func (l *Log) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lines := make([]Line, len(l.lines))
	copy(lines, l.lines)
	return Snapshot{Lines: lines, Partial: l.partial}
}

// Window returns the trailing non-empty lines kept by the ring, in order.
func (l *Log) Window() Window {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Window{Lines: l.recent.items(), Total: l.spoken}
}
