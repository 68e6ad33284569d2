// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

// SelectWindow returns the last n non-empty lines in their original order.
func SelectWindow(lines []Line, n int) []Line {
	if n <= 0 {
		return []Line{}
	}
	out := make([]Line, 0, min(n, len(lines)))
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if lines[i].Empty() {
			continue
		}
		out = append(out, lines[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NonEmpty returns the lines that carry spoken text, in order.
func NonEmpty(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if !l.Empty() {
			out = append(out, l)
		}
	}
	return out
}

// lineRing keeps the most recent lines, overwriting the oldest when full.
type lineRing struct {
	buf        []Line
	head, tail int
}

func newLineRing(size int) *lineRing {
	return &lineRing{buf: make([]Line, max(size, 0))}
}

func (r *lineRing) push(line Line) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.tail%len(r.buf)] = line
	r.tail++
	if r.tail-r.head > len(r.buf) {
		r.head = r.tail - len(r.buf)
	}
}

func (r *lineRing) items() []Line {
	out := make([]Line, 0, r.tail-r.head)
	for i := r.head; i < r.tail; i++ {
		out = append(out, r.buf[i%len(r.buf)])
	}
	return out
}
