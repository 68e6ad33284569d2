// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import "sync"

// Queue is an unbounded FIFO of notifications. Push never blocks and never
// drops; consumers wait on Ready and take everything pending with Drain.
type Queue struct {
	mu      sync.Mutex
	pending []Notification
	ready   chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

func (q *Queue) Push(n Notification) {
	q.mu.Lock()
	q.pending = append(q.pending, n)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready receives a value after one or more Push calls since the last Drain.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain returns the pending notifications in push order.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}
