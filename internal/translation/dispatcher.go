// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nextcloud/go_live_translation/internal/align"
	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/latency"
	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/transcript"
)

type State int

const (
	Idle State = iota
	InFlight
	Disabled
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Disabled:
		return "disabled"
	}
	return "idle"
}

type slot struct {
	translator Translator
	inFlight   bool
	disabled   bool
}

// Dispatcher sends transcript windows to every backend that is idle. A
// trigger that finds a backend in flight is dropped for that backend; it is
// never queued and the running request is never cancelled.
//
// Outcomes are delivered on the channel returned by Outcomes and must be
// passed back through Complete before the backend becomes idle again.
type Dispatcher struct {
	mu       sync.Mutex
	slots    map[BackendID]*slot
	outcomes chan Outcome
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDispatcher(translators map[BackendID]Translator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	slots := make(map[BackendID]*slot, len(translators))
	for id, tr := range translators {
		slots[id] = &slot{translator: tr}
	}
	return &Dispatcher{
		slots:    slots,
		outcomes: make(chan Outcome, len(translators)),
		timeout:  constants.TranslationTimeout,
		logger:   logger.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) Outcomes() <-chan Outcome {
	return d.outcomes
}

// Dispatch starts one request per idle backend for the given window and
// returns the backends that were started. An empty window starts nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, window transcript.Window, source, target, instructions string) []BackendID {
	if window.Empty() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var started []BackendID
	for _, id := range Backends {
		s, ok := d.slots[id]
		if !ok {
			continue
		}
		if s.inFlight || s.disabled {
			d.logger.Debug("trigger dropped", "backend", id, "in_flight", s.inFlight, "disabled", s.disabled)
			continue
		}
		s.inFlight = true

		req := Request{Text: window.Text(), Source: source, Target: target}
		if id == LLM {
			req.Context = instructions
		}
		go d.run(ctx, id, s.translator, window, req)
		started = append(started, id)
	}
	return started
}

func (d *Dispatcher) run(ctx context.Context, id BackendID, tr Translator, window transcript.Window, req Request) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	text, err := tr.Translate(reqCtx, req)
	elapsed := latency.Milliseconds(time.Since(start))

	out := Outcome{Backend: id, Err: err}
	if err == nil {
		lines := align.SplitLines(text)
		if len(lines) == 0 {
			out.Err = fmt.Errorf("%w: empty translation", notify.ErrParse)
		} else {
			out.Result = Result{Backend: id, Window: window, Lines: lines, ElapsedMs: elapsed}
		}
	}

	select {
	case d.outcomes <- out:
	case <-ctx.Done():
		d.logger.Debug("outcome discarded", "backend", id, "error", ctx.Err())
	}
}

// Complete returns the backend of an outcome to idle. Configuration failures
// disable the backend until Reset.
func (d *Dispatcher) Complete(out Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.slots[out.Backend]
	if !ok {
		return
	}
	s.inFlight = false
	if out.Err != nil && errors.Is(out.Err, notify.ErrConfiguration) {
		s.disabled = true
		d.logger.Warn("backend disabled", "backend", out.Backend, "error", out.Err)
	}
}

// Reset re-enables a backend disabled by a configuration failure.
func (d *Dispatcher) Reset(id BackendID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.slots[id]
	if !ok {
		return fmt.Errorf("unknown backend %q", id)
	}
	s.disabled = false
	return nil
}

func (d *Dispatcher) State(id BackendID) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.slots[id]
	switch {
	case !ok:
		return Idle
	case s.inFlight:
		return InFlight
	case s.disabled:
		return Disabled
	}
	return Idle
}
