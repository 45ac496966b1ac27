// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package submit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handle is the cancellation handle for one submission. It must be used as a
// pointer; Session compares handles by identity.
type Handle struct {
	id     string
	prompt string
	ctx    context.Context

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	cancelled  atomic.Bool
	abandoned  atomic.Bool
}

func newHandle(parent context.Context, prompt string) *Handle {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		id:         newID(),
		prompt:     prompt,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// ID identifies the submission in diagnostics.
func (h *Handle) ID() string { return h.id }

// Prompt is the trimmed text that was submitted.
func (h *Handle) Prompt() string { return h.prompt }

// Context is done once the handle is cancelled.
func (h *Handle) Context() context.Context { return h.ctx }

// Cancelled reports whether cancel was called.
func (h *Handle) Cancelled() bool { return h.cancelled.Load() }

// Abandoned reports whether the UI stopped waiting for this handle.
func (h *Handle) Abandoned() bool { return h.abandoned.Load() }

// cancel invokes and clears the cancel func. Safe to call repeatedly.
func (h *Handle) cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelFunc != nil {
		h.cancelled.Store(true)
		h.cancelFunc()
		h.cancelFunc = nil
	}
}

func (h *Handle) abandon() { h.abandoned.Store(true) }
