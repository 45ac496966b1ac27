// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package submit owns the prompt submission lifecycle: validation, the single
// in-flight request handle, and the Idle/Submitting transitions a front-end
// renders.
//
// A Session is driven from one UI loop but is safe to call from other
// goroutines (signal handlers, bubbletea commands). The discipline is "last
// submission wins": starting a submission cancels the previous handle, and a
// settlement for any handle other than the current one is a no-op.
package submit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/logging"
	"github.com/jeranaias/quickask/internal/openai"
)

// State is the submission state rendered by the UI.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "Submitting"
	}
	return "Idle"
}

// Screen and event names understood by Navigator implementations.
const (
	ScreenHome    = "Home"
	ScreenResults = "Results"
	EventFocus    = "focus"
)

// Alert titles and the failure template shown to the user.
const (
	TitleError         = "Error"
	TitleConfiguration = "Configuration Error"
	failureTemplate    = "Failed to get response from OpenAI: %s. Please check your API key and try again."
)

// Params are the navigation arguments for the Results screen.
type Params struct {
	Response string
	Prompt   string
}

// Navigator is the screen-stack collaborator.
type Navigator interface {
	Navigate(screen string, params Params)
	GoBack()
	// AddListener subscribes fn to event and returns its unsubscribe func.
	AddListener(event string, fn func()) (unsubscribe func())
}

// Alerter shows a blocking, user-visible message.
type Alerter interface {
	Alert(title, message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(title, message string)

func (f AlertFunc) Alert(title, message string) { f(title, message) }

// Completer performs the outbound call. *openai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) openai.Result
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) openai.Result

func (f CompleterFunc) Complete(ctx context.Context, prompt string) openai.Result {
	return f(ctx, prompt)
}

// Options wires a Session to its collaborators.
type Options struct {
	Completer Completer
	Navigator Navigator
	Alerter   Alerter
	// KeyAvailable reports whether a credential currently resolves. Nil
	// skips the pre-flight check and leaves it to the Completer.
	KeyAvailable func() bool
	// OnChange, if set, is called after every state or text change, outside
	// the session lock.
	OnChange func()
	Logger   *zap.Logger
}

// Session is the submission state machine for one Home screen.
type Session struct {
	mu      sync.Mutex
	text    string
	state   State
	current *Handle
	unsub   func()
	closed  bool

	completer    Completer
	nav          Navigator
	alerter      Alerter
	keyAvailable func() bool
	onChange     func()
	logger       *zap.Logger
}

// New creates an idle Session.
func New(opts Options) *Session {
	return &Session{
		completer:    opts.Completer,
		nav:          opts.Navigator,
		alerter:      opts.Alerter,
		keyAvailable: opts.KeyAvailable,
		onChange:     opts.OnChange,
		logger:       logging.OrNop(opts.Logger).Named(logging.Submit),
	}
}

// Mount subscribes to the navigator's focus event. Regaining focus forces
// the session back to Idle.
func (s *Session) Mount() {
	if s.nav == nil {
		return
	}
	unsub := s.nav.AddListener(EventFocus, s.Focus)

	s.mu.Lock()
	prev := s.unsub
	s.unsub = unsub
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Text returns the current input text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the input text.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// State returns the current submission state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InFlight returns the handle of the outstanding request, or nil. An
// abandoned handle (see Focus) is returned until it settles or is replaced.
func (s *Session) InFlight() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Begin validates the input and, if it passes, cancels any previous handle
// and starts a new submission. It returns false, after alerting, when the
// prompt is empty or no credential resolves; the text is left untouched.
func (s *Session) Begin() (*Handle, bool) {
	return s.begin(context.Background())
}

func (s *Session) begin(parent context.Context) (*Handle, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false
	}
	prompt := strings.TrimSpace(s.text)
	s.mu.Unlock()

	if prompt == "" {
		s.logger.Debug("empty prompt rejected")
		s.alert(TitleError, openai.MsgValidation)
		return nil, false
	}
	if s.keyAvailable != nil && !s.keyAvailable() {
		s.logger.Debug("no API key resolved, submission rejected")
		s.alert(TitleConfiguration, openai.MsgConfiguration)
		return nil, false
	}

	h := newHandle(parent, prompt)

	s.mu.Lock()
	prev := s.current
	s.current = h
	s.state = Submitting
	s.mu.Unlock()

	if prev != nil {
		s.logger.Debug("superseding in-flight request", zap.String("id", prev.ID()))
		prev.cancel()
	}
	s.logger.Debug("submission started", zap.String("id", h.ID()))
	s.changed()
	return h, true
}

// Execute runs the completer for h. It blocks and may be called from any
// goroutine; its result must be passed to Settle.
func (s *Session) Execute(h *Handle) openai.Result {
	if h == nil {
		return openai.Fail(openai.KindCancelled, openai.MsgCancelled)
	}
	if s.completer == nil {
		return openai.Fail(openai.KindConfiguration, openai.MsgConfiguration)
	}
	res := s.completer.Complete(h.Context(), h.Prompt())
	// A result that raced with cancellation is reported as cancelled.
	if !res.Cancelled() && h.Cancelled() {
		return openai.Fail(openai.KindCancelled, openai.MsgCancelled)
	}
	return res
}

// Settle applies the outcome of h. It is a no-op unless h is the current,
// non-abandoned handle: a superseded, abandoned or closed submission never
// touches UI state.
func (s *Session) Settle(h *Handle, res openai.Result) {
	if h == nil {
		return
	}

	s.mu.Lock()
	if s.closed || s.current != h || h.Abandoned() {
		if s.current == h {
			s.current = nil
		}
		s.mu.Unlock()
		s.logger.Debug("ignoring stale settlement",
			zap.String("id", h.ID()),
			zap.Stringer("kind", res.Kind))
		h.cancel()
		return
	}
	s.current = nil
	s.state = Idle
	if res.OK() {
		s.text = ""
	}
	s.mu.Unlock()
	h.cancel()

	s.logger.Debug("submission settled",
		zap.String("id", h.ID()),
		zap.Stringer("kind", res.Kind))

	switch {
	case res.OK():
		if s.nav != nil {
			s.nav.Navigate(ScreenResults, Params{Response: res.Text, Prompt: h.Prompt()})
		}
	case res.Cancelled():
		// Silent.
	case res.Kind == openai.KindConfiguration:
		// The key vanished between Begin and the call.
		s.alert(TitleConfiguration, res.Message)
	default:
		s.alert(TitleError, fmt.Sprintf(failureTemplate, res.Message))
	}
	s.changed()
}

// Submit is Begin, Execute and Settle in one blocking call, for front-ends
// without an event loop. Cancelling ctx cancels the submission. The returned
// result is what Execute produced; ok is false if Begin rejected the input.
func (s *Session) Submit(ctx context.Context) (res openai.Result, ok bool) {
	h, ok := s.begin(ctx)
	if !ok {
		return openai.Result{}, false
	}
	res = s.Execute(h)
	s.Settle(h, res)
	return res, true
}

// Cancel cancels the in-flight request, if any. Its settlement then resolves
// the session to Idle silently.
func (s *Session) Cancel() {
	s.mu.Lock()
	h := s.current
	s.mu.Unlock()
	if h != nil {
		h.cancel()
	}
}

// Focus forces Idle regardless of whether the outstanding call has settled.
// The handle is marked abandoned so its settlement is ignored; it stays
// owned until the next Begin or Close cancels it.
func (s *Session) Focus() {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	h := s.current
	if h != nil {
		h.abandon()
	}
	s.mu.Unlock()

	if h != nil {
		s.logger.Debug("focus regained, abandoning request", zap.String("id", h.ID()))
	}
	s.changed()
}

// Close tears the session down: the focus listener is removed and any
// outstanding handle is cancelled. Later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h := s.current
	s.current = nil
	s.state = Idle
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if h != nil {
		h.cancel()
	}
}

func (s *Session) alert(title, message string) {
	if s.alerter != nil {
		s.alerter.Alert(title, message)
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// newID is swapped in tests.
var newID = func() string { return uuid.NewString() }
