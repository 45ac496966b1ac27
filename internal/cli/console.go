// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// console.go - Line-oriented collaborators for the submission session.
//
// The TUI navigates to a Results screen and shows alerts in an overlay. On
// the command line the same session prints the reply and writes alerts to
// stderr instead.

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/config"
	"github.com/jeranaias/quickask/internal/logging"
	"github.com/jeranaias/quickask/internal/submit"
)

const emptyResponse = "No response available."

// Env carries what the command handlers need. main builds it once.
type Env struct {
	Config    *config.Config
	Keys      *config.KeyResolver
	Completer submit.Completer
	Logger    *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinTTY is false when a prompt may be piped in.
	StdinTTY bool
	// Markdown renders replies with glamour; set when stdout is a terminal.
	Markdown bool
	// Width is the wrap width for rendered replies.
	Width int
}

func (e *Env) logger() *zap.Logger {
	return logging.OrNop(e.Logger).Named(logging.CLI)
}

func (e *Env) newSession(nav submit.Navigator, alerter submit.Alerter) *submit.Session {
	var keyAvailable func() bool
	if e.Keys != nil {
		keyAvailable = e.Keys.Available
	}
	return submit.New(submit.Options{
		Completer:    e.Completer,
		Navigator:    nav,
		Alerter:      alerter,
		KeyAvailable: keyAvailable,
		Logger:       e.Logger,
	})
}

// =============================================================================
// NAVIGATOR AND ALERTER
// =============================================================================

// consoleNavigator hands the Results params to onResults. There is no
// screen stack, so GoBack and focus listeners are inert.
type consoleNavigator struct {
	onResults func(submit.Params)
}

func (n *consoleNavigator) Navigate(screen string, params submit.Params) {
	if screen == submit.ScreenResults && n.onResults != nil {
		n.onResults(params)
	}
}

func (n *consoleNavigator) GoBack() {}

func (n *consoleNavigator) AddListener(event string, fn func()) func() {
	return func() {}
}

// consoleAlerter writes alerts to w. With record set it only remembers the
// last one, for JSON output.
type consoleAlerter struct {
	w      io.Writer
	record bool

	mu      sync.Mutex
	title   string
	message string
	count   int
}

func (a *consoleAlerter) Alert(title, message string) {
	a.mu.Lock()
	a.title, a.message = title, message
	a.count++
	a.mu.Unlock()

	if a.record || a.w == nil {
		return
	}
	fmt.Fprintf(a.w, "%s %s\n", ErrorStyle.Render("["+title+"]"), message)
}

func (a *consoleAlerter) last() (title, message string, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.title, a.message, a.count
}

// =============================================================================
// REPLY RENDERING
// =============================================================================

// renderReply formats a reply for the terminal. Empty replies get the same
// placeholder the Results screen shows.
func (e *Env) renderReply(text string) string {
	if strings.TrimSpace(text) == "" {
		return DimStyle.Render(emptyResponse)
	}
	if !e.Markdown {
		return text
	}

	width := e.Width
	if e.Config != nil && e.Config.UI.WordWrap > 0 && (width <= 0 || e.Config.UI.WordWrap < width) {
		width = e.Config.UI.WordWrap
	}
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(GetColorProfile()),
	)
	if err != nil {
		e.logger().Warn("markdown renderer unavailable", zap.Error(err))
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		e.logger().Warn("markdown render failed", zap.Error(err))
		return text
	}
	return strings.TrimRight(out, "\n")
}
