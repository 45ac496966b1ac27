// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the bubbletea front-end: a Home screen that collects a
// prompt and a Results screen that shows the reply.
//
// The App owns a submit.Session and a Router. Submissions run in a tea.Cmd
// (Session.Execute) and are settled back on the Update loop, so every
// navigation and alert the session triggers happens on the UI goroutine.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/config"
	"github.com/jeranaias/quickask/internal/logging"
	"github.com/jeranaias/quickask/internal/openai"
	"github.com/jeranaias/quickask/internal/submit"
	"github.com/jeranaias/quickask/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ConfigChangedMsg delivers a reloaded configuration to a running App.
type ConfigChangedMsg struct {
	Config *config.Config
}

// completionMsg carries a finished Execute back to Update for settlement.
type completionMsg struct {
	handle *submit.Handle
	result openai.Result
}

type alertState struct {
	title   string
	message string
}

// =============================================================================
// MODEL
// =============================================================================

// Options configures an App.
type Options struct {
	Completer submit.Completer

	// KeyStatus reports the name of the key source that currently resolves.
	// It doubles as the session's pre-flight check. Nil skips both.
	KeyStatus func() (source string, ok bool)

	Config *config.Config
	Logger *zap.Logger
}

// App is the root bubbletea model. It is used as a pointer; the session's
// navigator and alerter write into it during Update.
type App struct {
	keys      KeyMap
	theme     *styles.Theme
	router    *Router
	session   *submit.Session
	keyStatus func() (string, bool)
	logger    *zap.Logger

	input    textarea.Model
	spinner  spinner.Model
	viewport viewport.Model

	alert    *alertState
	shown    Route
	depth    int
	wordWrap int
	renderer *glamour.TermRenderer

	quitting bool
}

// New creates the App with the Home screen focused.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	a := &App{
		keys:      DefaultKeyMap(),
		theme:     styles.NewTheme(cfg.UI.DarkMode),
		router:    NewRouter(submit.ScreenHome),
		keyStatus: opts.KeyStatus,
		logger:    logging.OrNop(opts.Logger).Named(logging.UI),
		wordWrap:  cfg.UI.WordWrap,
		depth:     1,
	}
	a.shown = a.router.Current()

	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(5)
	ta.Focus()
	a.input = ta

	a.spinner = spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(a.theme.Spinner),
	)
	a.viewport = viewport.New(80, 20)

	var keyAvailable func() bool
	if a.keyStatus != nil {
		keyAvailable = func() bool {
			_, ok := a.keyStatus()
			return ok
		}
	}
	a.session = submit.New(submit.Options{
		Completer:    opts.Completer,
		Navigator:    a.router.Scope(submit.ScreenHome),
		Alerter:      submit.AlertFunc(a.showAlert),
		KeyAvailable: keyAvailable,
		Logger:       opts.Logger,
	})
	a.session.Mount()
	return a
}

// Init starts the cursor blink.
func (a *App) Init() tea.Cmd {
	return textarea.Blink
}

// Close cancels any outstanding request and detaches the session.
func (a *App) Close() {
	a.session.Close()
}

func (a *App) showAlert(title, message string) {
	a.logger.Debug("alert", zap.String("title", title))
	a.alert = &alertState{title: title, message: message}
}
