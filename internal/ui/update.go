// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/submit"
)

// Update handles all incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case ConfigChangedMsg:
		a.applyConfig(msg)
		return a, nil

	case completionMsg:
		a.session.Settle(msg.handle, msg.result)
		a.input.SetValue(a.session.Text())
		a.syncRoute()
		return a, nil

	case spinner.TickMsg:
		if a.session.State() != submit.Submitting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.router.Current().Screen == submit.ScreenHome {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		a.session.Close()
		a.quitting = true
		return a, tea.Quit
	}

	// Any key dismisses an alert.
	if a.alert != nil {
		a.alert = nil
		return a, nil
	}

	if a.router.Current().Screen == submit.ScreenResults {
		return a.updateResults(msg)
	}
	return a.updateHome(msg)
}

func (a *App) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.session.State() == submit.Submitting {
		if key.Matches(msg, a.keys.Cancel) {
			a.logger.Debug("cancel requested")
			a.session.Cancel()
		}
		return a, nil
	}

	if key.Matches(msg, a.keys.Submit) {
		return a, a.submit()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.session.SetText(a.input.Value())
	return a, cmd
}

func (a *App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Back) {
		a.router.GoBack()
		a.syncRoute()
		return a, nil
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// submit begins a submission and returns the command that runs it. A
// rejected prompt has already raised an alert and returns nil.
func (a *App) submit() tea.Cmd {
	a.session.SetText(a.input.Value())
	h, ok := a.session.Begin()
	if !ok {
		return nil
	}
	return tea.Batch(a.spinner.Tick, a.execute(h))
}

func (a *App) execute(h *submit.Handle) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		return completionMsg{handle: h, result: session.Execute(h)}
	}
}

// syncRoute refreshes the visible screen after the router moved.
func (a *App) syncRoute() {
	route := a.router.Current()
	depth := a.router.Depth()
	if route == a.shown && depth == a.depth {
		return
	}
	a.logger.Debug("screen changed",
		zap.String("from", a.shown.Screen),
		zap.String("to", route.Screen))
	a.shown = route
	a.depth = depth

	switch route.Screen {
	case submit.ScreenResults:
		a.input.Blur()
		a.viewport.SetContent(a.renderResults(route.Params))
		a.viewport.GotoTop()
	default:
		a.input.Focus()
	}
}

func (a *App) resize(width, height int) {
	a.theme.SetSize(width, height)
	cw := a.theme.ContentWidth()

	a.input.SetWidth(cw - a.theme.InputBox.GetHorizontalFrameSize())

	// header (title, status, rule) and footer (help plus margin)
	vh := height - 6
	if vh < 3 {
		vh = 3
	}
	a.viewport.Width = cw
	a.viewport.Height = vh

	a.renderer = nil
	a.refreshResults()
}

func (a *App) applyConfig(msg ConfigChangedMsg) {
	if msg.Config == nil {
		return
	}
	a.logger.Debug("config reloaded", zap.Int("word_wrap", msg.Config.UI.WordWrap))
	a.wordWrap = msg.Config.UI.WordWrap
	a.renderer = nil
	a.refreshResults()
}

func (a *App) refreshResults() {
	if a.shown.Screen == submit.ScreenResults {
		a.viewport.SetContent(a.renderResults(a.shown.Params))
	}
}
