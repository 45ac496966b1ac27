// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keyboard bindings for both screens.
type KeyMap struct {
	Submit   key.Binding
	Cancel   key.Binding
	Back     key.Binding
	Dismiss  key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s", "alt+enter"),
			key.WithHelp("C-s", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel request"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace", "q"),
			key.WithHelp("Esc/q", "back"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc", " "),
			key.WithHelp("Enter", "OK"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),
	}
}

// HomeHelp lists the bindings shown in the Home footer.
func (k KeyMap) HomeHelp(submitting bool) []key.Binding {
	if submitting {
		return []key.Binding{k.Cancel, k.Quit}
	}
	return []key.Binding{k.Submit, k.Quit}
}

// ResultsHelp lists the bindings shown in the Results footer.
func (k KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Back, k.PageUp, k.PageDown, k.Quit}
}
