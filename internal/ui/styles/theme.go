// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the Home and Results screens.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Screen chrome
	App      lipgloss.Style
	Header   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Footer   lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Home
	InputBox       lipgloss.Style
	InputBoxActive lipgloss.Style
	Spinner        lipgloss.Style
	LoadingText    lipgloss.Style
	KeyStatusOK    lipgloss.Style
	KeyStatusMiss  lipgloss.Style

	// Results
	SectionLabel lipgloss.Style
	PromptText   lipgloss.Style
	ResponseBox  lipgloss.Style
	EmptyText    lipgloss.Style

	// Alert overlay
	AlertBox     lipgloss.Style
	AlertTitle   lipgloss.Style
	AlertMessage lipgloss.Style
	AlertHint    lipgloss.Style
}

// NewTheme creates a theme. darkMode is "auto", "true" or "false"; "auto"
// asks the terminal.
func NewTheme(darkMode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(strings.TrimSpace(darkMode)) {
	case "true":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "false":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		MarginBottom(1)
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.Footer = lipgloss.NewStyle().Foreground(TextMuted).MarginTop(1)
	t.HelpKey = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.HelpDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputBoxActive = t.InputBox.Copy().BorderForeground(Purple)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.LoadingText = lipgloss.NewStyle().Foreground(Amber)
	t.KeyStatusOK = lipgloss.NewStyle().Foreground(Emerald)
	t.KeyStatusMiss = lipgloss.NewStyle().Foreground(Amber).Bold(true)

	t.SectionLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple).MarginTop(1)
	t.PromptText = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.ResponseBox = lipgloss.NewStyle().PaddingLeft(0)
	t.EmptyText = lipgloss.NewStyle().Foreground(TextMuted).Italic(true).PaddingLeft(2)

	t.AlertBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 2)
	t.AlertTitle = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.AlertMessage = lipgloss.NewStyle().Foreground(TextPrimary).MarginTop(1)
	t.AlertHint = lipgloss.NewStyle().Foreground(TextMuted).MarginTop(1)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ContentWidth is the usable width inside the app padding, never below 20.
func (t *Theme) ContentWidth() int {
	w := t.Width - t.App.GetHorizontalFrameSize()
	if w < 20 {
		return 20
	}
	return w
}
