// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/submit"
	"github.com/jeranaias/quickask/internal/ui/styles"
	"github.com/jeranaias/quickask/internal/util"
)

const (
	labelPrompt   = "Your Prompt:"
	labelResponse = "AI Response:"
	emptyResponse = "No response available."
	loadingText   = "Asking OpenAI..."
	alertHint     = "Press any key to continue"
)

// View renders the current screen.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var body string
	var help []key.Binding
	switch a.router.Current().Screen {
	case submit.ScreenResults:
		body = a.viewport.View()
		help = a.keys.ResultsHelp()
	default:
		body = a.renderHome()
		help = a.keys.HomeHelp(a.session.State() == submit.Submitting)
	}
	if a.alert != nil {
		body = a.renderAlert()
		help = nil
	}

	return a.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		body,
		a.renderHelp(help),
	))
}

func (a *App) renderHeader() string {
	t := a.theme
	cw := t.ContentWidth()

	title := t.Title.Render("quickask") + "  " + t.Subtitle.Render("one question, one answer")

	var status string
	if a.keyStatus != nil {
		if source, ok := a.keyStatus(); ok {
			status = t.KeyStatusOK.Render(styles.StatusIndicators.Success + " key: " + source)
		} else {
			status = t.KeyStatusMiss.Render(styles.StatusIndicators.Warning + " no API key (set OPENAI_API_KEY)")
		}
	}

	lines := []string{title}
	if status != "" {
		lines = append(lines, status)
	}
	return t.Header.Width(cw).Render(strings.Join(lines, "\n"))
}

func (a *App) renderHome() string {
	t := a.theme

	box := t.InputBox
	if a.input.Focused() {
		box = t.InputBoxActive
	}
	parts := []string{box.Render(a.input.View())}

	if a.session.State() == submit.Submitting {
		line := a.spinner.View() + " " + t.LoadingText.Render(loadingText)
		if h := a.session.InFlight(); h != nil {
			preview := util.Preview(h.Prompt(), t.ContentWidth()-util.StringWidth(loadingText)-6)
			line += " " + t.HelpDesc.Render(preview)
		}
		parts = append(parts, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderResults builds the scrollable Results content.
func (a *App) renderResults(params submit.Params) string {
	t := a.theme
	cw := t.ContentWidth()

	var b strings.Builder
	b.WriteString(t.SectionLabel.Render(labelPrompt))
	b.WriteString("\n")
	b.WriteString(t.PromptText.Width(cw).Render(params.Prompt))
	b.WriteString("\n")
	b.WriteString(t.SectionLabel.Render(labelResponse))
	b.WriteString("\n")
	if strings.TrimSpace(params.Response) == "" {
		b.WriteString(t.EmptyText.Render(emptyResponse))
	} else {
		b.WriteString(a.renderMarkdown(params.Response))
	}
	return b.String()
}

// renderMarkdown renders the reply with glamour, falling back to the raw
// text if the renderer cannot be built.
func (a *App) renderMarkdown(text string) string {
	if a.renderer == nil {
		wrap := a.theme.ContentWidth()
		if a.wordWrap > 0 && a.wordWrap < wrap {
			wrap = a.wordWrap
		}
		style := "light"
		if a.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrap),
			glamour.WithColorProfile(a.theme.ColorProfile),
		)
		if err != nil {
			a.logger.Warn("markdown renderer unavailable", zap.Error(err))
			return text
		}
		a.renderer = r
	}

	out, err := a.renderer.Render(text)
	if err != nil {
		a.logger.Warn("markdown render failed", zap.Error(err))
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (a *App) renderAlert() string {
	t := a.theme
	width := t.ContentWidth()
	if width > 64 {
		width = 64
	}
	inner := width - t.AlertBox.GetHorizontalFrameSize()

	content := lipgloss.JoinVertical(lipgloss.Left,
		t.AlertTitle.Render(styles.StatusIndicators.Error+" "+a.alert.title),
		t.AlertMessage.Width(inner).Render(a.alert.message),
		t.AlertHint.Render(alertHint),
	)
	return t.AlertBox.Width(width).Render(content)
}

func (a *App) renderHelp(bindings []key.Binding) string {
	if len(bindings) == 0 {
		return ""
	}
	t := a.theme
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, t.HelpKey.Render(h.Key)+" "+t.HelpDesc.Render(h.Desc))
	}
	line := strings.Join(parts, t.HelpDesc.Render("  |  "))
	return t.Footer.MaxWidth(t.ContentWidth()).Render(line)
}
