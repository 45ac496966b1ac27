// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the quickask TUI.
//
// All colors are Lip Gloss AdaptiveColors, so the palette follows the
// terminal's light or dark background. The ui.dark_mode setting can pin
// either variant:
//
//	theme := styles.NewTheme(cfg.UI.DarkMode)
//	theme.SetSize(msg.Width, msg.Height)
//	title := theme.Title.Render("quickask")
package styles
