// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// HEADER
// =============================================================================

// RenderHeader renders the top bar: the app name, the session and, when
// given, the time the session started.
func RenderHeader(theme *styles.Theme, width int, sessionID, started string) string {
	left := theme.HeaderTitle.Render("CourseCraft") + " " +
		theme.HeaderSubtitle.Render("first-year course advisor")

	right := theme.Muted.Render("session " + sessionID)
	if started != "" {
		right = theme.Muted.Render(started) + "  " + right
	}

	return theme.Header.Width(width).Render(spread(left, right, width-theme.Header.GetHorizontalFrameSize()))
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusInfo is what the status bar shows.
type StatusInfo struct {
	Busy    bool
	Spinner string
	Turns   int
	Courses int
	// Message is a transient notice; IsError styles it as an error.
	Message string
	IsError bool
	Hints   []key.Binding
}

// RenderStatusBar renders the bottom bar.
func RenderStatusBar(theme *styles.Theme, width int, info StatusInfo) string {
	var left string
	switch {
	case info.Message != "" && info.IsError:
		left = styles.RenderError(info.Message)
	case info.Message != "":
		left = styles.RenderSuccess(info.Message)
	case info.Busy:
		left = theme.Spinner.Render(info.Spinner) + " " + theme.StatusValue.Render("waiting for the advisor")
	default:
		left = theme.StatusValue.Render(util.Plural(info.Turns, "turn"))
		if info.Courses > 0 {
			left += theme.StatusValue.Render("  " + util.Plural(info.Courses, "course"))
		}
	}

	var hints []string
	for _, h := range info.Hints {
		if !h.Enabled() {
			continue
		}
		help := h.Help()
		hints = append(hints, theme.StatusKey.Render(help.Key)+" "+theme.StatusValue.Render(help.Desc))
	}
	right := strings.Join(hints, "  ")

	return theme.StatusBar.Width(width).Render(spread(left, right, width-theme.StatusBar.GetHorizontalFrameSize()))
}

// spread places left and right at the two ends of width columns. The right
// side is dropped if both do not fit.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
