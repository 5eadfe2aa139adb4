// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Compact drops bubble borders and blank lines between turns.
	Compact bool

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT STYLES
	// ==========================================================================

	UserBubble    lipgloss.Style
	AdvisorBubble lipgloss.Style
	UserName      lipgloss.Style
	AdvisorName   lipgloss.Style
	Placeholder   lipgloss.Style

	// ==========================================================================
	// COURSE CARD STYLES
	// ==========================================================================

	CourseCard         lipgloss.Style
	CourseCardSelected lipgloss.Style
	CourseCode         lipgloss.Style
	CourseName         lipgloss.Style
	CourseMeta         lipgloss.Style
	CourseDescription  lipgloss.Style
	FavoriteMark       lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer        lipgloss.Style
	InputContainerFocused lipgloss.Style
	StatusBar             lipgloss.Style
	StatusKey             lipgloss.Style
	StatusValue           lipgloss.Style
	Spinner               lipgloss.Style
	Notice                lipgloss.Style
	ErrorText             lipgloss.Style
	Muted                 lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light" or "auto"; anything else
// behaves like "auto".
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(name) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
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
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Navy).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Navy)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Transcript
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AdvisorBubble = lipgloss.NewStyle().
		Foreground(AdvisorBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AdvisorBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.UserName = lipgloss.NewStyle().Bold(true).Foreground(Cyan).MarginLeft(4)
	t.AdvisorName = lipgloss.NewStyle().Bold(true).Foreground(Navy)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	// Course cards
	t.CourseCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		BorderLeft(true).
		PaddingLeft(1)

	t.CourseCardSelected = t.CourseCard.
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Purple)

	t.CourseCode = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.CourseName = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.CourseMeta = lipgloss.NewStyle().Foreground(TextSecondary)
	t.CourseDescription = lipgloss.NewStyle().Foreground(TextPrimary)
	t.FavoriteMark = lipgloss.NewStyle().Bold(true).Foreground(Amber)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputContainerFocused = t.InputContainer.BorderForeground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.StatusValue = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.Notice = lipgloss.NewStyle().Foreground(Emerald)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// SetCompact switches compact rendering on or off.
func (t *Theme) SetCompact(compact bool) {
	t.Compact = compact
	if compact {
		t.UserBubble = t.UserBubble.UnsetBorderStyle().UnsetPadding()
		t.AdvisorBubble = t.AdvisorBubble.UnsetBorderStyle().UnsetPadding()
		return
	}
	t.initStyles()
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the content width of a transcript bubble at the current
// window width.
func (t *Theme) BubbleWidth() int {
	w := t.Width - 4 - t.AdvisorBubble.GetHorizontalFrameSize()
	if t.GetLayoutMode() == LayoutWide {
		w = t.Width*3/4 - t.AdvisorBubble.GetHorizontalFrameSize()
	}
	if w < 20 {
		w = 20
	}
	return w
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
