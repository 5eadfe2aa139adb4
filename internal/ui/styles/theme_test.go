// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	for _, name := range []string{"auto", "dark", "light", "unknown"} {
		theme := NewTheme(name)
		if theme == nil {
			t.Fatalf("NewTheme(%q) returned nil", name)
		}
	}

	if !NewTheme("dark").IsDark {
		t.Error(`NewTheme("dark").IsDark = false`)
	}
	if NewTheme("light").IsDark {
		t.Error(`NewTheme("light").IsDark = true`)
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme("dark")

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"AdvisorBubble", theme.AdvisorBubble},
		{"CourseCard", theme.CourseCard},
		{"CourseCardSelected", theme.CourseCardSelected},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestThemeCompact(t *testing.T) {
	theme := NewTheme("dark")
	full := lipgloss.Height(theme.AdvisorBubble.Render("hi"))

	theme.SetCompact(true)
	if got := lipgloss.Height(theme.AdvisorBubble.Render("hi")); got >= full {
		t.Errorf("compact bubble height = %d, want < %d", got, full)
	}

	theme.SetCompact(false)
	if got := lipgloss.Height(theme.AdvisorBubble.Render("hi")); got != full {
		t.Errorf("restored bubble height = %d, want %d", got, full)
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme("auto")
	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestBubbleWidthHasFloor(t *testing.T) {
	theme := NewTheme("auto")
	theme.SetSize(10, 10)
	if got := theme.BubbleWidth(); got != 20 {
		t.Errorf("BubbleWidth() = %d, want 20", got)
	}
	theme.SetSize(80, 24)
	if got := theme.BubbleWidth(); got <= 20 || got >= 80 {
		t.Errorf("BubbleWidth() at 80 cols = %d", got)
	}
}

// =============================================================================
// STATUS HELPERS
// =============================================================================

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		ind  string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}
	for _, tt := range tests {
		out := tt.fn("saved")
		if !strings.Contains(out, tt.ind) || !strings.Contains(out, "saved") {
			t.Errorf("%s: %q missing indicator or message", tt.name, out)
		}
	}
}
