// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
)

func sampleCourses() []model.RecommendationItem {
	return []model.RecommendationItem{
		{CourseCode: "CSC108H1", Name: "Introduction to Computer Programming", Department: "Computer Science", Description: "Programming in Python."},
		{CourseCode: "MAT135H1", Name: "Calculus I", Department: "Mathematics", Prerequisites: "High school calculus"},
		{CourseCode: "PSY100H1", Name: "Introductory Psychology"},
	}
}

// =============================================================================
// COURSE LIST
// =============================================================================

func TestCourseList_Navigation(t *testing.T) {
	l := NewCourseList()
	_, ok := l.Selected()
	assert.False(t, ok, "empty list has no selection")

	l.SetItems(sampleCourses())
	sel, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "CSC108H1", sel.CourseCode)

	l.MoveUp()
	assert.Equal(t, 0, l.Cursor(), "cursor stays at the top")

	l.MoveDown()
	l.MoveDown()
	l.MoveDown()
	assert.Equal(t, 2, l.Cursor(), "cursor stays at the bottom")

	// Same items keep the cursor.
	l.SetItems(sampleCourses())
	assert.Equal(t, 2, l.Cursor())

	// New items reset it.
	l.SetItems(sampleCourses()[:2])
	assert.Equal(t, 0, l.Cursor())
}

func TestCourseList_Favorites(t *testing.T) {
	l := NewCourseList()
	l.SetFavorites([]string{"csc108h1"})
	assert.True(t, l.IsFavorite("CSC108H1"))

	l.SetFavorite("MAT135H1", true)
	assert.True(t, l.IsFavorite("mat135h1"))

	l.SetFavorite("CSC108H1", false)
	assert.False(t, l.IsFavorite("CSC108H1"))
}

func TestCourseList_View(t *testing.T) {
	theme := styles.NewTheme("dark")
	l := NewCourseList()
	assert.Empty(t, l.View(theme, 80, true))

	l.SetItems(sampleCourses())
	l.SetFavorite("MAT135H1", true)
	out := l.View(theme, 80, true)

	assert.Contains(t, out, "Recommended courses (3)")
	assert.Contains(t, out, "CSC108H1")
	assert.Contains(t, out, "Introductory Psychology")
	assert.Contains(t, out, styles.StatusIndicators.Favorite)
	// The selected card is detailed.
	assert.Contains(t, out, "Programming in Python.")
	assert.NotContains(t, out, "High school calculus")

	l.ToggleExpanded()
	assert.Contains(t, l.View(theme, 80, true), "Prerequisites: High school calculus")
}

func TestRenderCourseCard_FitsWidth(t *testing.T) {
	theme := styles.NewTheme("dark")
	item := model.RecommendationItem{CourseCode: "ENG140Y1", Name: strings.Repeat("Literature ", 20)}

	card := RenderCourseCard(theme, item, false, false, false, 40)
	for _, line := range strings.Split(card, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 40)
	}
	assert.Contains(t, card, "...")
}

func TestRenderCourseCard_NameOnly(t *testing.T) {
	theme := styles.NewTheme("dark")
	card := RenderCourseCard(theme, model.RecommendationItem{Name: "Mystery Course"}, true, false, true, 60)
	assert.Contains(t, card, "Mystery Course")
}

// =============================================================================
// BARS
// =============================================================================

func TestRenderStatusBar(t *testing.T) {
	theme := styles.NewTheme("dark")
	help := key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "reset"))

	idle := RenderStatusBar(theme, 100, StatusInfo{Turns: 3, Courses: 2, Hints: []key.Binding{help}})
	assert.Contains(t, idle, "3 turns")
	assert.Contains(t, idle, "2 courses")
	assert.Contains(t, idle, "reset")

	busy := RenderStatusBar(theme, 100, StatusInfo{Busy: true, Spinner: "*"})
	assert.Contains(t, busy, "waiting for the advisor")

	errBar := RenderStatusBar(theme, 100, StatusInfo{Message: "upload failed", IsError: true})
	assert.Contains(t, errBar, styles.StatusIndicators.Error)
	assert.Contains(t, errBar, "upload failed")
}

func TestRenderHeader(t *testing.T) {
	theme := styles.NewTheme("dark")
	out := RenderHeader(theme, 100, "1a2b3c4d", "14:05")
	assert.Contains(t, out, "CourseCraft")
	assert.Contains(t, out, "session 1a2b3c4d")
	assert.Contains(t, out, "14:05")
}

func TestSpreadDropsRightWhenNarrow(t *testing.T) {
	assert.Equal(t, "left", spread("left", "right", 6))
	assert.Equal(t, "a   b", spread("a", "b", 5))
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdown_Render(t *testing.T) {
	md := NewMarkdown("notty")
	out := md.Render("**Hello** there", 40)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "there")
	assert.False(t, strings.HasPrefix(out, "\n"))

	// A second render at the same width reuses the renderer.
	_ = md.Render("again", 40)
	assert.Len(t, md.renderers, 1)
}

func TestMarkdown_BadStyleFallsBack(t *testing.T) {
	md := NewMarkdown("no-such-style")
	out := md.Render("plain text", 30)
	assert.Contains(t, out, "plain text")
}
