// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// COURSE LIST
// =============================================================================

// CourseList shows the recommendations of a finished conversation as cards,
// with one selected card and favorite markers.
type CourseList struct {
	items     []model.RecommendationItem
	cursor    int
	favorites map[string]bool
	expanded  bool
}

// NewCourseList creates an empty list.
func NewCourseList() *CourseList {
	return &CourseList{favorites: make(map[string]bool)}
}

// SetItems replaces the list. The selection moves back to the first card
// when the items change.
func (l *CourseList) SetItems(items []model.RecommendationItem) {
	if sameCourses(l.items, items) {
		return
	}
	l.items = items
	l.cursor = 0
}

func sameCourses(a, b []model.RecommendationItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Title() != b[i].Title() {
			return false
		}
	}
	return true
}

// Items returns the courses in the list.
func (l *CourseList) Items() []model.RecommendationItem {
	return l.items
}

// Len returns the number of courses.
func (l *CourseList) Len() int {
	return len(l.items)
}

// Cursor returns the selected index.
func (l *CourseList) Cursor() int {
	return l.cursor
}

// Selected returns the selected course.
func (l *CourseList) Selected() (model.RecommendationItem, bool) {
	if l.cursor < 0 || l.cursor >= len(l.items) {
		return model.RecommendationItem{}, false
	}
	return l.items[l.cursor], true
}

// MoveUp selects the previous course.
func (l *CourseList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// MoveDown selects the next course.
func (l *CourseList) MoveDown() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
	}
}

// ToggleExpanded switches between one-line and detailed cards.
func (l *CourseList) ToggleExpanded() {
	l.expanded = !l.expanded
}

// SetFavorites replaces the set of favorited course codes.
func (l *CourseList) SetFavorites(codes []string) {
	l.favorites = make(map[string]bool, len(codes))
	for _, c := range codes {
		l.favorites[strings.ToUpper(c)] = true
	}
}

// SetFavorite marks or unmarks one course code.
func (l *CourseList) SetFavorite(code string, fav bool) {
	code = strings.ToUpper(code)
	if fav {
		l.favorites[code] = true
	} else {
		delete(l.favorites, code)
	}
}

// IsFavorite reports whether a course code is favorited.
func (l *CourseList) IsFavorite(code string) bool {
	return l.favorites[strings.ToUpper(code)]
}

// View renders the list at width. focused highlights the selected card.
func (l *CourseList) View(theme *styles.Theme, width int, focused bool) string {
	if len(l.items) == 0 {
		return ""
	}

	var b strings.Builder
	title := fmt.Sprintf("Recommended courses (%d)", len(l.items))
	b.WriteString(theme.HeaderTitle.Render(title))
	b.WriteString("\n")

	for i, item := range l.items {
		selected := focused && i == l.cursor
		b.WriteString(RenderCourseCard(theme, item, selected, l.IsFavorite(item.CourseCode), l.expanded || selected, width))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderCourseCard renders one course. detailed adds the description and
// prerequisites.
func RenderCourseCard(theme *styles.Theme, item model.RecommendationItem, selected, favorite, detailed bool, width int) string {
	inner := width - theme.CourseCard.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}

	var head strings.Builder
	avail := inner
	if favorite {
		head.WriteString(theme.FavoriteMark.Render(styles.StatusIndicators.Favorite) + " ")
		avail -= util.StringWidth(styles.StatusIndicators.Favorite) + 1
	}
	if item.CourseCode != "" {
		head.WriteString(theme.CourseCode.Render(item.CourseCode))
		avail -= util.StringWidth(item.CourseCode) + 1
		if item.Name != "" {
			head.WriteString(" ")
		}
	}
	if item.Name != "" && avail > 0 {
		head.WriteString(theme.CourseName.Render(util.TruncateWidth(item.Name, avail)))
	}

	lines := []string{head.String()}

	if meta := courseMeta(item); meta != "" {
		lines = append(lines, theme.CourseMeta.Render(util.TruncateWidth(meta, inner)))
	}

	if detailed {
		if item.Description != "" {
			lines = append(lines, theme.CourseDescription.Width(inner).Render(item.Description))
		}
		if item.Prerequisites != "" {
			lines = append(lines, theme.CourseMeta.Width(inner).Render("Prerequisites: "+item.Prerequisites))
		}
		if item.Exclusions != "" {
			lines = append(lines, theme.CourseMeta.Width(inner).Render("Exclusions: "+item.Exclusions))
		}
		if len(item.MeetingSections) > 0 {
			lines = append(lines, theme.CourseMeta.Width(inner).Render("Sections: "+strings.Join(item.MeetingSections, ", ")))
		}
	}

	style := theme.CourseCard
	if selected {
		style = theme.CourseCardSelected
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func courseMeta(item model.RecommendationItem) string {
	var parts []string
	for _, p := range []string{item.Department, item.Campus, item.Sessions} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}
