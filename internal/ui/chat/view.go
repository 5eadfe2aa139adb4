// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	parts := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatus(),
	}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keys.FullHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderHeader() string {
	started := ""
	if m.showTime {
		started = m.eng.Session().StartedAt().Local().Format("Jan 2 15:04")
	}
	return components.RenderHeader(m.theme, m.width, m.eng.Session().ShortID(), started)
}

func (m *Model) renderInput() string {
	style := m.theme.InputContainer
	if m.focus == focusInput {
		style = m.theme.InputContainerFocused
	}
	return style.Width(m.width).Render(m.input.View())
}

func (m *Model) renderStatus() string {
	return components.RenderStatusBar(m.theme, m.width, components.StatusInfo{
		Busy:    m.busy(),
		Spinner: m.spinner.View(),
		Turns:   m.snap.Transcript.CountByOrigin(model.OriginUser),
		Courses: len(m.snap.Recommendations),
		Message: m.notice,
		IsError: m.noticeErr,
		Hints:   m.keys.ShortHelp(),
	})
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport and input to the window.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.input.SetWidth(m.width - m.theme.InputContainer.GetHorizontalFrameSize())

	chrome := 1 + // header
		m.input.Height() + m.theme.InputContainer.GetVerticalFrameSize() +
		1 // status bar
	if m.showHelp {
		chrome += lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}

	height := m.height - chrome
	if height < 3 {
		height = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, height)
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = height
	}
	m.help.Width = m.width
	m.refresh()
}

// refresh re-renders the viewport content.
func (m *Model) refresh() {
	if m.width == 0 {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m *Model) renderTranscript() string {
	width := m.theme.BubbleWidth()
	if m.wordWrap > 0 && m.wordWrap < width {
		width = m.wordWrap
	}

	sep := "\n\n"
	if m.theme.Compact {
		sep = "\n"
	}

	turns := m.snap.Transcript.Turns()
	blocks := make([]string, 0, len(turns)+1)
	for _, turn := range turns {
		blocks = append(blocks, m.renderTurn(turn, width))
	}

	if list := m.courses.View(m.theme, width, m.focus == focusCourses); list != "" {
		blocks = append(blocks, list)
	}
	return strings.Join(blocks, sep)
}

func (m *Model) renderTurn(turn model.Turn, width int) string {
	if turn.IsPlaceholder() {
		name := m.theme.AdvisorName.Render(turn.Origin.DisplayName())
		return name + "\n" + m.spinner.View() + " " + m.theme.Placeholder.Render(turn.Text)
	}

	k := renderKey{width: width, bot: turn.IsBot(), text: turn.Text}
	if out, ok := m.rendered[k]; ok {
		return out
	}

	var out string
	if turn.IsBot() {
		inner := width - m.theme.AdvisorBubble.GetHorizontalFrameSize()
		body := m.md.Render(turn.Text, inner)
		out = m.theme.AdvisorName.Render(turn.Origin.DisplayName()) + "\n" + m.theme.AdvisorBubble.Render(body)
	} else {
		inner := width - m.theme.UserBubble.GetHorizontalFrameSize()
		body := lipgloss.NewStyle().Width(inner).Render(turn.Text)
		out = m.theme.UserName.Render(turn.Origin.DisplayName()) + "\n" + m.theme.UserBubble.Render(body)
	}

	if len(m.rendered) > 256 {
		m.rendered = make(map[renderKey]string)
	}
	m.rendered[k] = out
	return out
}
