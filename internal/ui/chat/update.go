// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ece1786-2024/CourseCraft/internal/engine"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, waitForUpdate(m.updates, m.eng)

	case taskDoneMsg:
		return m, m.handleTaskDone(msg)

	case noticeMsg:
		return m, m.setNotice(msg.text, msg.isErr)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case favoritesLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("could not load favorites", "error", msg.err)
			return m, nil
		}
		m.courses.SetFavorites(msg.codes)
		m.refresh()
		return m, nil

	case favoriteToggledMsg:
		if msg.err != nil {
			return m, m.setNotice(msg.err.Error(), true)
		}
		m.courses.SetFavorite(msg.code, msg.added)
		m.refresh()
		if msg.added {
			return m, m.setNotice("Saved "+msg.code+" to favorites", false)
		}
		return m, m.setNotice("Removed "+msg.code+" from favorites", false)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() && m.snap.Transcript.HasPlaceholder() {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return nil

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.setFocus(focusCourses)
		} else {
			m.setFocus(focusInput)
		}
		m.refresh()
		return nil
	}

	if m.focus == focusCourses {
		return m.handleCourseKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleCourseKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Blur):
		m.setFocus(focusInput)
	case key.Matches(msg, m.keys.Up):
		m.courses.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.courses.MoveDown()
	case key.Matches(msg, m.keys.Expand):
		m.courses.ToggleExpanded()
	case key.Matches(msg, m.keys.Favorite):
		return m.toggleFavorite()
	default:
		return nil
	}
	m.refresh()
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Newline):
		m.eng.SetInput(m.input.Value())
		m.eng.HandleKey(m.ctx, engine.KeyEvent{Key: engine.KeyEnter, Alt: true})
		m.input.SetValue(m.eng.Input())
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submit sends the input, or runs it as a command.
func (m *Model) submit() tea.Cmd {
	value := m.input.Value()
	if isCommand(value) {
		return m.handleCommand(value)
	}

	m.eng.SetInput(util.NormalizeInput(value))
	task := m.eng.HandleKey(m.ctx, engine.KeyEvent{Key: engine.KeyEnter})
	if task == nil {
		if m.busy() {
			return m.setNotice("Still waiting for the advisor", true)
		}
		return nil
	}
	m.input.Reset()
	return waitForTask(m.ctx, taskQuery, "", task)
}

// =============================================================================
// ENGINE EVENTS
// =============================================================================

func (m *Model) applySnapshot(snap engine.Snapshot) {
	if snap.Version < m.snap.Version {
		return
	}
	m.snap = snap
	m.courses.SetItems(snap.Recommendations)
	if m.courses.Len() == 0 && m.focus == focusCourses {
		m.setFocus(focusInput)
	} else {
		m.setFocus(m.focus)
	}
	m.refresh()
	m.viewport.GotoBottom()
}

func (m *Model) handleTaskDone(msg taskDoneMsg) tea.Cmd {
	switch msg.kind {
	case taskUpload:
		switch {
		case msg.outcome == engine.OutcomeUploaded:
			return m.setNotice("Uploaded "+msg.name, false)
		case msg.outcome == engine.OutcomeDiscarded:
			return nil
		case msg.err != nil:
			var upErr *engine.UploadError
			if errors.As(msg.err, &upErr) && upErr.Rejected() {
				return m.setNotice(upErr.Err.Error(), true)
			}
			return m.setNotice("Upload of "+msg.name+" failed: "+msg.err.Error(), true)
		}

	case taskReset:
		if msg.err != nil {
			m.logger.Warn("advisor did not acknowledge reset", "error", msg.err)
		}
		return m.setNotice("Started a new conversation", false)

	case taskQuery:
		if msg.err != nil && msg.outcome == engine.OutcomeFailed {
			m.logger.Debug("query failed", "error", msg.err)
		}
	}
	return nil
}
