// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ece1786-2024/CourseCraft/internal/engine"
)

// =============================================================================
// MESSAGES
// =============================================================================

// snapshotMsg carries the engine state after a change.
type snapshotMsg struct {
	snap engine.Snapshot
}

// taskKind says which engine operation a task belongs to.
type taskKind int

const (
	taskQuery taskKind = iota
	taskReset
	taskUpload
)

// taskDoneMsg reports a finished engine task.
type taskDoneMsg struct {
	kind    taskKind
	name    string
	outcome engine.Outcome
	err     error
}

// noticeMsg shows a transient line in the status bar.
type noticeMsg struct {
	text  string
	isErr bool
}

// clearNoticeMsg removes the notice with the given id, if it is still shown.
type clearNoticeMsg struct {
	id int
}

// favoritesLoadedMsg carries the favorited course codes.
type favoritesLoadedMsg struct {
	codes []string
	err   error
}

// favoriteToggledMsg reports a favorite change.
type favoriteToggledMsg struct {
	code  string
	added bool
	err   error
}

// noticeDuration is how long a notice stays in the status bar.
const noticeDuration = 4 * time.Second

// =============================================================================
// COMMANDS
// =============================================================================

// waitForUpdate blocks until the engine signals a change, then reads the
// latest snapshot. Signals coalesce, so a burst of changes costs one render.
func waitForUpdate(updates <-chan struct{}, eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return snapshotMsg{snap: eng.Snapshot()}
	}
}

// waitForTask turns an engine task into a message.
func waitForTask(ctx context.Context, kind taskKind, name string, task *engine.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	return func() tea.Msg {
		outcome, err := task.Wait(ctx)
		return taskDoneMsg{kind: kind, name: name, outcome: outcome, err: err}
	}
}

func clearNoticeAfter(id int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}
