// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/export"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command.
type CommandHandler func(m *Model, args []string) tea.Cmd

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	"help":      handleHelpCommand,
	"h":         handleHelpCommand,
	"quit":      handleQuitCommand,
	"q":         handleQuitCommand,
	"exit":      handleQuitCommand,
	"reset":     handleResetCommand,
	"new":       handleResetCommand,
	"upload":    handleUploadCommand,
	"resume":    handleUploadCommand,
	"export":    handleExportCommand,
	"favorites": handleFavoritesCommand,
	"fav":       handleFavoritesCommand,
}

// commandHelp is shown by /help.
const commandHelp = "/upload PATH  /export [json|markdown|yaml|html] [courses]  /favorites  /reset  /quit"

// isCommand reports whether input is a slash command rather than a message.
func isCommand(input string) bool {
	s := strings.TrimSpace(input)
	return strings.HasPrefix(s, "/") && len(s) > 1 && s[1] != '/'
}

// parseCommand splits "/name arg..." into a lower-cased name and arguments.
func parseCommand(input string) (string, []string) {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(strings.TrimPrefix(parts[0], "/")), parts[1:]
}

// handleCommand runs a slash command typed into the input.
func (m *Model) handleCommand(content string) tea.Cmd {
	m.input.Reset()
	m.eng.SetInput("")

	name, args := parseCommand(content)
	handler, ok := commandHandlers[name]
	if !ok {
		return m.setNotice(fmt.Sprintf("Unknown command /%s. Try /help", name), true)
	}
	return handler(m, args)
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelpCommand(m *Model, _ []string) tea.Cmd {
	m.showHelp = !m.showHelp
	m.layout()
	return m.setNotice(commandHelp, false)
}

func handleQuitCommand(m *Model, _ []string) tea.Cmd {
	m.quitting = true
	return tea.Quit
}

func handleResetCommand(m *Model, _ []string) tea.Cmd {
	return m.reset()
}

func handleUploadCommand(m *Model, args []string) tea.Cmd {
	if len(args) == 0 {
		return m.setNotice("Usage: /upload PATH", true)
	}
	path := expandHome(strings.Join(args, " "))

	att, err := advisor.LoadAttachment(path, m.maxUpload)
	if err != nil {
		return m.setNotice(err.Error(), true)
	}
	task := m.eng.Upload(m.ctx, att)
	return tea.Batch(
		m.setNotice("Uploading "+att.Name+"...", false),
		waitForTask(m.ctx, taskUpload, att.Name, task),
	)
}

func handleExportCommand(m *Model, args []string) tea.Cmd {
	format := export.FormatMarkdown
	opts := m.exportOptions()
	for _, a := range args {
		if strings.EqualFold(a, "courses") {
			opts.RecommendationsOnly = true
			continue
		}
		f, err := export.ParseFormat(a)
		if err != nil {
			return m.setNotice(err.Error(), true)
		}
		format = f
	}
	if opts.RecommendationsOnly && len(m.snap.Recommendations) == 0 {
		return m.setNotice("No recommendations to export yet", true)
	}

	conv := m.storedConversation()
	return func() tea.Msg {
		exporter, err := export.New(format, opts)
		if err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		path, err := export.ExportToFile(conv, exporter, opts)
		if err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		return noticeMsg{text: "Exported to " + path}
	}
}

func handleFavoritesCommand(m *Model, _ []string) tea.Cmd {
	if m.favorites == nil {
		return m.setNotice("Favorites are not available", true)
	}
	store := m.favorites
	ctx := m.ctx
	return func() tea.Msg {
		favs, err := store.List(ctx)
		if err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		if len(favs) == 0 {
			return noticeMsg{text: "No favorite courses yet"}
		}
		codes := make([]string, 0, len(favs))
		for _, f := range favs {
			codes = append(codes, f.Item.CourseCode)
		}
		return noticeMsg{text: util.Plural(len(favs), "favorite") + ": " + strings.Join(codes, ", ")}
	}
}

// =============================================================================
// SHARED ACTIONS
// =============================================================================

func (m *Model) reset() tea.Cmd {
	task := m.eng.Reset(m.ctx)
	m.input.Reset()
	m.setFocus(focusInput)
	return waitForTask(m.ctx, taskReset, "", task)
}

func (m *Model) loadFavorites() tea.Cmd {
	if m.favorites == nil {
		return nil
	}
	store := m.favorites
	ctx := m.ctx
	return func() tea.Msg {
		favs, err := store.List(ctx)
		if err != nil {
			return favoritesLoadedMsg{err: err}
		}
		codes := make([]string, 0, len(favs))
		for _, f := range favs {
			codes = append(codes, f.Item.CourseCode)
		}
		return favoritesLoadedMsg{codes: codes}
	}
}

func (m *Model) toggleFavorite() tea.Cmd {
	item, ok := m.courses.Selected()
	if !ok || m.favorites == nil {
		return nil
	}
	if item.CourseCode == "" {
		return m.setNotice("This course has no code to save", true)
	}
	store := m.favorites
	ctx := m.ctx
	sessionID := m.eng.Session().ID()
	return func() tea.Msg {
		added, err := store.Toggle(ctx, item, sessionID)
		return favoriteToggledMsg{code: item.CourseCode, added: added, err: err}
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
