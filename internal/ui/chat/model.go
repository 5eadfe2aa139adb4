// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/engine"
	"github.com/ece1786-2024/CourseCraft/internal/export"
	"github.com/ece1786-2024/CourseCraft/internal/logging"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat view.
type Options struct {
	Engine *engine.Engine

	// Favorites is optional; without it the favorite key is disabled.
	Favorites *storage.FavoritesStore

	// ExportDir is where /export writes. Empty means the working directory.
	ExportDir string

	MaxUploadBytes int64

	Theme    *styles.Theme
	Markdown *components.Markdown

	// WordWrap caps the width of advisor turns. Zero follows the window.
	WordWrap       int
	ShowTimestamps bool

	Logger *slog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

type focusArea int

const (
	focusInput focusArea = iota
	focusCourses
)

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	eng       *engine.Engine
	favorites *storage.FavoritesStore
	exportDir string
	maxUpload int64
	logger    *slog.Logger

	theme    *styles.Theme
	md       *components.Markdown
	wordWrap int
	showTime bool

	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	courses  *components.CourseList

	snap  engine.Snapshot
	focus focusArea

	updates     chan struct{}
	unsubscribe func()

	// rendered caches bubbles by width and text.
	rendered map[renderKey]string

	notice    string
	noticeErr bool
	noticeID  int

	showHelp bool
	width    int
	height   int
	ready    bool
	quitting bool
}

type renderKey struct {
	width int
	bot   bool
	text  string
}

// New creates the chat model and subscribes it to the engine.
func New(opts Options) *Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	md := opts.Markdown
	if md == nil {
		md = components.NewMarkdown("auto")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = advisor.DefaultMaxUploadBytes
	}

	ta := textarea.New()
	ta.Placeholder = "Tell the advisor what you enjoy, or type /help"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		ctx:       ctx,
		cancel:    cancel,
		eng:       opts.Engine,
		favorites: opts.Favorites,
		exportDir: opts.ExportDir,
		maxUpload: maxUpload,
		logger:    logger,
		theme:     theme,
		md:        md,
		wordWrap:  opts.WordWrap,
		showTime:  opts.ShowTimestamps,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		input:     ta,
		spinner:   sp,
		courses:   components.NewCourseList(),
		snap:      opts.Engine.Snapshot(),
		updates:   make(chan struct{}, 1),
		rendered:  make(map[renderKey]string),
	}
	m.keys.Favorite.SetEnabled(false)
	m.keys.setCourseMode(false, false)

	updates := m.updates
	m.unsubscribe = opts.Engine.Subscribe(func(engine.Snapshot) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	return m
}

// Init starts the cursor blink, the spinner and the engine listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		waitForUpdate(m.updates, m.eng),
		m.loadFavorites(),
	)
}

// Close stops listening to the engine and cancels in-flight work started
// from the view. It does not close the engine.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
		close(m.updates)
	}
	m.cancel()
}

// Snapshot returns the engine state the view last rendered.
func (m *Model) Snapshot() engine.Snapshot {
	return m.snap
}

// Quitting reports whether the user asked to leave.
func (m *Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// STATE HELPERS
// =============================================================================

func (m *Model) busy() bool {
	return m.snap.State == engine.AwaitingResponse
}

func (m *Model) setFocus(f focusArea) {
	if f == focusCourses && m.courses.Len() == 0 {
		f = focusInput
	}
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.keys.setCourseMode(f == focusCourses, m.courses.Len() > 0)
	if m.favorites == nil {
		m.keys.Favorite.SetEnabled(false)
	}
}

func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeID++
	m.notice = text
	m.noticeErr = isErr
	return clearNoticeAfter(m.noticeID)
}

func (m *Model) storedConversation() *storage.StoredConversation {
	sess := m.eng.Session()
	return storage.NewStoredConversation(sess.ID(), sess.StartedAt(), m.snap.Transcript, m.snap.Terminated, m.snap.Recommendations)
}

func (m *Model) exportOptions() *export.Options {
	opts := export.DefaultOptions()
	if m.exportDir != "" {
		opts.OutputDir = m.exportDir
	}
	return opts
}
