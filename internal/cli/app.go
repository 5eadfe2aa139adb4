// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for the commands that talk to the advisor.

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/config"
	"github.com/ece1786-2024/CourseCraft/internal/engine"
	"github.com/ece1786-2024/CourseCraft/internal/logging"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/session"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
	"github.com/ece1786-2024/CourseCraft/internal/telemetry"
)

// =============================================================================
// APP
// =============================================================================

// App bundles what a command needs: configuration, logger, advisor client
// and local stores. Favorites and Conversations are nil when they could not
// be opened; the commands degrade instead of failing.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	LogLevel      *slog.LevelVar
	Client        *advisor.Client
	Metrics       *telemetry.Metrics
	Favorites     *storage.FavoritesStore
	Conversations *storage.ConversationStore

	Out io.Writer
	Err io.Writer

	logFile *os.File
}

// AppOptions tunes NewApp.
type AppOptions struct {
	// LogToFile sends logs to the configured log file. The TUI sets it
	// because it owns the terminal.
	LogToFile bool

	// SkipStores leaves Favorites and Conversations nil.
	SkipStores bool
}

// LoadConfig reads the configuration named by args, or the default one, and
// applies the --url override.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.Config != "" {
		cfg, err = config.LoadFromPath(args.Config)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("[!]"), err)
		}
	}

	if args.URL != "" {
		cfg.Service.BaseURL = args.URL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// NewApp builds an App from parsed arguments.
func NewApp(args Args, opts AppOptions) (*App, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		LogLevel: new(slog.LevelVar),
		Metrics:  telemetry.NewMetrics(nil),
		Out:      os.Stdout,
		Err:      os.Stderr,
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	switch {
	case args.Verbose:
		level = slog.LevelDebug
	case args.Quiet:
		level = slog.LevelError
	}
	app.LogLevel.Set(level)

	if opts.LogToFile {
		path, err := cfg.LogPath()
		if err == nil {
			app.Logger, app.logFile, err = logging.NewFile(path, app.LogLevel)
		}
		if err != nil {
			app.Logger = logging.NewNop()
		}
	} else {
		app.Logger = logging.New(app.LogLevel)
	}

	app.Client = advisor.NewClient(cfg.Service.BaseURL).
		WithTimeout(cfg.ServiceTimeout()).
		WithRateLimit(cfg.Service.RateLimitPerSec, cfg.Service.Burst).
		WithLogger(app.Logger)

	if !opts.SkipStores {
		app.openStores()
	}
	return app, nil
}

func (a *App) openStores() {
	if err := config.EnsureConfigDir(); err != nil {
		a.Logger.Warn("config directory unavailable", "error", err)
	}

	if path, err := a.Config.DatabasePath(); err != nil {
		a.Logger.Warn("favorites disabled", "error", err)
	} else if favs, err := storage.OpenFavorites(path); err != nil {
		a.Logger.Warn("favorites disabled", "path", path, "error", err)
	} else {
		a.Favorites = favs
	}

	if dir, err := a.Config.ConversationsDir(); err != nil {
		a.Logger.Warn("history disabled", "error", err)
	} else if store, err := storage.NewConversationStore(dir); err != nil {
		a.Logger.Warn("history disabled", "dir", dir, "error", err)
	} else {
		a.Conversations = store
	}
}

// Close releases the stores and the log file.
func (a *App) Close() error {
	var errs []error
	if a.Favorites != nil {
		errs = append(errs, a.Favorites.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// Texts returns the chat texts from the configuration.
func (a *App) Texts() engine.Texts {
	c := a.Config.Chat
	return engine.Texts{
		Greeting:     c.Greeting,
		Placeholder:  c.Placeholder,
		Fallback:     c.Fallback,
		UploadNotice: c.UploadNotice,
		Summary:      c.Summary,
	}
}

// NewEngine starts a conversation with a fresh session. Finished
// conversations are saved to history, and onTerminated (if set) runs after.
// A reset keeps the session, so later conversations of the same session are
// saved as "<id>-2", "<id>-3" and so on.
func (a *App) NewEngine(onTerminated func([]model.RecommendationItem)) *engine.Engine {
	return a.NewEngineForSession(session.New(), onTerminated)
}

// NewEngineForSession is NewEngine for an existing session, so the advisor
// picks up the conversation it already holds for that ID.
func (a *App) NewEngineForSession(sess session.Session, onTerminated func([]model.RecommendationItem)) *engine.Engine {
	arch := &archiver{app: a}
	arch.eng = engine.New(engine.Options{
		Session:          sess,
		Service:          a.Client,
		Texts:            a.Texts(),
		UploadExtensions: a.Config.Upload.AllowedExtensions,
		MaxUploadBytes:   a.Config.Upload.MaxBytes,
		OnTerminated: func(items []model.RecommendationItem) {
			arch.archive(items)
			if onTerminated != nil {
				onTerminated(items)
			}
		},
		Logger:   a.Logger,
		Recorder: a.Metrics,
	})
	return arch.eng
}

// archiver saves each finished conversation of one engine to history.
// Termination callbacks of consecutive conversations may overlap.
type archiver struct {
	app *App
	eng *engine.Engine

	mu    sync.Mutex
	saved int
}

func (ar *archiver) archive(items []model.RecommendationItem) string {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	id := ar.eng.Session().ID()
	if ar.saved > 0 {
		id = fmt.Sprintf("%s-%d", id, ar.saved+1)
	}
	ar.saved++
	ar.app.SaveConversation(id, ar.eng, items)
	return id
}

// SaveConversation writes the engine's finished conversation to history
// under id. A conversation in which the student said nothing is not saved.
func (a *App) SaveConversation(id string, eng *engine.Engine, items []model.RecommendationItem) {
	if a.Conversations == nil || eng == nil {
		return
	}
	t := eng.Transcript()
	if t.CountByOrigin(model.OriginUser) == 0 {
		return
	}
	conv := storage.NewStoredConversation(id, eng.Session().StartedAt(), t, true, items)
	if err := a.Conversations.Save(conv); err != nil {
		a.Logger.Warn("failed to save conversation", "id", id, "error", err)
		return
	}
	a.Logger.Debug("conversation saved", "id", id, "courses", len(items))
}
