// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Run the bundled stub advisor service.
//
// Command: serve
// Short:   Serve the advisor protocol with scripted replies
//
// The stub speaks the same HTTP protocol as the real advisor, so the chat
// can be tried and tested without it. Prometheus metrics are served at
// /metrics and a liveness probe at /health.
//
// Examples:
//   coursecraft serve
//   coursecraft serve --addr :8080 --script demo.yaml --min-turns 1
//
// Flags:
//   --addr ADDR         Listen address (default from server.addr)
//   --script FILE       YAML or JSON script with replies and courses
//   --min-turns N       Student turns required before a trigger ends the chat

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ece1786-2024/CourseCraft/internal/config"
	"github.com/ece1786-2024/CourseCraft/internal/logging"
	"github.com/ece1786-2024/CourseCraft/internal/server"
	"github.com/ece1786-2024/CourseCraft/internal/telemetry"
)

// HandleServe runs the stub service until interrupted.
func HandleServe(ctx context.Context, args Args) error {
	app, err := NewApp(args, AppOptions{SkipStores: true})
	if err != nil {
		return err
	}
	defer app.Close()

	opts, script, err := serverOptions(app, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path := configPathFor(args); path != "" {
		go watchLogLevel(ctx, path, app.LogLevel, app.Logger)
	}

	srv := server.New(opts, script)
	ready := make(chan string, 1)
	go func() {
		addr, ok := <-ready
		if ok && !args.Quiet {
			fmt.Fprintf(app.Err, "%s Advisor stub listening on http://%s\n", SuccessStyle.Render("[OK]"), addr)
			fmt.Fprintf(app.Err, "%s\n", DimStyle.Render("Point the chat at it with --url http://"+addr+". Ctrl+C to stop."))
		}
	}()
	return srv.ListenAndServe(ctx, ready)
}

// serverOptions merges the configuration with command flags.
func serverOptions(app *App, args Args) (server.Options, *server.Script, error) {
	cfg := app.Config.Server
	parser := NewArgParser(args.Raw)

	scriptPath := parser.FlagOrDefault("script", cfg.ScriptPath)
	var script *server.Script
	if scriptPath != "" {
		s, err := server.LoadScript(expandHome(scriptPath))
		if err != nil {
			return server.Options{}, nil, err
		}
		script = s
	}

	minTurns := cfg.MinTurns
	if parser.HasFlag("min-turns") {
		n, err := parser.FlagInt("min-turns")
		if err != nil || n < 0 {
			return server.Options{}, nil, NewValidationError("min-turns", parser.Flag("min-turns"), "must be a non-negative integer")
		}
		minTurns = n
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := server.Options{
		Addr:             parser.FlagOrDefault("addr", cfg.Addr),
		AllowedOrigins:   cfg.AllowedOrigins,
		MinTurns:         minTurns,
		RateLimitPerSec:  cfg.RateLimitPerSec,
		UploadExtensions: app.Config.Upload.AllowedExtensions,
		MaxUploadBytes:   app.Config.Upload.MaxBytes,
		Logger:           app.Logger,
		Metrics:          telemetry.NewMetrics(reg),
	}
	return opts, script, nil
}

// configPathFor returns the file to watch: --config, else the default TOML
// path if it exists.
func configPathFor(args Args) string {
	if args.Config != "" {
		return args.Config
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// watchLogLevel applies log.level changes without a restart. Other settings
// need one.
func watchLogLevel(ctx context.Context, path string, level *slog.LevelVar, logger *slog.Logger) {
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("ignoring invalid config change", "path", path, "error", err)
			return
		}
		lv, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			logger.Warn("ignoring invalid log level", "level", cfg.Log.Level)
			return
		}
		if lv != level.Level() {
			level.Set(lv)
			logger.Info("log level changed", "level", lv.String())
		}
		logger.Info("config reloaded; restart to apply server settings", "path", path)
	})
	if err != nil {
		logger.Warn("config watch stopped", "error", err)
	}
}
