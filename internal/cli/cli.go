// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and dispatch for coursecraft.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ece1786-2024/CourseCraft/internal/ui/chat"
	"github.com/ece1786-2024/CourseCraft/internal/ui/components"
	"github.com/ece1786-2024/CourseCraft/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdServe
	CmdFavorites
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Config  string // --config FILE
	URL     string // --url URL, overrides service.base_url
	Verbose bool
	Quiet   bool
	JSON    bool

	// Command-specific
	Name       string // command word as typed
	Subcommand string
	Query      string

	// Raw holds the arguments after the command word, global flags removed.
	Raw []string

	// Options holds command-specific named options (e.g., --file)
	Options map[string]string
}

const usageText = `coursecraft - find your first-year courses by chatting with an advisor

Usage:
  coursecraft                     Start the chat (full screen; line mode when piped)
  coursecraft chat                Line-mode chat
  coursecraft ask "message"       Send one message and print the reply
    -f, --file FILE               Upload a resume first
    --session ID                  Continue the conversation of an earlier ask
  coursecraft serve               Run the stub advisor service
    --addr ADDR                   Listen address
    --script FILE                 YAML/JSON script of replies and courses
    --min-turns N                 Turns before "done" ends the chat
  coursecraft favorites [list|show CODE|remove CODE]
  coursecraft history [list|search Q|show ID|delete ID|export ID]
    --limit N                     Show at most N conversations
    --format FMT                  Export format: json, markdown, yaml, html
    --output DIR                  Export directory
    --courses                     Export only the recommended courses
    --open                        Open the exported file
  coursecraft config [show|path|init|get KEY|set KEY VALUE|reset|validate]
  coursecraft version
  coursecraft help

Global flags:
  --config FILE                   Use this configuration file
  --url URL                       Advisor service URL
  -v, --verbose                   Debug logging
  -q, --quiet                     Minimal output
  --json                          JSON output (ask, favorites, history, config, version)

In the chat:
  Enter sends, Alt+Enter (or Ctrl+J) adds a line break
  Tab moves to the recommended courses, f saves one, Ctrl+R starts over
  /upload PATH, /export [FMT] [courses], /favorites, /reset, /help, /quit

Environment:
  COURSECRAFT_HOME                Data directory (default ~/.coursecraft)
  COURSECRAFT_SERVICE_URL         Advisor service URL
  COURSECRAFT_LOG_LEVEL           debug, info, warn, error
  NO_COLOR                        Disable colors

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "coursecraft version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// commandBoolFlags lists, per command, the flags that never take a value.
var commandBoolFlags = map[Command][]string{
	CmdHistory: historyBoolFlags,
	CmdConfig:  {"force"},
}

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	args.Name = strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	var cmd Command
	switch args.Name {
	case "tui":
		cmd = CmdTUI
	case "chat", "repl":
		cmd = CmdChat
	case "ask":
		parseAskArgs(&args, args.Raw)
		return CmdAsk, args
	case "serve", "server":
		cmd = CmdServe
	case "favorites", "favourites", "fav":
		cmd = CmdFavorites
	case "history", "hist":
		cmd = CmdHistory
	case "config":
		cmd = CmdConfig
	case "version", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		if len(args.Raw) > 0 {
			args.Subcommand = args.Raw[0]
		}
		return CmdHelp, args
	default:
		return CmdUnknown, args
	}

	parser := NewArgParser(args.Raw, commandBoolFlags[cmd]...)
	args.Subcommand = parser.Subcommand()
	return cmd, args
}

// parseGlobalFlags extracts global flags wherever they appear and returns
// what is left. Everything after "--" is left alone.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	args := Args{Options: make(map[string]string)}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, value, hasValue := strings.Cut(arg, "=")

		switch name {
		case "--":
			return append(remaining, argv[i:]...), args
		case "-v", "--verbose":
			args.Verbose = true
			continue
		case "-q", "--quiet":
			args.Quiet = true
			continue
		case "--json":
			args.JSON = true
			continue
		case "--config", "--url":
			if !hasValue {
				if i+1 >= len(argv) {
					remaining = append(remaining, arg)
					continue
				}
				i++
				value = argv[i]
			}
			if name == "--config" {
				args.Config = expandHome(value)
			} else {
				args.URL = value
			}
			continue
		}
		remaining = append(remaining, arg)
	}
	return remaining, args
}

// parseAskArgs collects the message and the --file and --session options.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "-f" || arg == "--file":
			if i+1 < len(remaining) {
				i++
				args.Options["file"] = remaining[i]
			}
		case strings.HasPrefix(arg, "--file="):
			args.Options["file"] = strings.TrimPrefix(arg, "--file=")
		case arg == "--session":
			if i+1 < len(remaining) {
				i++
				args.Options["session"] = remaining[i]
			}
		case strings.HasPrefix(arg, "--session="):
			args.Options["session"] = strings.TrimPrefix(arg, "--session=")
		case arg == "--":
			query = append(query, remaining[i+1:]...)
			i = len(remaining)
		default:
			query = append(query, arg)
		}
	}
	args.Query = strings.TrimSpace(strings.Join(query, " "))
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd.
func Run(ctx context.Context, cmd Command, args Args) error {
	ConfigureColors()

	switch cmd {
	case CmdTUI:
		return HandleTUI(ctx, args)
	case CmdChat:
		return HandleChat(ctx, args)
	case CmdAsk:
		return HandleAsk(ctx, args)
	case CmdServe:
		return HandleServe(ctx, args)
	case CmdFavorites:
		return HandleFavorites(ctx, args)
	case CmdHistory:
		return HandleHistory(args)
	case CmdConfig:
		return HandleConfig(args)
	case CmdVersion:
		return HandleVersion(os.Stdout, args)
	case CmdHelp:
		PrintUsage(os.Stdout)
		return nil
	default:
		return ErrUnknownSubcommand("coursecraft", args.Name, "coursecraft help")
	}
}

// HandleVersion prints version information, as JSON with --json.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	PrintVersion(w)
	return nil
}

// HandleTUI starts the full-screen chat, or the line-mode chat when the
// terminal cannot host it.
func HandleTUI(ctx context.Context, args Args) error {
	if !CanRunTUI() {
		return HandleChat(ctx, args)
	}

	app, err := NewApp(args, AppOptions{LogToFile: true})
	if err != nil {
		return err
	}
	defer app.Close()

	ui := app.Config.UI
	theme := styles.NewTheme(ui.Theme)
	theme.SetCompact(ui.CompactMode)

	eng := app.NewEngine(nil)
	defer eng.Close()

	app.Logger.Info("chat started", "session", eng.Session().ShortID(), "service", app.Client.BaseURL())
	return chat.Run(ctx, chat.Options{
		Engine:         eng,
		Favorites:      app.Favorites,
		ExportDir:      ".",
		MaxUploadBytes: app.Config.Upload.MaxBytes,
		Theme:          theme,
		Markdown:       components.NewMarkdown(ui.MarkdownStyle),
		WordWrap:       ui.WordWrap,
		ShowTimestamps: ui.ShowTimestamps,
		Logger:         app.Logger,
	})
}
