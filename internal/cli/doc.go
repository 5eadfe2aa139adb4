// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for coursecraft.
//
// # Key Types
//
//   - Command: the commands coursecraft understands
//   - Args: parsed global flags plus the command's own arguments
//   - App: configuration, logger, advisor client and local stores shared
//     by the commands
//   - ChatSession: the line-mode chat
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if err := cli.Run(ctx, cmd, args); err != nil {
//	    cli.HandleErrorAndExit(err, args.JSON)
//	}
//
// # Commands Overview
//
//   - (none), tui: full-screen chat; line mode when not on a terminal
//   - chat: line-mode chat
//   - ask: one message, one reply
//   - serve: the stub advisor service
//   - favorites: saved courses
//   - history: finished conversations
//   - config: configuration management
//   - version, help
//
// # Error Handling
//
// Handlers return errors; Run's caller prints them and picks the exit code
// with GetExitCode. With --json, output is a JSONResponse on stdout.
package cli
