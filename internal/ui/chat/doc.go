// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive chat screen.
//
// The screen is a Bubble Tea model layered over an *engine.Engine. The
// engine owns the conversation; the model renders its snapshots and turns
// key presses into engine calls. Snapshots reach the model through a
// one-slot channel, so a burst of engine changes produces a single redraw.
//
// Once the advisor ends the conversation the recommended courses appear
// below the transcript. Tab moves focus to them; f saves the selected course
// to favorites.
//
// Slash commands typed into the input:
//
//	/upload PATH       send a resume to the advisor
//	/export [FORMAT]   write the conversation (add "courses" for the list only)
//	/favorites         list saved courses
//	/reset             start over
//	/help, /quit
package chat
