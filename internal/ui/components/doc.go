// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI pieces for the CourseCraft TUI.

# Components

  - Markdown (markdown.go) - glamour renderer for advisor turns, cached per width
  - CourseList (courselist.go) - selectable course cards with favorite markers
  - RenderHeader, RenderStatusBar (statusbar.go) - top and bottom bars

Components are plain values rendered with a *styles.Theme; the chat model owns
their state and calls View or Render from its own View.
*/
package components
