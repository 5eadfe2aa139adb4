// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes advising sessions and their course recommendations
// to files.
//
// # Supported Formats
//
//   - JSON: The stored conversation, or the bare course array
//   - Markdown: Transcript plus one section per course
//   - YAML: Same content as JSON, easier to edit by hand
//   - HTML: Standalone page with course cards
//
// # Usage
//
//	exporter, err := export.New(export.FormatMarkdown, &export.Options{OutputDir: "."})
//	path, err := export.ExportToFile(conv, exporter, opts)
package export
