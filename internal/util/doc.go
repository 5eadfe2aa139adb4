// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across CourseCraft.
//
// # Key Functions
//
// Text:
//   - NormalizeInput: trim and NFC-normalize user input before it is sent
//   - TruncateWidth: cut a string to a terminal column budget
//   - PadRight: pad a string to a column width
//   - Plural: pick a singular or plural noun for a count
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	msg := util.NormalizeInput(raw) // "" means nothing to send
//	line := util.TruncateWidth(course.Description, width)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
