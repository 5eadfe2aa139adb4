// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import "context"

// Key identifies a key press delivered to HandleKey.
type Key int

const (
	// KeyRune is a printable character; KeyEvent.Rune holds it.
	KeyRune Key = iota
	// KeyEnter is the Return key.
	KeyEnter
	// KeyBackspace deletes the last character of the input.
	KeyBackspace
)

// KeyEvent is a key press from the host. Terminals that cannot report
// Shift+Enter usually send Alt+Enter or Ctrl+J instead; hosts map those to
// Enter with Alt set.
type KeyEvent struct {
	Key   Key
	Rune  rune
	Shift bool
	Alt   bool
}

// HandleKey applies a key press to the input buffer. Enter without a
// modifier submits the buffer and returns the task (nil if nothing was
// sent). Enter with Shift or Alt inserts a newline and never submits.
func (e *Engine) HandleKey(ctx context.Context, ev KeyEvent) *Task {
	switch ev.Key {
	case KeyEnter:
		if ev.Shift || ev.Alt {
			e.mu.Lock()
			e.input += "\n"
			e.mu.Unlock()
			return nil
		}
		return e.SubmitInput(ctx)

	case KeyBackspace:
		e.mu.Lock()
		if r := []rune(e.input); len(r) > 0 {
			e.input = string(r[:len(r)-1])
		}
		e.mu.Unlock()
		return nil

	case KeyRune:
		if ev.Rune != 0 {
			e.mu.Lock()
			e.input += string(ev.Rune)
			e.mu.Unlock()
		}
		return nil
	}
	return nil
}
