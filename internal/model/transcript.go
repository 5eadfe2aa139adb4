// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is an ordered, immutable sequence of turns. Every mutating
// operation returns a new Transcript and leaves the receiver untouched, so a
// Transcript handed to a renderer can never change underneath it.
//
// Invariants:
//   - a transcript built with Seed starts with exactly one bot turn
//   - at most one placeholder exists and, if present, it is the last turn
type Transcript struct {
	turns []Turn
}

// Seed returns a transcript containing only the greeting.
func Seed(greeting string) Transcript {
	return Transcript{turns: []Turn{NewBotTurn(greeting)}}
}

// with returns a copy of the turns with room for extra more entries.
func (t Transcript) with(extra int) []Turn {
	out := make([]Turn, len(t.turns), len(t.turns)+extra)
	copy(out, t.turns)
	return out
}

// =============================================================================
// OPERATIONS
// =============================================================================

// AppendUser appends a user turn. The text must contain non-whitespace
// characters and no placeholder may be pending; callers validate input first.
func (t Transcript) AppendUser(text string) Transcript {
	if strings.TrimSpace(text) == "" {
		panic("model: AppendUser called with empty text")
	}
	if t.HasPlaceholder() {
		panic("model: AppendUser called while a placeholder is pending")
	}
	turns := t.with(1)
	turns = append(turns, NewUserTurn(text))
	return Transcript{turns: turns}
}

// AppendPlaceholder appends the pending bot turn shown while a request is
// outstanding.
func (t Transcript) AppendPlaceholder(text string) Transcript {
	if t.HasPlaceholder() {
		panic("model: AppendPlaceholder called with a placeholder already pending")
	}
	turns := t.with(1)
	turns = append(turns, newPlaceholderTurn(text))
	return Transcript{turns: turns}
}

// ResolvePlaceholder replaces the trailing placeholder with a final bot turn.
// The length of the transcript does not change.
func (t Transcript) ResolvePlaceholder(finalText string) Transcript {
	if !t.HasPlaceholder() {
		panic("model: ResolvePlaceholder called without a pending placeholder")
	}
	turns := t.with(0)
	turns[len(turns)-1] = NewBotTurn(finalText)
	return Transcript{turns: turns}
}

// AppendBot adds a final bot turn. When a placeholder is pending the new turn
// is inserted directly before it so the placeholder remains last.
func (t Transcript) AppendBot(text string) Transcript {
	turns := t.with(1)
	if !t.HasPlaceholder() {
		turns = append(turns, NewBotTurn(text))
		return Transcript{turns: turns}
	}
	last := turns[len(turns)-1]
	turns[len(turns)-1] = NewBotTurn(text)
	turns = append(turns, last)
	return Transcript{turns: turns}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Len returns the number of turns.
func (t Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the turns in order.
func (t Transcript) Turns() []Turn {
	return t.with(0)
}

// At returns the turn at index i.
func (t Transcript) At(i int) Turn {
	return t.turns[i]
}

// Last returns the most recent turn, or false if the transcript is empty.
func (t Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// HasPlaceholder reports whether a placeholder is pending.
func (t Transcript) HasPlaceholder() bool {
	last, ok := t.Last()
	return ok && last.IsPlaceholder()
}

// CountByOrigin returns how many turns came from the given origin.
func (t Transcript) CountByOrigin(o Origin) int {
	n := 0
	for _, turn := range t.turns {
		if turn.Origin == o && !turn.placeholder {
			n++
		}
	}
	return n
}

// String renders the transcript as plain "Name: text" lines, mostly for logs
// and debugging.
func (t Transcript) String() string {
	var sb strings.Builder
	for i, turn := range t.turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		name := turn.Origin.DisplayName()
		if turn.placeholder {
			name += " (pending)"
		}
		fmt.Fprintf(&sb, "%s: %s", name, turn.Text)
	}
	return sb.String()
}
