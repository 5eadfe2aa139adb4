// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// ORIGIN TYPE
// =============================================================================

// Origin identifies who produced a turn.
type Origin int

const (
	// OriginBot marks turns produced by the assistant (including the seed
	// greeting and the pending placeholder).
	OriginBot Origin = iota
	// OriginUser marks turns typed by the user.
	OriginUser
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginBot:
		return "bot"
	case OriginUser:
		return "user"
	default:
		return "unknown"
	}
}

// MarshalText encodes the origin as "bot" or "user".
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes "bot" or "user".
func (o *Origin) UnmarshalText(b []byte) error {
	switch string(b) {
	case "bot":
		*o = OriginBot
	case "user":
		*o = OriginUser
	default:
		return fmt.Errorf("unknown origin %q", b)
	}
	return nil
}

// DisplayName returns a human-readable name for the origin.
func (o Origin) DisplayName() string {
	switch o {
	case OriginUser:
		return "You"
	case OriginBot:
		return "Advisor"
	default:
		return o.String()
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one entry in a transcript. Bot text may contain markdown.
type Turn struct {
	Text   string `json:"text"`
	Origin Origin `json:"origin"`

	placeholder bool
}

// NewUserTurn returns a turn authored by the user.
func NewUserTurn(text string) Turn {
	return Turn{Text: text, Origin: OriginUser}
}

// NewBotTurn returns a final bot turn.
func NewBotTurn(text string) Turn {
	return Turn{Text: text, Origin: OriginBot}
}

func newPlaceholderTurn(text string) Turn {
	return Turn{Text: text, Origin: OriginBot, placeholder: true}
}

// IsPlaceholder reports whether the turn is the pending "thinking" turn
// that will be replaced when the service responds.
func (t Turn) IsPlaceholder() bool {
	return t.placeholder
}

// IsUser reports whether the user authored the turn.
func (t Turn) IsUser() bool {
	return t.Origin == OriginUser
}

// IsBot reports whether the assistant authored the turn.
func (t Turn) IsBot() bool {
	return t.Origin == OriginBot
}
