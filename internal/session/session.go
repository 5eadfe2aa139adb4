// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidID is returned by Parse for identifiers that are not UUIDs.
var ErrInvalidID = errors.New("invalid session id")

// Session identifies one user of the advisor service.
type Session struct {
	id        string
	startedAt time.Time
}

// New returns a session with a random version 4 UUID.
func New() Session {
	return Session{
		id:        uuid.New().String(),
		startedAt: time.Now(),
	}
}

// Parse returns a session for an existing identifier.
func Parse(id string) (Session, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, id, err)
	}
	return Session{id: u.String(), startedAt: time.Now()}, nil
}

// ID returns the identifier sent to the service as userId.
func (s Session) ID() string {
	return s.id
}

// StartedAt returns when this process created or resumed the session.
func (s Session) StartedAt() time.Time {
	return s.startedAt
}

// IsZero reports whether s is the zero Session.
func (s Session) IsZero() bool {
	return s.id == ""
}

// ShortID returns the first eight characters of the ID for display.
func (s Session) ShortID() string {
	if len(s.id) <= 8 {
		return s.id
	}
	return s.id[:8]
}

// String implements fmt.Stringer.
func (s Session) String() string {
	return s.id
}
