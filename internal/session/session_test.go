// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	s := New()
	if s.IsZero() {
		t.Fatal("New() returned zero session")
	}
	u, err := uuid.Parse(s.ID())
	if err != nil {
		t.Fatalf("ID() = %q is not a UUID: %v", s.ID(), err)
	}
	if u.Version() != 4 {
		t.Errorf("UUID version = %d, want 4", u.Version())
	}
	if s.StartedAt().IsZero() {
		t.Error("StartedAt() should be set")
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New().ID()
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
}

func TestParse(t *testing.T) {
	orig := New()
	s, err := Parse(orig.ID())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.ID() != orig.ID() {
		t.Errorf("Parse().ID() = %q, want %q", s.ID(), orig.ID())
	}

	_, err = Parse("not-a-uuid")
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("Parse(bad) error = %v, want ErrInvalidID", err)
	}
}

func TestShortID(t *testing.T) {
	s := New()
	if got := s.ShortID(); len(got) != 8 || got != s.ID()[:8] {
		t.Errorf("ShortID() = %q", got)
	}
	var zero Session
	if zero.ShortID() != "" {
		t.Error("zero ShortID() should be empty")
	}
}
