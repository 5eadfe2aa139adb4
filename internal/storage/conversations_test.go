// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/model"
)

func sampleTranscript() model.Transcript {
	return model.Seed("Hello!").
		AppendUser("I want to study   machine learning").
		AppendBot("Do you enjoy math?").
		AppendUser("Yes, done").
		AppendPlaceholder("I am thinking ...")
}

func TestNewStoredConversation_DropsPlaceholder(t *testing.T) {
	conv := NewStoredConversation("abc", time.Now(), sampleTranscript(), false, nil)

	if len(conv.Turns) != 4 {
		t.Fatalf("len(Turns) = %d, want 4", len(conv.Turns))
	}
	for _, turn := range conv.Turns {
		if turn.IsPlaceholder() {
			t.Error("placeholder stored")
		}
	}
	if got := conv.Preview(); got != "I want to study machine learning" {
		t.Errorf("Preview() = %q", got)
	}
}

func TestConversationStore_SaveAndLoad(t *testing.T) {
	store, err := NewConversationStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	recs := []model.RecommendationItem{{CourseCode: "CSC311H1", Name: "Introduction to Machine Learning"}}
	conv := NewStoredConversation("sess-1", time.Now(), sampleTranscript(), true, recs)
	if err := store.Save(conv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Ended {
		t.Error("Ended not persisted")
	}
	if loaded.Summary != "1 recommendation" {
		t.Errorf("Summary = %q", loaded.Summary)
	}
	if loaded.Turns[1].Origin != model.OriginUser {
		t.Errorf("Turns[1].Origin = %v", loaded.Turns[1].Origin)
	}
	if len(loaded.Recommendations) != 1 || loaded.Recommendations[0].CourseCode != "CSC311H1" {
		t.Errorf("Recommendations = %+v", loaded.Recommendations)
	}

	data, _ := os.ReadFile(filepath.Join(store.BaseDir, "sess-1.json"))
	if !strings.Contains(string(data), `"origin": "user"`) {
		t.Errorf("origin not stored by name: %s", data)
	}
}

func TestConversationStore_LoadNotFound(t *testing.T) {
	store, _ := NewConversationStore(t.TempDir())
	if _, err := store.Load("missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if err := store.Delete("missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestConversationStore_ListAndLimit(t *testing.T) {
	store, _ := NewConversationStore(t.TempDir())
	store.MaxConversations = 2

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(NewStoredConversation(id, time.Now(), sampleTranscript(), false, nil)); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(metas))
	}
	if metas[0].ID != "c" || metas[1].ID != "b" {
		t.Errorf("order = %s, %s", metas[0].ID, metas[1].ID)
	}
	if metas[0].TurnCount != 4 {
		t.Errorf("TurnCount = %d", metas[0].TurnCount)
	}
}

func TestConversationStore_Search(t *testing.T) {
	store, _ := NewConversationStore(t.TempDir())
	_ = store.Save(NewStoredConversation("ml", time.Now(), sampleTranscript(), true,
		[]model.RecommendationItem{{CourseCode: "STA237H1", Name: "Probability"}}))
	_ = store.Save(NewStoredConversation("art", time.Now(), model.Seed("Hi").AppendUser("I like painting"), false, nil))

	tests := []struct {
		query string
		want  int
	}{
		{"MACHINE", 1},
		{"sta237", 1},
		{"painting", 1},
		{"hello", 1},
		{"", 2},
		{"chemistry", 0},
	}
	for _, tt := range tests {
		got, err := store.Search(tt.query)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestFormatSessionList(t *testing.T) {
	if got := FormatSessionList(nil); got != "No saved conversations." {
		t.Errorf("empty list = %q", got)
	}

	out := FormatSessionList([]ConversationMeta{{
		ID:        "0123456789abcdef",
		UpdatedAt: time.Date(2024, 9, 3, 10, 30, 0, 0, time.UTC),
		TurnCount: 6,
		Preview:   "I want to study machine learning",
	}})
	if !strings.Contains(out, "01234567 ") || !strings.Contains(out, "2024-09-03 10:30") {
		t.Errorf("unexpected table:\n%s", out)
	}
}
