// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// STORED CONVERSATION TYPE
// =============================================================================

// StoredConversation is a finished (or abandoned) advising conversation.
type StoredConversation struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Turns           []model.Turn               `json:"turns"`
	Ended           bool                       `json:"ended"`
	Recommendations []model.RecommendationItem `json:"recommendations,omitempty"`
}

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID                  string    `json:"id"`
	Summary             string    `json:"summary"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	TurnCount           int       `json:"turn_count"`
	RecommendationCount int       `json:"recommendation_count"`
	Preview             string    `json:"preview"`
}

// NewStoredConversation captures a transcript. A pending placeholder is not
// stored.
func NewStoredConversation(id string, startedAt time.Time, t model.Transcript, ended bool, recs []model.RecommendationItem) *StoredConversation {
	turns := make([]model.Turn, 0, t.Len())
	for _, turn := range t.Turns() {
		if turn.IsPlaceholder() {
			continue
		}
		turns = append(turns, turn)
	}
	return &StoredConversation{
		ID:              id,
		CreatedAt:       startedAt,
		Turns:           turns,
		Ended:           ended,
		Recommendations: recs,
	}
}

// Preview returns the first thing the student said.
func (c *StoredConversation) Preview() string {
	for _, turn := range c.Turns {
		if turn.IsUser() && turn.Text != "" {
			return util.TruncateRunes(strings.Join(strings.Fields(turn.Text), " "), 80)
		}
	}
	return ""
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore keeps conversations as JSON files, one per session.
type ConversationStore struct {
	// BaseDir is the directory for storing conversations.
	BaseDir string

	// MaxConversations limits stored conversations (0 = unlimited).
	MaxConversations int
}

// NewConversationStore creates a store rooted at baseDir.
func NewConversationStore(baseDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, err
	}
	return &ConversationStore{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// Save persists a conversation. Saving the same ID again overwrites it.
func (s *ConversationStore) Save(conv *StoredConversation) error {
	if conv.ID == "" {
		return errors.New("conversation has no id")
	}
	if conv.Summary == "" {
		conv.Summary = summarize(conv)
	}
	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0o600); err != nil {
		return err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}
	return nil
}

func summarize(conv *StoredConversation) string {
	if n := len(conv.Recommendations); n > 0 {
		return util.Plural(n, "recommendation")
	}
	if p := conv.Preview(); p != "" {
		return util.TruncateRunes(p, 50)
	}
	return "New conversation"
}

// enforceLimit removes the oldest conversations beyond MaxConversations.
func (s *ConversationStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}
	// List is newest first.
	for _, m := range metas[s.MaxConversations:] {
		_ = s.Delete(m.ID)
	}
}

// Load retrieves a conversation by ID.
func (s *ConversationStore) Load(id string) (*StoredConversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv StoredConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// List returns all saved conversations, most recent first.
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ConversationMeta{}, nil
		}
		return nil, err
	}

	metas := []ConversationMeta{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip corrupted files
		}
		metas = append(metas, ConversationMeta{
			ID:                  conv.ID,
			Summary:             conv.Summary,
			CreatedAt:           conv.CreatedAt,
			UpdatedAt:           conv.UpdatedAt,
			TurnCount:           len(conv.Turns),
			RecommendationCount: len(conv.Recommendations),
			Preview:             conv.Preview(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search finds conversations with a turn or a recommended course matching
// query, case-insensitively.
func (s *ConversationStore) Search(query string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil || query == "" {
		return all, err
	}

	query = strings.ToLower(query)
	results := []ConversationMeta{}
	for _, meta := range all {
		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		if conversationMatches(conv, query) {
			results = append(results, meta)
		}
	}
	return results, nil
}

func conversationMatches(conv *StoredConversation, query string) bool {
	for _, turn := range conv.Turns {
		if strings.Contains(strings.ToLower(turn.Text), query) {
			return true
		}
	}
	for _, rec := range conv.Recommendations {
		if strings.Contains(strings.ToLower(rec.Title()), query) {
			return true
		}
	}
	return false
}

// Delete removes a conversation by ID.
func (s *ConversationStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, filepath.Base(id)+".json")
}

// =============================================================================
// SESSION LIST FORMATTING
// =============================================================================

// FormatSessionList renders conversations as a table.
func FormatSessionList(sessions []ConversationMeta) string {
	if len(sessions) == 0 {
		return "No saved conversations."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("ID", 10) + " " + util.PadRight("Saved", 17) + " " + util.PadRight("Turns", 6) + " " + util.PadRight("Courses", 8) + " Preview\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, m := range sessions {
		id := m.ID
		if len(id) > 8 {
			id = id[:8]
		}
		sb.WriteString(util.PadRight(id, 10) + " " +
			util.PadRight(m.UpdatedAt.Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(strconv.Itoa(m.TurnCount), 6) + " " +
			util.PadRight(strconv.Itoa(m.RecommendationCount), 8) + " " +
			util.TruncateWidth(m.Preview, 30) + "\n")
	}
	return sb.String()
}
