// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/model"
)

// =============================================================================
// FAVORITES
// =============================================================================

var (
	// ErrFavoriteNotFound is returned when removing a course that is not saved.
	ErrFavoriteNotFound = errors.New("favorite not found")

	// ErrMissingCourseCode is returned for items without a course code.
	ErrMissingCourseCode = errors.New("recommendation has no course code")
)

// Favorite is a recommendation the student chose to keep.
type Favorite struct {
	Item      model.RecommendationItem `json:"item"`
	SessionID string                   `json:"session_id,omitempty"`
	AddedAt   time.Time                `json:"added_at"`
}

// FavoritesStore persists favorite courses in SQLite, keyed by course code.
type FavoritesStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenFavorites opens the favorites database at path.
func OpenFavorites(path string) (*FavoritesStore, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &FavoritesStore{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *FavoritesStore) Close() error {
	return s.db.Close()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Add saves item. Saving a course that is already a favorite replaces the
// stored details and keeps the original AddedAt.
func (s *FavoritesStore) Add(ctx context.Context, item model.RecommendationItem, sessionID string) error {
	code := normalizeCode(item.CourseCode)
	if code == "" {
		return ErrMissingCourseCode
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", code, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO favorites (course_code, name, department, payload, session_id, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_code) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			payload = excluded.payload,
			session_id = excluded.session_id`,
		code, item.Name, item.Department, string(payload), sessionID, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save favorite %s: %w", code, err)
	}
	return nil
}

// Remove deletes the favorite with the given course code.
func (s *FavoritesStore) Remove(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE course_code = ?`, normalizeCode(code))
	if err != nil {
		return fmt.Errorf("failed to remove favorite %s: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrFavoriteNotFound, code)
	}
	return nil
}

// Has reports whether code is a favorite.
func (s *FavoritesStore) Has(ctx context.Context, code string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM favorites WHERE course_code = ?`, normalizeCode(code)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up favorite %s: %w", code, err)
	}
	return true, nil
}

// Toggle adds item if it is not a favorite and removes it otherwise.
// It reports whether the course is a favorite afterwards.
func (s *FavoritesStore) Toggle(ctx context.Context, item model.RecommendationItem, sessionID string) (bool, error) {
	has, err := s.Has(ctx, item.CourseCode)
	if err != nil {
		return false, err
	}
	if has {
		return false, s.Remove(ctx, item.CourseCode)
	}
	return true, s.Add(ctx, item, sessionID)
}

// List returns every favorite, most recently added first.
func (s *FavoritesStore) List(ctx context.Context) ([]Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload, session_id, added_at FROM favorites
		ORDER BY added_at DESC, course_code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favs := []Favorite{}
	for rows.Next() {
		var (
			payload string
			fav     Favorite
			added   int64
		)
		if err := rows.Scan(&payload, &fav.SessionID, &added); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &fav.Item); err != nil {
			return nil, fmt.Errorf("corrupt favorite payload: %w", err)
		}
		fav.AddedAt = time.Unix(0, added)
		favs = append(favs, fav)
	}
	return favs, rows.Err()
}
