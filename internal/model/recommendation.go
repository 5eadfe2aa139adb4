// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTerminationDecode is returned when a terminal payload is not a JSON
// array of course objects.
var ErrTerminationDecode = errors.New("termination payload is not a recommendation list")

// =============================================================================
// RECOMMENDATION ITEM
// =============================================================================

// RecommendationItem is one recommended course as produced by the advisor
// service. Known fields are decoded for display; the complete object is kept
// in Raw so that hosts can read fields this package does not know about.
type RecommendationItem struct {
	CourseCode      string   `json:"course_code" yaml:"course_code"`
	Name            string   `json:"name" yaml:"name"`
	Department      string   `json:"department,omitempty" yaml:"department,omitempty"`
	Division        string   `json:"division,omitempty" yaml:"division,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Prerequisites   string   `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	Exclusions      string   `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	Campus          string   `json:"campus,omitempty" yaml:"campus,omitempty"`
	SectionCode     string   `json:"section_code,omitempty" yaml:"section_code,omitempty"`
	Sessions        string   `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	MeetingSections []string `json:"meeting_sections,omitempty" yaml:"meeting_sections,omitempty"`

	Raw json.RawMessage `json:"-" yaml:"-"`
}

// Title returns "CODE: Name", or whichever half is present.
func (r RecommendationItem) Title() string {
	switch {
	case r.CourseCode != "" && r.Name != "":
		return r.CourseCode + ": " + r.Name
	case r.CourseCode != "":
		return r.CourseCode
	default:
		return r.Name
	}
}

// Field returns an arbitrary top-level field from the raw object.
func (r RecommendationItem) Field(name string) (json.RawMessage, bool) {
	if len(r.Raw) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r.Raw, &obj); err != nil {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// MarshalJSON emits the original object when one is available so that
// unknown fields survive a round trip.
func (r RecommendationItem) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain RecommendationItem
	return json.Marshal(plain(r))
}

// UnmarshalJSON decodes a course object. Scalar fields tolerate numbers and
// null, and meeting_sections tolerates a single string, since the service
// output comes from a language model. Values of any other shape are kept as
// compact JSON text; only a non-object element is an error.
func (r *RecommendationItem) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("%w: element is null", ErrTerminationDecode)
	}

	item := RecommendationItem{Raw: append(json.RawMessage(nil), data...)}
	fields := []struct {
		key string
		dst *string
	}{
		{"course_code", &item.CourseCode},
		{"name", &item.Name},
		{"department", &item.Department},
		{"division", &item.Division},
		{"description", &item.Description},
		{"prerequisites", &item.Prerequisites},
		{"exclusions", &item.Exclusions},
		{"campus", &item.Campus},
		{"section_code", &item.SectionCode},
		{"sessions", &item.Sessions},
	}
	for _, f := range fields {
		if raw, ok := obj[f.key]; ok {
			*f.dst = looseString(raw)
		}
	}
	if raw, ok := obj["meeting_sections"]; ok {
		item.MeetingSections = looseStrings(raw)
	}

	*r = item
	return nil
}

// looseString renders a JSON value as display text. Strings, numbers and
// booleans come out as themselves, arrays are joined with ", ", and objects
// fall back to compact JSON.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		return strings.Join(looseStrings(raw), ", ")
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return strconv.FormatBool(b)
		}
	case '{':
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return compactJSON(raw)
}

func looseStrings(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '[' {
		if s := looseString(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []string{compactJSON(raw)}
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s := looseString(e); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// =============================================================================
// DECODING
// =============================================================================

// DecodeRecommendations parses a terminal payload into recommendation items.
// The payload must be a JSON array of objects; a surrounding markdown code
// fence is tolerated. Empty objects are skipped. The returned slice is never
// nil on success.
func DecodeRecommendations(blob string) ([]RecommendationItem, error) {
	body := StripCodeFence(blob)
	if body == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrTerminationDecode)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminationDecode, err)
	}
	if elems == nil {
		// literal null
		return nil, fmt.Errorf("%w: payload is null", ErrTerminationDecode)
	}

	items := make([]RecommendationItem, 0, len(elems))
	for i, e := range elems {
		if isEmptyObject(e) {
			continue
		}
		var item RecommendationItem
		if err := json.Unmarshal(e, &item); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrTerminationDecode, i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// StripCodeFence removes a ```lang ... ``` wrapper around s, if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isEmptyObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	return obj != nil && len(obj) == 0
}
