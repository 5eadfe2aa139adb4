// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCourse = `{
	"course_code": "CSC108",
	"name": "Introduction to Computer Programming",
	"department": "Computer Science",
	"division": "Faculty of Arts & Science",
	"description": "Programming in a language such as Python.",
	"prerequisites": "None",
	"exclusions": "CSC148, CSC150",
	"campus": "St. George",
	"section_code": "F",
	"sessions": "20249",
	"meeting_sections": ["Lecture: Mon/Wed/Fri 10-11 AM", "Tutorial: Thu 2-3 PM"],
	"rating": 4.5
}`

func TestDecodeRecommendations(t *testing.T) {
	items, err := DecodeRecommendations("[" + sampleCourse + "]")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "CSC108", item.CourseCode)
	assert.Equal(t, "Introduction to Computer Programming", item.Name)
	assert.Equal(t, "CSC148, CSC150", item.Exclusions)
	assert.Equal(t, "20249", item.Sessions)
	assert.Equal(t, []string{"Lecture: Mon/Wed/Fri 10-11 AM", "Tutorial: Thu 2-3 PM"}, item.MeetingSections)
	assert.Equal(t, "CSC108: Introduction to Computer Programming", item.Title())

	rating, ok := item.Field("rating")
	require.True(t, ok, "unknown fields must pass through")
	assert.JSONEq(t, "4.5", string(rating))
}

func TestDecodeRecommendations_Variants(t *testing.T) {
	tests := []struct {
		name      string
		blob      string
		wantCount int
		wantErr   bool
	}{
		{"empty array", "[]", 0, false},
		{"code fence", "```json\n[{\"course_code\":\"MAT137\"}]\n```", 1, false},
		{"inline fence", "```[{\"course_code\":\"MAT137\"}]```", 1, false},
		{"placeholder object skipped", `[{"course_code":"STA130"},{}]`, 1, false},
		{"numeric sessions", `[{"course_code":"STA130","sessions":20249}]`, 1, false},
		{"single meeting section string", `[{"course_code":"STA130","meeting_sections":"LEC0101"}]`, 1, false},
		{"not json", "I could not find any courses.", 0, true},
		{"object not array", `{"course_code":"CSC108"}`, 0, true},
		{"array of numbers", "[1,2,3]", 0, true},
		{"null", "null", 0, true},
		{"blank", "   ", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, err := DecodeRecommendations(tc.blob)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrTerminationDecode), "error should wrap ErrTerminationDecode: %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Len(t, items, tc.wantCount)
		})
	}
}

func TestRecommendationItem_MarshalKeepsRaw(t *testing.T) {
	var item RecommendationItem
	require.NoError(t, json.Unmarshal([]byte(sampleCourse), &item))

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, sampleCourse, string(out))

	built := RecommendationItem{CourseCode: "MAT135", Name: "Calculus I"}
	out, err = json.Marshal(built)
	require.NoError(t, err)
	assert.JSONEq(t, `{"course_code":"MAT135","name":"Calculus I"}`, string(out))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "[]", StripCodeFence("[]"))
	assert.Equal(t, "[1]", StripCodeFence("```json\n[1]\n```"))
	assert.Equal(t, "[1]", StripCodeFence("  ```\n[1]\n```  "))
}

func TestDecodeRecommendations_StructuredFields(t *testing.T) {
	blob := `[
		{"course_code":"CSC108","meeting_sections":[{"type":"LEC","code":"0101"},"TUT0201"]},
		{"course_code":"MAT137","prerequisites":{"all":["MCV4U"]},"sessions":[20249,20251]}
	]`

	items, err := DecodeRecommendations(blob)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, []string{`{"type":"LEC","code":"0101"}`, "TUT0201"}, items[0].MeetingSections)
	assert.Equal(t, `{"all":["MCV4U"]}`, items[1].Prerequisites)
	assert.Equal(t, "20249, 20251", items[1].Sessions)

	prereq, ok := items[1].Field("prerequisites")
	require.True(t, ok)
	assert.JSONEq(t, `{"all":["MCV4U"]}`, string(prereq))
}
