// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
)

func sampleConversation(t *testing.T) *storage.StoredConversation {
	t.Helper()
	recs, err := model.DecodeRecommendations(`[
		{"course_code":"CSC108H1","name":"Introduction to Computer Programming","department":"Computer Science","prerequisites":"","meeting_sections":["LEC0101","LEC0201"],"description":"Programming in Python."},
		{"course_code":"MAT137Y1","name":"Calculus with Proofs","description":"<b>Limits</b> and continuity."}
	]`)
	require.NoError(t, err)

	tr := model.Seed("Hello! How can I help?").
		AppendUser("I like programming and math").
		AppendBot("Great, here is what I found.")
	return storage.NewStoredConversation("5f0c8a1e-aaaa-bbbb-cccc-000000000000",
		time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC), tr, true, recs)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON, "MD": FormatMarkdown, "markdown": FormatMarkdown,
		".yml": FormatYAML, "yaml": FormatYAML, "htm": FormatHTML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestJSONExporter_RecommendationsOnlyMatchesWireShape(t *testing.T) {
	conv := sampleConversation(t)
	out, err := NewJSONExporter(&Options{RecommendationsOnly: true}).Export(conv)
	require.NoError(t, err)

	back, err := model.DecodeRecommendations(string(out))
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "CSC108H1", back[0].CourseCode)
	assert.Equal(t, []string{"LEC0101", "LEC0201"}, back[0].MeetingSections)
}

func TestJSONExporter_FullConversation(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleConversation(t))
	require.NoError(t, err)

	var decoded storage.StoredConversation
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Len(t, decoded.Turns, 3)
	assert.True(t, decoded.Ended)
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation(t))
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "**You:** I like programming and math")
	assert.Contains(t, md, "## Recommended Courses (2)")
	assert.Contains(t, md, "### CSC108H1: Introduction to Computer Programming")
	assert.Contains(t, md, "- **Meeting sections**: LEC0101, LEC0201")
	// Empty prerequisites are omitted.
	assert.NotContains(t, md, "**Prerequisites**")
}

func TestMarkdownExporter_FrontmatterInjection(t *testing.T) {
	conv := sampleConversation(t)
	conv.ID = "x\ninjected: true"
	out, err := NewMarkdownExporter(nil).Export(conv)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "\ninjected: true\n")
}

func TestYAMLExporter(t *testing.T) {
	out, err := NewYAMLExporter(nil).Export(sampleConversation(t))
	require.NoError(t, err)

	var doc struct {
		Turns []struct {
			From string `yaml:"from"`
		} `yaml:"turns"`
		Recommendations []model.RecommendationItem `yaml:"recommendations"`
	}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	require.Len(t, doc.Turns, 3)
	assert.Equal(t, "user", doc.Turns[1].From)
	require.Len(t, doc.Recommendations, 2)
	assert.Equal(t, "MAT137Y1", doc.Recommendations[1].CourseCode)
}

func TestHTMLExporter_Escapes(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleConversation(t))
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "&lt;b&gt;Limits&lt;/b&gt;")
	assert.NotContains(t, page, "<b>Limits</b>")
	assert.Contains(t, page, `class="turn user"`)
}

func TestExport_Validation(t *testing.T) {
	conv := sampleConversation(t)
	conv.Recommendations = nil

	_, err := NewJSONExporter(&Options{RecommendationsOnly: true}).Export(conv)
	assert.Error(t, err)

	_, err = NewMarkdownExporter(nil).Export(nil)
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := &Options{OutputDir: dir, RecommendationsOnly: true}
	exporter, err := New(FormatYAML, opts)
	require.NoError(t, err)

	path, err := ExportToFile(sampleConversation(t), exporter, opts)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "courses_5f0c8a1e_"))
	assert.Equal(t, ".yaml", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "course_code: CSC108H1")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "session", sanitizeFilename(""))
}

func TestFormatCourseList(t *testing.T) {
	conv := sampleConversation(t)
	out := FormatCourseList(conv.Recommendations)
	assert.True(t, strings.HasPrefix(out, "2 recommended courses:\n"), out)
	assert.Contains(t, out, " 1. CSC108H1")
	assert.Contains(t, out, " 2. MAT137Y1")

	assert.Equal(t, "No recommendations.", FormatCourseList(nil))
}
