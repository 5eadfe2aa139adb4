// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *storage.StoredConversation) ([]byte, error) {
	if err := validate(conv, e.options); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("session: %s\n", escapeYAML(conv.ID)))
		if !conv.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("turns: %d\n", len(conv.Turns)))
		sb.WriteString(fmt.Sprintf("recommendations: %d\n", len(conv.Recommendations)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: coursecraft\n")
		sb.WriteString("---\n\n")
	}

	if !e.options.RecommendationsOnly {
		sb.WriteString("# Course Advising Session\n\n")
		for _, turn := range conv.Turns {
			sb.WriteString(fmt.Sprintf("**%s:** ", turn.Origin.DisplayName()))
			sb.WriteString(strings.TrimSpace(turn.Text))
			sb.WriteString("\n\n")
		}
	}

	if len(conv.Recommendations) > 0 {
		sb.WriteString(fmt.Sprintf("## Recommended Courses (%d)\n\n", len(conv.Recommendations)))
		for _, rec := range conv.Recommendations {
			sb.WriteString(FormatCourseMarkdown(rec))
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// FormatCourseMarkdown renders one course as a Markdown section. Empty
// fields are left out.
func FormatCourseMarkdown(rec model.RecommendationItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdown(rec.Title())))

	field := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", label, value))
		}
	}
	field("Department", rec.Department)
	field("Division", rec.Division)
	field("Campus", rec.Campus)
	field("Session", rec.Sessions)
	field("Prerequisites", rec.Prerequisites)
	field("Exclusions", rec.Exclusions)
	if len(rec.MeetingSections) > 0 {
		field("Meeting sections", strings.Join(rec.MeetingSections, ", "))
	}

	if desc := strings.TrimSpace(rec.Description); desc != "" {
		sb.WriteString("\n")
		sb.WriteString(desc)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatCourseList renders courses as a numbered plain-text list.
func FormatCourseList(recs []model.RecommendationItem) string {
	if len(recs) == 0 {
		return "No recommendations."
	}
	var sb strings.Builder
	sb.WriteString(util.Plural(len(recs), "recommended course") + ":\n")
	for i, rec := range recs {
		sb.WriteString(fmt.Sprintf("%2d. %s\n", i+1, rec.Title()))
	}
	return sb.String()
}

// =============================================================================
// ESCAPING
// =============================================================================

// escapeMarkdown escapes characters that would break headings.
func escapeMarkdown(s string) string {
	return strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	).Replace(s)
}

// escapeYAML quotes a frontmatter value when it holds YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}
