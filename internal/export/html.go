// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *storage.StoredConversation) ([]byte, error) {
	if err := validate(conv, e.options); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("    <title>Course Recommendations</title>\n")
	sb.WriteString("    <meta name=\"generator\" content=\"coursecraft\">\n")
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n<body>\n    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header>\n            <h1>Course Advising Session</h1>\n")
		if !conv.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("            <p class=\"meta\">Started %s</p>\n", formatTimestamp(conv.CreatedAt)))
		}
		sb.WriteString("        </header>\n")
	}

	if !e.options.RecommendationsOnly {
		sb.WriteString("        <main class=\"conversation\">\n")
		for _, turn := range conv.Turns {
			sb.WriteString(fmt.Sprintf("            <div class=\"turn %s\"><span class=\"who\">%s</span>%s</div>\n",
				turn.Origin.String(), turn.Origin.DisplayName(), formatHTMLText(turn.Text)))
		}
		sb.WriteString("        </main>\n")
	}

	if len(conv.Recommendations) > 0 {
		sb.WriteString("        <section class=\"courses\">\n")
		for _, rec := range conv.Recommendations {
			sb.WriteString(renderCourseCard(rec))
		}
		sb.WriteString("        </section>\n")
	}

	sb.WriteString(fmt.Sprintf("        <footer>Exported from CourseCraft on %s</footer>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("    </div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func renderCourseCard(rec model.RecommendationItem) string {
	var sb strings.Builder
	sb.WriteString("            <article class=\"card\">\n")
	sb.WriteString(fmt.Sprintf("                <h2>%s</h2>\n", html.EscapeString(rec.Title())))

	row := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			sb.WriteString(fmt.Sprintf("                <p><strong>%s:</strong> %s</p>\n", label, html.EscapeString(value)))
		}
	}
	row("Department", rec.Department)
	row("Division", rec.Division)
	row("Prerequisites", rec.Prerequisites)
	row("Exclusions", rec.Exclusions)
	if len(rec.MeetingSections) > 0 {
		row("Meeting sections", strings.Join(rec.MeetingSections, ", "))
	}
	if rec.Description != "" {
		sb.WriteString(fmt.Sprintf("                <p class=\"desc\">%s</p>\n", html.EscapeString(rec.Description)))
	}
	sb.WriteString("            </article>\n")
	return sb.String()
}

// formatHTMLText escapes text and keeps its paragraph breaks.
func formatHTMLText(s string) string {
	s = html.EscapeString(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "\n", "<br>")
}

const htmlCSS = `    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f5f6fa; color: #1f2330; margin: 0; }
        .container { max-width: 860px; margin: 0 auto; padding: 24px; }
        header h1 { color: #002a5c; margin-bottom: 4px; }
        .meta { color: #6b7280; margin-top: 0; }
        .turn { padding: 10px 14px; border-radius: 10px; margin: 8px 0; line-height: 1.5; }
        .turn.bot { background: #ffffff; border: 1px solid #e5e7eb; }
        .turn.user { background: #dbeafe; margin-left: 15%; }
        .who { display: block; font-size: 0.8em; font-weight: 600; color: #4b5563; margin-bottom: 2px; }
        .courses { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; margin-top: 24px; }
        .card { background: #fff; border-radius: 10px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,0.12); }
        .card h2 { font-size: 1.05em; color: #002a5c; margin-top: 0; }
        .card p { margin: 4px 0; font-size: 0.92em; }
        .desc { color: #374151; margin-top: 8px; }
        footer { margin-top: 32px; color: #9ca3af; font-size: 0.85em; text-align: center; }
    </style>
`

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}
