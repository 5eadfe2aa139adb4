// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders advisor turns with glamour. Renderers are built lazily and
// cached per wrap width, since a resize changes the width on every frame.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	failed    bool
}

// NewMarkdown creates a renderer. style is a glamour style name ("dark",
// "light", "notty", ...) or "auto" to follow the terminal.
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "auto"
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

func (m *Markdown) renderer(width int) *glamour.TermRenderer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failed {
		return nil
	}
	if r, ok := m.renderers[width]; ok {
		return r
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width), glamour.WithEmoji()}
	if m.style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(m.style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		// Plain text from here on.
		m.failed = true
		return nil
	}
	m.renderers[width] = r
	return r
}

// Render renders content wrapped at width. It returns the content wrapped
// as plain text if glamour cannot render it.
func (m *Markdown) Render(content string, width int) string {
	if width <= 0 {
		width = 80
	}
	if r := m.renderer(width); r != nil {
		if out, err := r.Render(content); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
