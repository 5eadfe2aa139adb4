// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/storage"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports conversations to YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

type yamlTurn struct {
	From string `yaml:"from"`
	Text string `yaml:"text"`
}

type yamlDocument struct {
	Session         string                     `yaml:"session,omitempty"`
	Created         *time.Time                 `yaml:"created,omitempty"`
	Ended           bool                       `yaml:"ended,omitempty"`
	Turns           []yamlTurn                 `yaml:"turns,omitempty"`
	Recommendations []model.RecommendationItem `yaml:"recommendations"`
}

// Export converts a conversation to YAML format.
func (e *YAMLExporter) Export(conv *storage.StoredConversation) ([]byte, error) {
	if err := validate(conv, e.options); err != nil {
		return nil, err
	}

	var doc any
	if e.options.RecommendationsOnly {
		doc = conv.Recommendations
	} else {
		d := yamlDocument{
			Session:         conv.ID,
			Ended:           conv.Ended,
			Recommendations: conv.Recommendations,
		}
		if e.options.IncludeMetadata && !conv.CreatedAt.IsZero() {
			created := conv.CreatedAt
			d.Created = &created
		}
		for _, turn := range conv.Turns {
			d.Turns = append(d.Turns, yamlTurn{From: turn.Origin.String(), Text: turn.Text})
		}
		doc = d
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
