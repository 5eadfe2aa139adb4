// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"fmt"
	"strings"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/util"
)

type terminationResult struct {
	items   []model.RecommendationItem
	decoded bool
	fire    bool
}

// parseTermination decodes the recommendation payload of a finished
// conversation. A payload that does not decode yields an empty, non-nil
// list together with the error.
func parseTermination(blob string) ([]model.RecommendationItem, error) {
	items, err := model.DecodeRecommendations(blob)
	if err != nil {
		return []model.RecommendationItem{}, err
	}
	return items, nil
}

// terminateLocked handles conversationEnded. The callback is delivered at
// most once per conversation; a later end signal before Reset is logged and
// ignored. Must be called with e.mu held.
func (e *Engine) terminateLocked(resp *advisor.QueryResponse) terminationResult {
	if e.terminated {
		e.logger.Warn("conversation already ended, ignoring repeated end signal")
		return terminationResult{}
	}

	items, err := parseTermination(resp.FinalOutput)
	if err != nil {
		e.logger.Error("failed to decode recommendations", "error", err, "payload_bytes", len(resp.FinalOutput))
	}
	if resp.RefinedQuery != "" {
		e.logger.Debug("conversation ended", "refined_query", resp.RefinedQuery)
	}

	e.terminated = true
	e.recommendations = items

	if err == nil {
		if closing := e.closingText(resp, len(items)); closing != "" {
			e.transcript = e.transcript.AppendBot(closing)
		}
	}

	return terminationResult{items: items, decoded: err == nil, fire: true}
}

func (e *Engine) closingText(resp *advisor.QueryResponse, count int) string {
	if msg := strings.TrimSpace(resp.ClosingMessage); msg != "" {
		return msg
	}
	if count == 0 {
		return ""
	}
	return fmt.Sprintf(e.texts.Summary, util.Plural(count, "course recommendation"))
}
