// json_output.go - JSON output for scripting.
//
// Every command that accepts --json writes one JSONResponse to stdout.
// Human-readable progress goes to stderr in that mode.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/model"
)

// JSONResponse is the response envelope for all commands.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	Timestamp string `json:"timestamp"`
	Command   string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData is the result of the ask command.
type AskData struct {
	SessionID       string                     `json:"session_id"`
	Reply           string                     `json:"reply"`
	Terminated      bool                       `json:"terminated"`
	Recommendations []model.RecommendationItem `json:"recommendations,omitempty"`
}

// FavoriteData is one saved course.
type FavoriteData struct {
	CourseCode string    `json:"course_code"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// ConversationSummaryData is one entry of history list/search.
type ConversationSummaryData struct {
	ID              string    `json:"id"`
	Summary         string    `json:"summary"`
	Preview         string    `json:"preview"`
	Turns           int       `json:"turns"`
	Recommendations int       `json:"recommendations"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ConfigValueData is the result of config get/set.
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}
