// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ece1786-2024/CourseCraft/internal/model"
)

// =============================================================================
// SCRIPT
// =============================================================================

// DefaultTriggers are the words that end a conversation when the student
// says them.
var DefaultTriggers = []string{"done", "that's all", "thank you", "thanks", "generate"}

// Script drives the stub advisor: what it says each turn and what it
// recommends at the end.
type Script struct {
	// Replies are used in order, one per student turn, cycling at the end.
	Replies []string `yaml:"replies" json:"replies"`

	// NotYet answers a trigger word that arrives before MinTurns.
	NotYet string `yaml:"not_yet" json:"not_yet"`

	// Final is the reply that accompanies the recommendations.
	Final string `yaml:"final" json:"final"`

	// Closing, when set, is sent as closingMessage.
	Closing string `yaml:"closing" json:"closing"`

	// Triggers end the conversation. Matching is a case-insensitive
	// substring test.
	Triggers []string `yaml:"triggers" json:"triggers"`

	// Recommendations are returned as finalOutput.
	Recommendations []model.RecommendationItem `yaml:"recommendations" json:"recommendations"`
}

// DefaultScript returns the built-in script.
func DefaultScript() *Script {
	return &Script{
		Replies: []string{
			"Thanks for sharing! What subjects did you enjoy most in high school, and is there a career you're curious about?",
			"That's helpful. Do you prefer courses with lots of problem solving, or ones with more reading and discussion?",
			"Got it. Are you planning to stay on the St. George campus, and do you have any programs in mind yet?",
			"I think I have a good picture of your interests. I'm ready to give you some course suggestions, just say 'generate' when you are ready!",
		},
		NotYet:   "I'd love to learn a bit more about you before I suggest anything. What are you hoping to get out of your first year?",
		Final:    "Here are some first-year courses that match what you told me.",
		Triggers: append([]string(nil), DefaultTriggers...),
		Recommendations: []model.RecommendationItem{
			{
				CourseCode:      "CSC108H1",
				Name:            "Introduction to Computer Programming",
				Department:      "Computer Science",
				Division:        "Faculty of Arts and Science",
				Campus:          "St. George",
				Description:     "Programming in a language such as Python. Elementary data types, lists, maps. Program structure: control flow, functions, classes, objects, methods. Algorithms and problem solving.",
				Prerequisites:   "",
				Exclusions:      "CSC110Y1, CSC148H1",
				MeetingSections: []string{"LEC0101", "LEC0201"},
			},
			{
				CourseCode:      "MAT135H1",
				Name:            "Calculus I",
				Department:      "Mathematics",
				Division:        "Faculty of Arts and Science",
				Campus:          "St. George",
				Description:     "Review of trigonometric functions, limits, continuity, differentiation and its applications.",
				Prerequisites:   "High school level calculus",
				MeetingSections: []string{"LEC0101"},
			},
			{
				CourseCode:      "PSY100H1",
				Name:            "Introductory Psychology",
				Department:      "Psychology",
				Division:        "Faculty of Arts and Science",
				Campus:          "St. George",
				Description:     "A brief introductory survey of psychology as both a biological and social science.",
				MeetingSections: []string{"LEC0101", "LEC5101"},
			},
		},
	}
}

// LoadScript reads a script from a YAML or JSON file. Fields the file leaves
// out keep their built-in values.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	s := DefaultScript()
	// JSON is valid YAML, so one decoder serves both.
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

// Validate checks that the script can hold a conversation.
func (s *Script) Validate() error {
	if len(s.Replies) == 0 {
		return errors.New("at least one reply is required")
	}
	if len(s.Triggers) == 0 {
		return errors.New("at least one trigger word is required")
	}
	for i, rec := range s.Recommendations {
		if strings.TrimSpace(rec.CourseCode) == "" {
			return fmt.Errorf("recommendation %d has no course_code", i)
		}
	}
	return nil
}

// Reply returns the reply for the nth student turn, counting from 1.
func (s *Script) Reply(turn int) string {
	if turn < 1 {
		turn = 1
	}
	return s.Replies[(turn-1)%len(s.Replies)]
}

// IsTrigger reports whether message contains an end trigger.
func (s *Script) IsTrigger(message string) bool {
	lower := strings.ToLower(message)
	for _, t := range s.Triggers {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
