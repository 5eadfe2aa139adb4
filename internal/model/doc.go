// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for advisor conversations.
//
// This package defines the core domain types shared by the engine, the
// advisor client and the user interfaces.
//
// # Key Types
//
//   - Turn: one transcript entry with its text and origin (bot or user)
//   - Transcript: immutable ordered list of turns with a pending placeholder
//   - RecommendationItem: one recommended course from a finished conversation
//
// # Usage
//
// Build a transcript the way the engine does for a single exchange:
//
//	t := model.Seed("Hello!")
//	t = t.AppendUser("I like math")
//	t = t.AppendPlaceholder("I am thinking ...")
//	t = t.ResolvePlaceholder("Great, any interest in statistics?")
//
// Decode the payload that arrives when the advisor ends the conversation:
//
//	items, err := model.DecodeRecommendations(resp.FinalOutput)
package model
