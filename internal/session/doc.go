// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the identity that ties a user's requests together.
//
// A Session is created once by the host and handed to the engine. Every
// request to the advisor service carries its ID, so the service can keep a
// per-user conversation. Sessions are immutable and never rotate; resetting a
// conversation keeps the same session.
//
// # Usage
//
//	sess := session.New()
//	eng := engine.New(engine.Options{Session: sess, Service: client})
//
// Resume a known session (for example from a command-line flag):
//
//	sess, err := session.Parse("0b3c4a1e-...")
package session
