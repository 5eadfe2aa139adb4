// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine runs one advisor conversation.
//
// The Engine owns the transcript, the request state and the input buffer.
// Hosts (the terminal UI, the line REPL, the ask command) only call its
// methods and render the snapshots it publishes.
//
// # Conversation Flow
//
//  1. Submit appends the user turn and a "thinking" placeholder, moves to
//     AwaitingResponse and sends one /query request.
//  2. The reply (or the fallback text on any failure) replaces the
//     placeholder and the engine returns to Idle.
//  3. When the service reports conversationEnded, the recommendation
//     payload is decoded and OnTerminated fires once for the conversation.
//
// Submissions while a request is outstanding are dropped, not queued.
// Reset discards the transcript, cancels the outstanding request and tells
// the service to forget the conversation. Results that arrive for a
// conversation that has since been reset are ignored.
//
// # Usage
//
//	eng := engine.New(engine.Options{
//	    Session:      session.New(),
//	    Service:      advisor.NewClient(url),
//	    OnTerminated: func(items []model.RecommendationItem) { ... },
//	})
//	unsubscribe := eng.Subscribe(func(s engine.Snapshot) { render(s) })
//	defer unsubscribe()
//
//	if task := eng.Submit(ctx, "I like math"); task != nil {
//	    task.Wait(ctx)
//	}
package engine
