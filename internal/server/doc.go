// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a scripted stand-in for the advisor service.
//
// It speaks the same wire protocol as the real service so the chat clients
// can be developed and demonstrated without a language model behind them.
//
// # Endpoints
//
//   - POST /query         - One student turn; ends on a trigger word
//   - POST /reset         - Forget a user's conversation
//   - POST /upload_resume - Multipart resume upload
//   - GET  /health        - Health check
//   - GET  /metrics       - Prometheus metrics
//
// # Usage
//
//	srv := server.New(server.Options{Addr: ":5000", MinTurns: 3}, nil)
//	if err := srv.ListenAndServe(ctx, nil); err != nil {
//		log.Fatal(err)
//	}
package server
