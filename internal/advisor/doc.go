// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package advisor provides the HTTP client for the course advisor service.
//
// The advisor service runs the recommendation dialogue. This package speaks
// its three endpoints:
//
//   - POST /query          one user message, returns the assistant reply
//   - POST /reset          drops the server-side conversation for a user
//   - POST /upload_resume  multipart resume upload
//
// Query is never retried: a failed request is reported to the caller, which
// shows a fallback reply instead.
//
// # Usage
//
//	client := advisor.NewClient("http://127.0.0.1:5000").
//	    WithTimeout(30 * time.Second)
//	resp, err := client.Query(ctx, advisor.QueryRequest{UserID: id, Message: "I like math"})
package advisor
