// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"errors"
	"fmt"
	"net/http"
)

// Error variables for advisor service failures.
var (
	// ErrTransport indicates the request did not produce a usable 2xx
	// response: the connection failed or the service returned an error status.
	ErrTransport = errors.New("advisor service unavailable")

	// ErrMalformedResponse indicates a 2xx response whose body could not be
	// decoded or lacked the reply text.
	ErrMalformedResponse = errors.New("malformed advisor response")

	// ErrRateLimited indicates the service (or the local limiter) refused
	// the request because too many were sent.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotConfigured indicates the client has no base URL.
	ErrNotConfigured = errors.New("advisor service URL not configured")
)

// ServiceError is a non-2xx response from the advisor service.
type ServiceError struct {
	Endpoint string
	Status   int
	Message  string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("advisor %s (HTTP %d): %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("advisor %s (HTTP %d)", e.Endpoint, e.Status)
}

// Unwrap lets errors.Is match ErrTransport for every service error, and
// ErrRateLimited for HTTP 429.
func (e *ServiceError) Unwrap() []error {
	if e.Status == http.StatusTooManyRequests {
		return []error{ErrTransport, ErrRateLimited}
	}
	return []error{ErrTransport}
}

// IsTransport reports whether err came from a failed exchange with the
// service, as opposed to a malformed successful response.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
