// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the advisor service.
const (
	// DefaultBaseURL is where the service listens in local development.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// DefaultTimeout bounds a single request. The service calls a language
	// model on every query, so replies can take a while.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 4 * 1024 * 1024

	// Endpoint paths.
	PathQuery  = "/query"
	PathReset  = "/reset"
	PathUpload = "/upload_resume"
)

// sharedTransport pools connections across clients.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	// Response is the assistant's reply text.
	Response string `json:"response"`

	// ConversationEnded is true when the service has finished gathering
	// preferences and FinalOutput carries the recommendations.
	ConversationEnded bool `json:"conversationEnded"`

	// FinalOutput is the serialized recommendation list. The service sends
	// it as a JSON string; a bare JSON array is accepted too.
	FinalOutput string `json:"-"`

	// ClosingMessage is an optional extra reply shown after Response when
	// the conversation ends.
	ClosingMessage string `json:"closingMessage,omitempty"`

	// RefinedQuery is the service's summary of what the user asked for.
	RefinedQuery string `json:"refinedQuery,omitempty"`
}

type queryResponseWire struct {
	Response          *string         `json:"response"`
	ConversationEnded bool            `json:"conversationEnded"`
	FinalOutput       json.RawMessage `json:"finalOutput"`
	ClosingMessage    string          `json:"closingMessage"`
	RefinedQuery      string          `json:"refinedQuery"`
}

// MarshalJSON writes FinalOutput as a JSON string, the way the service does.
func (r QueryResponse) MarshalJSON() ([]byte, error) {
	type plain QueryResponse
	return json.Marshal(struct {
		plain
		FinalOutput string `json:"finalOutput,omitempty"`
	}{plain(r), r.FinalOutput})
}

// ResetRequest is the body of POST /reset.
type ResetRequest struct {
	UserID string `json:"userId"`
}

// errorBody is the body of every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the advisor service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	c.httpClient.Timeout = timeout
	return c
}

// WithRateLimit limits outgoing requests to perSecond with the given burst.
// A non-positive perSecond removes the limit.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// WithLogger sets the logger used for request and response lines.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured reports whether a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Query sends one user message and returns the assistant reply.
//
// Errors wrap ErrTransport (connection failure or non-2xx status, including
// *ServiceError) or ErrMalformedResponse (2xx without a usable body).
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	body, err := c.postJSON(ctx, PathQuery, req)
	if err != nil {
		return nil, err
	}
	return decodeQueryResponse(body)
}

// Reset asks the service to drop the conversation for userID.
func (c *Client) Reset(ctx context.Context, userID string) error {
	_, err := c.postJSON(ctx, PathReset, ResetRequest{UserID: userID})
	return err
}

func decodeQueryResponse(body []byte) (*QueryResponse, error) {
	var wire queryResponseWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wire.Response == nil {
		return nil, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	resp := &QueryResponse{
		Response:          *wire.Response,
		ConversationEnded: wire.ConversationEnded,
		ClosingMessage:    wire.ClosingMessage,
		RefinedQuery:      wire.RefinedQuery,
	}
	resp.FinalOutput = finalOutputText(wire.FinalOutput)
	return resp, nil
}

// finalOutputText unwraps a JSON string payload, or returns other JSON
// values as their literal text.
func finalOutputText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, path, "application/json", func() io.Reader { return bytes.NewReader(bodyBytes) })
}

// do performs a single POST. newBody is called once.
func (c *Client) do(ctx context.Context, path, contentType string, newBody func() io.Reader) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("%w: %w", ErrTransport, ErrNotConfigured)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, newBody())
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logRequest(req)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %w", ErrTransport, context.Canceled)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logResponse(req, resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(path, resp.StatusCode, body)
	}
	return body, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx response into a *ServiceError.
func handleErrorResponse(path string, statusCode int, body []byte) error {
	svcErr := &ServiceError{Endpoint: path, Status: statusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		svcErr.Message = eb.Error
		if svcErr.Message == "" {
			svcErr.Message = eb.Message
		}
	}
	if svcErr.Message == "" {
		svcErr.Message = strings.TrimSpace(string(body))
		if len(svcErr.Message) > 200 {
			svcErr.Message = svcErr.Message[:200] + "..."
		}
	}
	return svcErr
}

// logRequest logs the method and path. Bodies carry user text and are not
// logged.
func (c *Client) logRequest(req *http.Request) {
	c.logger.Debug("advisor request", "method", req.Method, "path", req.URL.Path)
}

func (c *Client) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	c.logger.Debug("advisor response",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", duration.Round(time.Millisecond))
}
