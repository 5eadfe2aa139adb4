// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/logging"
	"github.com/ece1786-2024/CourseCraft/internal/telemetry"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where the stub listens when no address is given.
	DefaultAddr = "127.0.0.1:5000"

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the stub service version.
	Version = "0.1.0"

	msgMissingFields = "Missing userId or message"
	msgInternal      = "An error occurred while processing your request."
	msgReset         = "Conversation reset."
	msgUploaded      = "Resume uploaded successfully."
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

// ============================================================================
// OPTIONS
// ============================================================================

// Options configures the stub service.
type Options struct {
	Addr           string
	AllowedOrigins []string

	// MinTurns is how many student turns must happen before a trigger word
	// ends the conversation.
	MinTurns int

	// RateLimitPerSec caps requests per client. Zero disables the limit.
	RateLimitPerSec float64

	UploadExtensions []string
	MaxUploadBytes   int64

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// ============================================================================
// SERVER
// ============================================================================

type conversation struct {
	messages []string
	resume   string
}

// Server is a scripted stand-in for the advisor service. It speaks the same
// wire protocol and keeps per-user conversation state in memory.
type Server struct {
	opts    Options
	script  *Script
	logger  *slog.Logger
	metrics *telemetry.Metrics
	handler http.Handler
	started time.Time

	mu            sync.Mutex
	conversations map[string]*conversation

	httpServer *http.Server
}

// New builds a server. A nil script uses DefaultScript.
func New(opts Options, script *Script) *Server {
	if script == nil {
		script = DefaultScript()
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.UploadExtensions == nil {
		opts.UploadExtensions = advisor.DefaultUploadExtensions
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = advisor.DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	s := &Server{
		opts:          opts,
		script:        script,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		started:       time.Now(),
		conversations: make(map[string]*conversation),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(ObserveMiddleware(s.logger, s.metrics))
	r.Use(SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.opts.RateLimitPerSec > 0 {
			burst := int(s.opts.RateLimitPerSec * 2)
			r.Use(RateLimitMiddleware(NewRateLimiter(s.opts.RateLimitPerSec, burst)))
		}
		r.Post(advisor.PathQuery, s.handleQuery)
		r.Post(advisor.PathReset, s.handleReset)
		r.Post(advisor.PathUpload, s.handleUpload)
	})

	return r
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req advisor.QueryRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingFields})
		return
	}

	resp, err := s.reply(req)
	if err != nil {
		s.logger.Error("query failed", "user", req.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reply(req advisor.QueryRequest) (*advisor.QueryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[req.UserID]
	if !ok {
		conv = &conversation{}
		s.conversations[req.UserID] = conv
	}
	conv.messages = append(conv.messages, req.Message)
	turns := len(conv.messages)

	if !s.script.IsTrigger(req.Message) {
		return &advisor.QueryResponse{Response: s.script.Reply(turns)}, nil
	}
	if turns < s.opts.MinTurns {
		text := s.script.NotYet
		if text == "" {
			text = s.script.Reply(turns)
		}
		return &advisor.QueryResponse{Response: text}, nil
	}

	payload, err := json.Marshal(s.script.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}
	resp := &advisor.QueryResponse{
		Response:          s.script.Final,
		ConversationEnded: true,
		FinalOutput:       string(payload),
		ClosingMessage:    s.script.Closing,
		RefinedQuery:      refineQuery(conv),
	}
	delete(s.conversations, req.UserID)
	s.logger.Info("conversation ended", "user", req.UserID, "turns", turns, "recommendations", len(s.script.Recommendations))
	return resp, nil
}

// refineQuery condenses what the student said into one search query.
func refineQuery(conv *conversation) string {
	parts := make([]string, 0, len(conv.messages))
	for _, m := range conv.messages {
		if m = strings.Join(strings.Fields(m), " "); m != "" {
			parts = append(parts, m)
		}
	}
	q := "Student interests: " + strings.Join(parts, "; ")
	if conv.resume != "" {
		q += " (resume on file: " + conv.resume + ")"
	}
	return q
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req advisor.ResetRequest
	if err := decodeJSON(r, &req); err == nil && req.UserID != "" {
		s.mu.Lock()
		delete(s.conversations, req.UserID)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msgReset})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+64*1024)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "File too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No file part"})
		return
	}

	file, header, err := r.FormFile(advisor.FieldResume)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No file part"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Could not read file"})
		return
	}

	att := advisor.Attachment{Name: header.Filename, Data: data}
	if err := att.Validate(s.opts.UploadExtensions, s.opts.MaxUploadBytes); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, advisor.ErrAttachmentTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	if userID := r.FormValue(advisor.FieldUserID); userID != "" {
		s.mu.Lock()
		conv, ok := s.conversations[userID]
		if !ok {
			conv = &conversation{}
			s.conversations[userID] = conv
		}
		conv.resume = header.Filename
		s.mu.Unlock()
	}

	s.logger.Info("resume received", "name", header.Filename, "bytes", len(data))
	writeJSON(w, http.StatusOK, messageBody{Message: msgUploaded})
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Conversations int    `json:"conversations"`
	Uptime        string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       Version,
		Conversations: s.ActiveConversations(),
		Uptime:        time.Since(s.started).Round(time.Second).String(),
	})
}

// ActiveConversations returns how many users have state on the server.
func (s *Server) ActiveConversations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// If ready is non-nil it receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	addr := ln.Addr().String()
	s.logger.Info("advisor stub listening", "addr", addr, "version", Version)
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	return json.NewDecoder(body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
