// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/session"
)

// =============================================================================
// STATE
// =============================================================================

// State is the request state of a conversation.
type State int

const (
	// Idle accepts new submissions.
	Idle State = iota
	// AwaitingResponse has one query outstanding; submissions are dropped.
	AwaitingResponse
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the engine at one point in time.
type Snapshot struct {
	Transcript model.Transcript
	State      State
	Input      string

	// Terminated is true once the service has ended the current
	// conversation. Recommendations holds what it sent.
	Terminated      bool
	Recommendations []model.RecommendationItem

	// Generation increases on every reset.
	Generation uint64
	// Version increases on every published change.
	Version uint64
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Service is the remote advisor. *advisor.Client implements it.
type Service interface {
	Query(ctx context.Context, req advisor.QueryRequest) (*advisor.QueryResponse, error)
	Reset(ctx context.Context, userID string) error
	Upload(ctx context.Context, userID string, att advisor.Attachment) error
}

// Recorder receives outcome metrics. *telemetry.Metrics implements it.
type Recorder interface {
	QueryFinished(outcome string, d time.Duration)
	ConversationTerminated(decoded bool, count int)
	UploadFinished(ok bool)
	ConversationReset()
}

type nopRecorder struct{}

func (nopRecorder) QueryFinished(string, time.Duration) {}
func (nopRecorder) ConversationTerminated(bool, int)    {}
func (nopRecorder) UploadFinished(bool)                 {}
func (nopRecorder) ConversationReset()                  {}

// Texts are the fixed strings the engine writes into the transcript.
type Texts struct {
	Greeting     string
	Placeholder  string
	Fallback     string
	UploadNotice string
	// Summary is a format string with one %s verb, filled with a phrase
	// like "3 course recommendations", used for the closing turn when the
	// service sends no closing message.
	Summary string
}

// DefaultTexts returns the built-in strings.
func DefaultTexts() Texts {
	return Texts{
		Greeting:     "Hello! 😊 Welcome to the University of Toronto's course selection assistant. I'm here to help you navigate your first-year course options and make choices that align with your interests and goals.",
		Placeholder:  "I am thinking ...",
		Fallback:     "The server is not connected ~~",
		UploadNotice: "📄 Your resume has been uploaded successfully!",
		Summary:      "I found %s for you. Take a look at the list below!",
	}
}

func (t Texts) withDefaults() Texts {
	d := DefaultTexts()
	if t.Greeting == "" {
		t.Greeting = d.Greeting
	}
	if t.Placeholder == "" {
		t.Placeholder = d.Placeholder
	}
	if t.Fallback == "" {
		t.Fallback = d.Fallback
	}
	if t.UploadNotice == "" {
		t.UploadNotice = d.UploadNotice
	}
	if t.Summary == "" {
		t.Summary = d.Summary
	}
	return t
}

// Options configures an Engine.
type Options struct {
	Session session.Session
	Service Service
	Texts   Texts

	// UploadExtensions and MaxUploadBytes constrain attachments. Nil
	// extensions means advisor.DefaultUploadExtensions; zero bytes means
	// advisor.DefaultMaxUploadBytes.
	UploadExtensions []string
	MaxUploadBytes   int64

	// OnTerminated is called once per conversation, outside the engine
	// lock, with the decoded recommendations (empty if decoding failed).
	OnTerminated func(items []model.RecommendationItem)

	Logger   *slog.Logger
	Recorder Recorder
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns one conversation with the advisor service.
type Engine struct {
	sess     session.Session
	svc      Service
	texts    Texts
	exts     []string
	maxBytes int64
	logger   *slog.Logger
	recorder Recorder

	onTerminated func(items []model.RecommendationItem)

	mu              sync.Mutex
	transcript      model.Transcript
	state           State
	input           string
	terminated      bool
	recommendations []model.RecommendationItem
	generation      uint64
	version         uint64

	cancelMgr *cancelManager

	subMu     sync.Mutex
	subs      map[int]func(Snapshot)
	nextSub   int
	published uint64

	wg sync.WaitGroup
}

// New creates an engine seeded with the greeting. A zero Session in opts is
// replaced by session.New().
func New(opts Options) *Engine {
	sess := opts.Session
	if sess.IsZero() {
		sess = session.New()
	}
	exts := opts.UploadExtensions
	if exts == nil {
		exts = advisor.DefaultUploadExtensions
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes == 0 {
		maxBytes = advisor.DefaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var recorder Recorder = nopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}
	texts := opts.Texts.withDefaults()

	return &Engine{
		sess:         sess,
		svc:          opts.Service,
		texts:        texts,
		exts:         exts,
		maxBytes:     maxBytes,
		logger:       logger.With("session", sess.ShortID()),
		recorder:     recorder,
		onTerminated: opts.OnTerminated,
		transcript:   model.Seed(texts.Greeting),
		state:        Idle,
		cancelMgr:    newCancelManager(),
		subs:         make(map[int]func(Snapshot)),
	}
}

// Session returns the identity sent with every request.
func (e *Engine) Session() session.Session {
	return e.sess
}

// Texts returns the strings the engine writes into the transcript.
func (e *Engine) Texts() Texts {
	return e.texts
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Transcript returns the current transcript.
func (e *Engine) Transcript() model.Transcript {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcript
}

// State returns the current request state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Recommendations returns what the service sent when the current
// conversation ended, or nil if it has not ended.
func (e *Engine) Recommendations() []model.RecommendationItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.RecommendationItem(nil), e.recommendations...)
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Transcript:      e.transcript,
		State:           e.state,
		Input:           e.input,
		Terminated:      e.terminated,
		Recommendations: append([]model.RecommendationItem(nil), e.recommendations...),
		Generation:      e.generation,
		Version:         e.version,
	}
}

// changedLocked bumps the version and returns the snapshot to publish.
func (e *Engine) changedLocked() Snapshot {
	e.version++
	return e.snapshotLocked()
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive a snapshot after every change to the
// transcript or state. Snapshots are delivered in order; a snapshot older
// than one already delivered is skipped. fn runs on the goroutine that made
// the change and must not call back into the engine's mutating methods or
// the unsubscribe function synchronously.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) publish(snap Snapshot) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if snap.Version <= e.published {
		return
	}
	e.published = snap.Version
	for _, fn := range e.subs {
		fn(snap)
	}
}

// =============================================================================
// INPUT BUFFER
// =============================================================================

// SetInput replaces the pending input text. Input edits are not published.
func (e *Engine) SetInput(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = text
}

// Input returns the pending input text.
func (e *Engine) Input() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.input
}

// SubmitInput submits the pending input buffer.
func (e *Engine) SubmitInput(ctx context.Context) *Task {
	return e.Submit(ctx, e.Input())
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit sends raw, trimmed of surrounding whitespace, to the service. It
// returns nil without doing anything when raw is blank or a request is
// already outstanding. Otherwise the user turn and the placeholder are in
// the transcript before Submit returns. Any other normalization is the
// caller's job.
func (e *Engine) Submit(ctx context.Context, raw string) *Task {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		e.logger.Debug("dropping submission while awaiting response")
		return nil
	}
	e.state = AwaitingResponse
	e.transcript = e.transcript.AppendUser(text).AppendPlaceholder(e.texts.Placeholder)
	e.input = ""
	gen := e.generation

	reqCtx, cancel := context.WithCancel(ctx)
	e.cancelMgr.set(cancel)
	snap := e.changedLocked()
	e.mu.Unlock()

	e.publish(snap)

	task := newTask()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.runQuery(reqCtx, gen, text, task)
	}()
	return task
}

func (e *Engine) runQuery(ctx context.Context, gen uint64, text string, task *Task) {
	start := time.Now()
	resp, err := e.svc.Query(ctx, advisor.QueryRequest{UserID: e.sess.ID(), Message: text})
	elapsed := time.Since(start)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		e.logger.Debug("discarding reply for a reset conversation", "elapsed", elapsed)
		e.recorder.QueryFinished(OutcomeDiscarded.String(), elapsed)
		task.finish(OutcomeDiscarded, err)
		return
	}
	e.cancelMgr.set(nil)

	if err != nil {
		e.transcript = e.transcript.ResolvePlaceholder(e.texts.Fallback)
		e.state = Idle
		snap := e.changedLocked()
		e.mu.Unlock()

		e.logger.Warn("advisor query failed", "error", err, "elapsed", elapsed)
		e.recorder.QueryFinished(OutcomeFailed.String(), elapsed)
		e.publish(snap)
		task.finish(OutcomeFailed, err)
		return
	}

	e.transcript = e.transcript.ResolvePlaceholder(resp.Response)
	e.state = Idle

	var result terminationResult
	if resp.ConversationEnded {
		result = e.terminateLocked(resp)
	}
	snap := e.changedLocked()
	e.mu.Unlock()

	e.recorder.QueryFinished(OutcomeResolved.String(), elapsed)
	if result.fire {
		e.recorder.ConversationTerminated(result.decoded, len(result.items))
	}
	e.publish(snap)

	if result.fire && e.onTerminated != nil {
		e.onTerminated(result.items)
	}
	task.finish(OutcomeResolved, nil)
}

// =============================================================================
// RESET
// =============================================================================

// Reset starts a new conversation: the transcript returns to the greeting,
// the state to Idle, and any outstanding request is cancelled and its
// result ignored. The service is then told to forget the conversation; the
// returned task reports whether that notification succeeded.
func (e *Engine) Reset(ctx context.Context) *Task {
	e.mu.Lock()
	e.generation++
	e.cancelMgr.cancel()
	e.transcript = model.Seed(e.texts.Greeting)
	e.state = Idle
	e.input = ""
	e.terminated = false
	e.recommendations = nil
	snap := e.changedLocked()
	e.mu.Unlock()

	e.recorder.ConversationReset()
	e.publish(snap)

	task := newTask()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.svc.Reset(ctx, e.sess.ID()); err != nil {
			e.logger.Warn("advisor reset failed", "error", err)
			task.finish(OutcomeFailed, err)
			return
		}
		task.finish(OutcomeReset, nil)
	}()
	return task
}

// =============================================================================
// UPLOAD
// =============================================================================

// Upload sends an attachment to the service. On success the upload notice
// is added to the transcript. The request state is never touched, so an
// upload may run alongside a query.
func (e *Engine) Upload(ctx context.Context, att advisor.Attachment) *Task {
	task := newTask()
	if err := att.Validate(e.exts, e.maxBytes); err != nil {
		e.recorder.UploadFinished(false)
		task.finish(OutcomeFailed, &UploadError{Name: att.Name, Err: err})
		return task
	}

	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.svc.Upload(ctx, e.sess.ID(), att); err != nil {
			e.logger.Warn("resume upload failed", "file", att.Name, "error", err)
			e.recorder.UploadFinished(false)
			task.finish(OutcomeFailed, &UploadError{Name: att.Name, Err: err})
			return
		}
		e.recorder.UploadFinished(true)

		e.mu.Lock()
		if gen != e.generation {
			e.mu.Unlock()
			task.finish(OutcomeDiscarded, nil)
			return
		}
		e.transcript = e.transcript.AppendBot(e.texts.UploadNotice)
		snap := e.changedLocked()
		e.mu.Unlock()

		e.publish(snap)
		task.finish(OutcomeUploaded, nil)
	}()
	return task
}

// =============================================================================
// SHUTDOWN
// =============================================================================

// Close cancels the outstanding query and waits for background work to
// finish.
func (e *Engine) Close() {
	e.cancelMgr.cancel()
	e.wg.Wait()
}
