// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
	"github.com/ece1786-2024/CourseCraft/internal/model"
	"github.com/ece1786-2024/CourseCraft/internal/session"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeService struct {
	mu      sync.Mutex
	queries []advisor.QueryRequest
	resets  []string
	uploads []advisor.Attachment

	queryFn   func(ctx context.Context, req advisor.QueryRequest) (*advisor.QueryResponse, error)
	resetErr  error
	uploadErr error
}

func (f *fakeService) Query(ctx context.Context, req advisor.QueryRequest) (*advisor.QueryResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, req)
	fn := f.queryFn
	f.mu.Unlock()
	if fn == nil {
		return &advisor.QueryResponse{Response: "echo: " + req.Message}, nil
	}
	return fn(ctx, req)
}

func (f *fakeService) Reset(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, userID)
	return f.resetErr
}

func (f *fakeService) Upload(ctx context.Context, userID string, att advisor.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, att)
	return f.uploadErr
}

func (f *fakeService) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// blockingQuery returns a query function that waits for release (or the
// request context) and the channel that releases it.
func blockingQuery(resp *advisor.QueryResponse) (func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error), chan struct{}) {
	release := make(chan struct{})
	return func(ctx context.Context, req advisor.QueryRequest) (*advisor.QueryResponse, error) {
		select {
		case <-release:
			return resp, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, release
}

type terminations struct {
	mu    sync.Mutex
	calls [][]model.RecommendationItem
}

func (tr *terminations) record(items []model.RecommendationItem) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.calls = append(tr.calls, items)
}

func (tr *terminations) count() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.calls)
}

func newTestEngine(t *testing.T, svc *fakeService, term *terminations) *Engine {
	t.Helper()
	opts := Options{Session: session.New(), Service: svc}
	if term != nil {
		opts.OnTerminated = term.record
	}
	e := New(opts)
	t.Cleanup(e.Close)
	return e
}

func wait(t *testing.T, task *Task) (Outcome, error) {
	t.Helper()
	require.NotNil(t, task)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := task.Wait(ctx)
	require.NotEqual(t, OutcomePending, outcome, "task did not finish")
	return outcome, err
}

const csc108 = `[{"course_code":"CSC108","name":"Introduction to Computer Programming","department":"Computer Science"}]`

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestNew_SeedsGreeting(t *testing.T) {
	e := newTestEngine(t, &fakeService{}, nil)
	snap := e.Snapshot()

	require.Equal(t, 1, snap.Transcript.Len())
	assert.Equal(t, DefaultTexts().Greeting, snap.Transcript.At(0).Text)
	assert.Equal(t, Idle, snap.State)
	assert.False(t, snap.Terminated)
}

func TestSubmit_PlaceholderThenReply(t *testing.T) {
	fn, release := blockingQuery(&advisor.QueryResponse{Response: "What subjects do you enjoy?"})
	svc := &fakeService{queryFn: fn}
	e := newTestEngine(t, svc, nil)

	task := e.Submit(context.Background(), "  I want to study CS  ")
	require.NotNil(t, task)

	// User turn and placeholder are visible before the reply arrives.
	snap := e.Snapshot()
	assert.Equal(t, AwaitingResponse, snap.State)
	require.Equal(t, 3, snap.Transcript.Len())
	assert.Equal(t, "I want to study CS", snap.Transcript.At(1).Text)
	assert.True(t, snap.Transcript.At(1).IsUser())
	assert.True(t, snap.Transcript.At(2).IsPlaceholder())
	assert.Equal(t, DefaultTexts().Placeholder, snap.Transcript.At(2).Text)

	close(release)
	outcome, err := wait(t, task)
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, outcome)

	snap = e.Snapshot()
	assert.Equal(t, Idle, snap.State)
	require.Equal(t, 3, snap.Transcript.Len())
	last, _ := snap.Transcript.Last()
	assert.Equal(t, "What subjects do you enjoy?", last.Text)
	assert.False(t, last.IsPlaceholder())

	require.Equal(t, 1, svc.queryCount())
	assert.Equal(t, e.Session().ID(), svc.queries[0].UserID)
	assert.Equal(t, "I want to study CS", svc.queries[0].Message)
}

func TestSubmit_SingleInFlight(t *testing.T) {
	fn, release := blockingQuery(&advisor.QueryResponse{Response: "ok"})
	svc := &fakeService{queryFn: fn}
	e := newTestEngine(t, svc, nil)

	first := e.Submit(context.Background(), "first")
	require.NotNil(t, first)
	before := e.Transcript()

	assert.Nil(t, e.Submit(context.Background(), "second"), "submission while awaiting must be dropped")
	assert.Equal(t, before.Len(), e.Transcript().Len(), "dropped submission must not touch the transcript")

	close(release)
	wait(t, first)
	assert.Equal(t, 1, svc.queryCount())

	// Once idle again, submissions are accepted.
	second := e.Submit(context.Background(), "second")
	require.NotNil(t, second)
	wait(t, second)
	assert.Equal(t, 5, e.Transcript().Len())
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)

	for _, in := range []string{"", "   ", "\n\t"} {
		assert.Nil(t, e.Submit(context.Background(), in))
	}
	assert.Equal(t, 1, e.Transcript().Len())
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, 0, svc.queryCount())
}

func TestSubmit_TrimsOnly(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)

	// "e" followed by a combining acute accent stays decomposed.
	wait(t, e.Submit(context.Background(), "  e\u0301cole\n"))

	require.Equal(t, 1, svc.queryCount())
	assert.Equal(t, "e\u0301cole", svc.queries[0].Message)
	assert.Equal(t, "e\u0301cole", e.Transcript().At(1).Text)
}

func TestSubmit_FailureUsesFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport", advisor.ErrTransport},
		{"service error", &advisor.ServiceError{Endpoint: advisor.PathQuery, Status: 500, Message: "boom"}},
		{"malformed", advisor.ErrMalformedResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{queryFn: func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error) {
				return nil, tc.err
			}}
			e := newTestEngine(t, svc, nil)

			outcome, err := wait(t, e.Submit(context.Background(), "hello"))
			assert.Equal(t, OutcomeFailed, outcome)
			assert.Error(t, err)

			snap := e.Snapshot()
			assert.Equal(t, Idle, snap.State)
			require.Equal(t, 3, snap.Transcript.Len())
			last, _ := snap.Transcript.Last()
			assert.Equal(t, DefaultTexts().Fallback, last.Text)
			assert.Equal(t, 1, svc.queryCount(), "queries are not retried")
		})
	}
}

// =============================================================================
// TERMINATION TESTS
// =============================================================================

func TestTermination_RoundTrip(t *testing.T) {
	svc := &fakeService{queryFn: func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error) {
		return &advisor.QueryResponse{
			Response:          "Here are my suggestions.",
			ConversationEnded: true,
			FinalOutput:       csc108,
		}, nil
	}}
	term := &terminations{}
	e := newTestEngine(t, svc, term)

	outcome, err := wait(t, e.Submit(context.Background(), "generate"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, outcome)

	require.Equal(t, 1, term.count())
	items := term.calls[0]
	require.Len(t, items, 1)
	assert.Equal(t, "CSC108", items[0].CourseCode)

	snap := e.Snapshot()
	assert.True(t, snap.Terminated)
	assert.Len(t, snap.Recommendations, 1)

	// Reply replaces the placeholder, then the summary follows.
	require.Equal(t, 4, snap.Transcript.Len())
	assert.Equal(t, "Here are my suggestions.", snap.Transcript.At(2).Text)
	assert.Contains(t, snap.Transcript.At(3).Text, "1 course recommendation ")
}

func TestTermination_ClosingMessage(t *testing.T) {
	svc := &fakeService{queryFn: func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error) {
		return &advisor.QueryResponse{
			Response:          "Great.",
			ConversationEnded: true,
			FinalOutput:       csc108,
			ClosingMessage:    "Good luck with your first year!",
		}, nil
	}}
	e := newTestEngine(t, svc, &terminations{})

	wait(t, e.Submit(context.Background(), "thanks"))
	last, _ := e.Transcript().Last()
	assert.Equal(t, "Good luck with your first year!", last.Text)
}

func TestTermination_DecodeFailure(t *testing.T) {
	svc := &fakeService{queryFn: func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error) {
		return &advisor.QueryResponse{
			Response:          "Here you go.",
			ConversationEnded: true,
			FinalOutput:       "Sorry, I could not find courses.",
		}, nil
	}}
	term := &terminations{}
	e := newTestEngine(t, svc, term)

	outcome, err := wait(t, e.Submit(context.Background(), "done"))
	require.NoError(t, err, "decode failures are not surfaced as task errors")
	assert.Equal(t, OutcomeResolved, outcome)

	require.Equal(t, 1, term.count())
	assert.NotNil(t, term.calls[0])
	assert.Empty(t, term.calls[0])

	// The reply is shown; no extra turn is added.
	snap := e.Snapshot()
	assert.Equal(t, 3, snap.Transcript.Len())
	assert.Equal(t, Idle, snap.State)
}

func TestTermination_StructuredFieldsDelivered(t *testing.T) {
	payload := `[
		{"course_code":"CSC108","meeting_sections":[{"type":"LEC"}]},
		{"course_code":"MAT137","prerequisites":{"all":["MCV4U"]}}
	]`
	svc := &fakeService{queryFn: func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error) {
		return &advisor.QueryResponse{Response: "Done.", ConversationEnded: true, FinalOutput: payload}, nil
	}}
	term := &terminations{}
	e := newTestEngine(t, svc, term)

	wait(t, e.Submit(context.Background(), "done"))

	require.Equal(t, 1, term.count())
	items := term.calls[0]
	require.Len(t, items, 2)
	assert.Equal(t, "CSC108", items[0].CourseCode)
	assert.Equal(t, "MAT137", items[1].CourseCode)
	assert.Len(t, e.Snapshot().Recommendations, 2)
}

func TestTermination_NotEndedNoCallback(t *testing.T) {
	term := &terminations{}
	e := newTestEngine(t, &fakeService{}, term)

	wait(t, e.Submit(context.Background(), "hello"))
	assert.Equal(t, 0, term.count())
	assert.False(t, e.Snapshot().Terminated)
}

func TestTermination_OncePerConversation(t *testing.T) {
	svc := &fakeService{queryFn: func(context.Context, advisor.QueryRequest) (*advisor.QueryResponse, error) {
		return &advisor.QueryResponse{Response: "done", ConversationEnded: true, FinalOutput: csc108}, nil
	}}
	term := &terminations{}
	e := newTestEngine(t, svc, term)

	wait(t, e.Submit(context.Background(), "generate"))
	wait(t, e.Submit(context.Background(), "generate again"))
	assert.Equal(t, 1, term.count())

	wait(t, e.Reset(context.Background()))
	wait(t, e.Submit(context.Background(), "generate"))
	assert.Equal(t, 2, term.count(), "a new conversation may end again")
}

// =============================================================================
// RESET TESTS
// =============================================================================

func TestReset_Idempotent(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)
	wait(t, e.Submit(context.Background(), "hello"))

	wait(t, e.Reset(context.Background()))
	first := e.Snapshot()
	wait(t, e.Reset(context.Background()))
	second := e.Snapshot()

	for _, snap := range []Snapshot{first, second} {
		require.Equal(t, 1, snap.Transcript.Len())
		assert.Equal(t, DefaultTexts().Greeting, snap.Transcript.At(0).Text)
		assert.Equal(t, Idle, snap.State)
		assert.Empty(t, snap.Input)
	}
	assert.Equal(t, []string{e.Session().ID(), e.Session().ID()}, svc.resets)
}

func TestReset_DiscardsInFlightReply(t *testing.T) {
	fn, release := blockingQuery(&advisor.QueryResponse{Response: "late reply"})
	defer close(release)
	svc := &fakeService{queryFn: fn}
	e := newTestEngine(t, svc, nil)

	inFlight := e.Submit(context.Background(), "hello")
	require.NotNil(t, inFlight)

	wait(t, e.Reset(context.Background()))
	assert.Equal(t, Idle, e.State(), "reset forces Idle even with a request outstanding")

	outcome, _ := wait(t, inFlight)
	assert.Equal(t, OutcomeDiscarded, outcome)

	tr := e.Transcript()
	require.Equal(t, 1, tr.Len(), "late reply must not reach the new conversation")
	assert.False(t, tr.HasPlaceholder())

	// A new exchange works normally.
	svc.mu.Lock()
	svc.queryFn = nil
	svc.mu.Unlock()
	wait(t, e.Submit(context.Background(), "again"))
	last, _ := e.Transcript().Last()
	assert.Equal(t, "echo: again", last.Text)
}

func TestReset_NotificationFailureIgnored(t *testing.T) {
	svc := &fakeService{resetErr: errors.New("offline")}
	e := newTestEngine(t, svc, nil)

	outcome, err := wait(t, e.Reset(context.Background()))
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Error(t, err)
	assert.Equal(t, 1, e.Transcript().Len())
	assert.Equal(t, Idle, e.State())
}

// =============================================================================
// INPUT TESTS
// =============================================================================

func TestHandleKey_EnterVsShiftEnter(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)

	e.SetInput("line one")
	assert.Nil(t, e.HandleKey(context.Background(), KeyEvent{Key: KeyEnter, Shift: true}))
	assert.Equal(t, "line one\n", e.Input())
	assert.Equal(t, 0, svc.queryCount(), "shift+enter must not submit")

	for _, r := range "line two" {
		e.HandleKey(context.Background(), KeyEvent{Key: KeyRune, Rune: r})
	}
	e.HandleKey(context.Background(), KeyEvent{Key: KeyRune, Rune: 'x'})
	e.HandleKey(context.Background(), KeyEvent{Key: KeyBackspace})

	task := e.HandleKey(context.Background(), KeyEvent{Key: KeyEnter})
	wait(t, task)

	require.Equal(t, 1, svc.queryCount())
	assert.Equal(t, "line one\nline two", svc.queries[0].Message)
	assert.Empty(t, e.Input(), "input is cleared on submit")
}

func TestHandleKey_AltEnterInsertsNewline(t *testing.T) {
	e := newTestEngine(t, &fakeService{}, nil)
	e.SetInput("a")
	assert.Nil(t, e.HandleKey(context.Background(), KeyEvent{Key: KeyEnter, Alt: true}))
	assert.Equal(t, "a\n", e.Input())
}

func TestSubmitInput_BlankBuffer(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)
	e.SetInput("   ")
	assert.Nil(t, e.SubmitInput(context.Background()))
	assert.Equal(t, 0, svc.queryCount())
}

// =============================================================================
// UPLOAD TESTS
// =============================================================================

func TestUpload_AppendsNotice(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)

	outcome, err := wait(t, e.Upload(context.Background(), advisor.Attachment{Name: "cv.pdf", Data: []byte("%PDF")}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUploaded, outcome)

	last, _ := e.Transcript().Last()
	assert.Equal(t, DefaultTexts().UploadNotice, last.Text)
	assert.Equal(t, Idle, e.State())
	assert.Len(t, svc.uploads, 1)
}

func TestUpload_DuringQueryKeepsPlaceholderLast(t *testing.T) {
	fn, release := blockingQuery(&advisor.QueryResponse{Response: "reply"})
	svc := &fakeService{queryFn: fn}
	e := newTestEngine(t, svc, nil)

	query := e.Submit(context.Background(), "hello")
	wait(t, e.Upload(context.Background(), advisor.Attachment{Name: "cv.docx", Data: []byte("x")}))

	snap := e.Snapshot()
	assert.Equal(t, AwaitingResponse, snap.State, "upload must not change the request state")
	assert.True(t, snap.Transcript.HasPlaceholder())

	close(release)
	wait(t, query)

	tr := e.Transcript()
	require.Equal(t, 4, tr.Len())
	assert.Equal(t, DefaultTexts().UploadNotice, tr.At(2).Text)
	assert.Equal(t, "reply", tr.At(3).Text)
}

func TestUpload_Rejected(t *testing.T) {
	svc := &fakeService{}
	e := newTestEngine(t, svc, nil)

	outcome, err := wait(t, e.Upload(context.Background(), advisor.Attachment{Name: "notes.txt", Data: []byte("x")}))
	assert.Equal(t, OutcomeFailed, outcome)

	var upErr *UploadError
	require.True(t, errors.As(err, &upErr))
	assert.True(t, upErr.Rejected())
	assert.True(t, errors.Is(err, advisor.ErrUnsupportedAttachment))
	assert.Empty(t, svc.uploads, "rejected files are never sent")
	assert.Equal(t, 1, e.Transcript().Len())
}

func TestUpload_ServiceFailure(t *testing.T) {
	svc := &fakeService{uploadErr: advisor.ErrTransport}
	e := newTestEngine(t, svc, nil)

	outcome, err := wait(t, e.Upload(context.Background(), advisor.Attachment{Name: "cv.pdf", Data: []byte("x")}))
	assert.Equal(t, OutcomeFailed, outcome)

	var upErr *UploadError
	require.True(t, errors.As(err, &upErr))
	assert.False(t, upErr.Rejected())
	assert.Equal(t, 1, e.Transcript().Len(), "failed uploads add no turn")
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestSubscribe_OrderedSnapshots(t *testing.T) {
	e := newTestEngine(t, &fakeService{}, nil)

	var mu sync.Mutex
	var versions []uint64
	var states []State
	unsubscribe := e.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, s.Version)
		states = append(states, s.State)
	})

	wait(t, e.Submit(context.Background(), "hello"))

	mu.Lock()
	require.Len(t, versions, 2)
	assert.Less(t, versions[0], versions[1])
	assert.Equal(t, []State{AwaitingResponse, Idle}, states)
	mu.Unlock()

	unsubscribe()
	wait(t, e.Reset(context.Background()))

	mu.Lock()
	assert.Len(t, versions, 2, "no deliveries after unsubscribe")
	mu.Unlock()
}

// =============================================================================
// METRICS
// =============================================================================

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
	ended    int
	uploads  int
	resets   int
}

func (r *countingRecorder) QueryFinished(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) ConversationTerminated(bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended++
}

func (r *countingRecorder) UploadFinished(bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads++
}

func (r *countingRecorder) ConversationReset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func TestRecorder(t *testing.T) {
	rec := &countingRecorder{}
	svc := &fakeService{queryFn: func(_ context.Context, req advisor.QueryRequest) (*advisor.QueryResponse, error) {
		if req.Message == "fail" {
			return nil, advisor.ErrTransport
		}
		return &advisor.QueryResponse{Response: "ok", ConversationEnded: req.Message == "done", FinalOutput: "[]"}, nil
	}}
	e := New(Options{Service: svc, Recorder: rec})
	defer e.Close()

	wait(t, e.Submit(context.Background(), "hi"))
	wait(t, e.Submit(context.Background(), "fail"))
	wait(t, e.Submit(context.Background(), "done"))
	wait(t, e.Reset(context.Background()))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"resolved", "failed", "resolved"}, rec.outcomes)
	assert.Equal(t, 1, rec.ended)
	assert.Equal(t, 1, rec.resets)
}
