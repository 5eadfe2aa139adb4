// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"sync"
)

// Outcome describes how an asynchronous engine operation ended.
type Outcome int

const (
	// OutcomePending means the task has not finished.
	OutcomePending Outcome = iota
	// OutcomeResolved means a reply replaced the placeholder.
	OutcomeResolved
	// OutcomeFailed means the operation failed. For queries the fallback
	// text replaced the placeholder.
	OutcomeFailed
	// OutcomeDiscarded means the conversation was reset before the result
	// arrived, so it was dropped.
	OutcomeDiscarded
	// OutcomeUploaded means an attachment reached the service.
	OutcomeUploaded
	// OutcomeReset means the service was notified of a reset.
	OutcomeReset
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeResolved:
		return "resolved"
	case OutcomeFailed:
		return "failed"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Task is a handle on an operation running in the background. Callers may
// wait on it or ignore it.
type Task struct {
	done chan struct{}
	once sync.Once

	outcome Outcome
	err     error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(outcome Outcome, err error) {
	t.once.Do(func() {
		t.outcome = outcome
		t.err = err
		close(t.done)
	})
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.err
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Outcome returns the result, or OutcomePending if the task is running.
func (t *Task) Outcome() Outcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return OutcomePending
	}
}

// Err returns the error the task finished with, if any.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
