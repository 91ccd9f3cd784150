// Package debounce implements a latest-wins debounce over a channel of
// values: every value schedules a deferred call of an action, and a
// newer value cancels the previous call whether it is still waiting out
// its window or already running. Only the most recent value's action
// may eventually complete, and at most one action call is in flight at
// any time.
//
// Cancellation is cooperative. A superseded task stops at its next
// suspension point (the window wait, the hand-off from its predecessor,
// or any point where the action itself checks its context); it is never
// preempted mid-instruction.
package debounce

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/vcnkl/settle/logger"
)

// Action is invoked with the surviving value once its window elapses.
// The context is cancelled when a newer value supersedes the call or
// the pipeline shuts down; a cooperative action observes it at its own
// suspension points and returns the context's error.
type Action[T any] func(ctx context.Context, value T) error

// Options carries the debouncer's optional collaborators. The zero
// value selects the real clock and a no-op logger.
type Options struct {
	Clock  clockwork.Clock
	Logger logger.Logger
}

// Debouncer coalesces a stream of values into calls of a single action.
// Create one with NewDebouncer and drive it with Run; a Debouncer is
// single-use.
type Debouncer[T any] struct {
	window time.Duration
	action Action[T]
	clock  clockwork.Clock
	log    logger.Logger

	// current is the single pending-task slot. Only Run's goroutine
	// mutates it, so it needs no lock.
	current *pendingTask[T]
	failed  chan error
}

// NewDebouncer returns a debouncer that waits window between a value's
// arrival and its action. A zero window still defers the action to the
// next scheduling opportunity rather than running it inline during
// acceptance.
func NewDebouncer[T any](window time.Duration, action Action[T], opts *Options) *Debouncer[T] {
	if opts == nil {
		opts = &Options{}
	}
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	if window < 0 {
		window = 0
	}
	return &Debouncer[T]{
		window: window,
		action: action,
		clock:  clk,
		log:    log,
		failed: make(chan error, 1),
	}
}

// Latest attaches a latest-wins debouncer to source and blocks until
// the source closes, ctx is cancelled, or the action fails. It is the
// one-call form of NewDebouncer plus Run with default collaborators.
func Latest[T any](ctx context.Context, source <-chan T, window time.Duration, action Action[T]) error {
	return NewDebouncer(window, action, nil).Run(ctx, source)
}

// Run consumes source until it closes, ctx is cancelled, or the action
// fails. Values are accepted strictly in order: one value's acceptance,
// including replacement of the pending-task slot, completes before the
// next value is read.
//
// Run returns nil once the source has closed and the last scheduled
// action, if any, reached a terminal state; ctx.Err() if the enclosing
// scope was torn down; and the action's error, wrapped, if a call
// failed. A failed action stops the pipeline: no further values are
// accepted, and the caller decides whether to rebuild it.
func (d *Debouncer[T]) Run(ctx context.Context, source <-chan T) error {
	defer func() {
		if d.current != nil {
			d.current.cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-d.failed:
			return errors.Wrap(err, "debounced action failed")
		case v, ok := <-source:
			if !ok {
				return d.drain(ctx)
			}
			d.accept(ctx, v)
		}
	}
}

// accept supersedes the current task, if any, and schedules a new one
// for v. The cancellation of the predecessor is requested before the
// successor is scheduled, so two live tasks never both hold the right
// to run the action.
func (d *Debouncer[T]) accept(ctx context.Context, v T) {
	prev := d.current
	if prev != nil && !prev.State().Terminal() {
		d.log.Debug("superseding pending task", logger.String("state", prev.State().String()))
		prev.cancel()
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := newPendingTask(v, cancel)
	d.current = t
	go d.runTask(taskCtx, t, prev)
}

// runTask waits out the window, waits for the predecessor to unwind,
// then invokes the action. A cancellation landing at either wait or
// inside the action ends the task quietly; any other action error goes
// to the failure channel and brings the pipeline down.
func (d *Debouncer[T]) runTask(ctx context.Context, t *pendingTask[T], prev *pendingTask[T]) {
	defer close(t.done)
	defer t.cancel()

	select {
	case <-d.clock.After(d.window):
	case <-ctx.Done():
		t.finish(TaskCancelled, ctx.Err())
		return
	}

	// The predecessor has been told to stop but may still be unwinding,
	// possibly mid-action. Wait it out so at most one action ever runs.
	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			t.finish(TaskCancelled, ctx.Err())
			return
		}
	}

	// The window select can win a race against a cancellation requested
	// in the same instant.
	if ctx.Err() != nil {
		t.finish(TaskCancelled, ctx.Err())
		return
	}

	t.transition(TaskRunning)
	err := d.action(ctx, t.value)

	switch {
	case ctx.Err() != nil:
		// Superseded or shut down mid-action. Whatever the action
		// returned, the task unwinds without reporting.
		t.finish(TaskCancelled, ctx.Err())
	case err != nil:
		t.finish(TaskFailed, err)
		d.failed <- err
	default:
		t.finish(TaskCompleted, nil)
	}
}

// drain runs after the source closes: the last accepted value still
// gets its shot, so Run waits for the current task to finish before
// returning.
func (d *Debouncer[T]) drain(ctx context.Context) error {
	if d.current == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-d.failed:
		return errors.Wrap(err, "debounced action failed")
	case <-d.current.done:
		select {
		case err := <-d.failed:
			return errors.Wrap(err, "debounced action failed")
		default:
			return nil
		}
	}
}
