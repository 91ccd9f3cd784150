package debounce

import (
	"context"
	"sync"
)

// TaskState describes where a pending task is in its lifecycle.
// Scheduled and Running are transient; Completed, Cancelled and Failed
// are terminal and a task never leaves them.
type TaskState int

const (
	// TaskScheduled means the task is waiting out its settle window.
	TaskScheduled TaskState = iota
	// TaskRunning means the action is executing.
	TaskRunning
	// TaskCompleted means the action ran to completion.
	TaskCompleted
	// TaskCancelled means the task was superseded by a newer value or
	// torn down with its enclosing scope before completing.
	TaskCancelled
	// TaskFailed means the action returned an error that was not a
	// cancellation.
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskScheduled:
		return "scheduled"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether a task in this state is finished for good.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskCancelled || s == TaskFailed
}

// pendingTask is the single-slot record of the deferred action for the
// most recently accepted value. The debouncer exclusively owns the
// cancel handle; done is closed only after the task goroutine has fully
// unwound, which is what lets a successor wait for it.
type pendingTask[T any] struct {
	value  T
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state TaskState
	err   error
}

func newPendingTask[T any](value T, cancel context.CancelFunc) *pendingTask[T] {
	return &pendingTask[T]{
		value:  value,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// State returns the task's current lifecycle state.
func (t *pendingTask[T]) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// transition moves the task to next unless it already reached a
// terminal state. Returns whether the move happened.
func (t *pendingTask[T]) transition(next TaskState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return false
	}
	t.state = next
	return true
}

// finish records the task's terminal outcome. The first finish wins;
// later calls are ignored so a cancellation racing a completion cannot
// rewrite history.
func (t *pendingTask[T]) finish(state TaskState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = state
	t.err = err
}

// Err returns the terminal error, if any: the cancellation cause for a
// cancelled task, the action's error for a failed one.
func (t *pendingTask[T]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
