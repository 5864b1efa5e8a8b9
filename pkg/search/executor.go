package search

import (
	"context"
	"sync"
)

// Executor runs tasks, locally or on remote workers.
//
// Submit must not block on the task itself: it hands the task off and returns
// a Future. Implementations are free to start work immediately, queue it, or
// defer it until Wait.
type Executor interface {
	Submit(ctx context.Context, t Task) Future
}

// Future is the pending result of a submitted task.
type Future interface {
	// Wait blocks until the task finishes or ctx is done.
	Wait(ctx context.Context) (TaskResult, error)
}

// FutureFunc adapts a function to the Future interface.
type FutureFunc func(ctx context.Context) (TaskResult, error)

// Wait calls f(ctx).
func (f FutureFunc) Wait(ctx context.Context) (TaskResult, error) { return f(ctx) }

// Inline runs each task in the goroutine that waits for it, one task at a
// time. It is the executor used when none is given.
type Inline struct {
	mu sync.Mutex
}

// Submit returns a future that runs t when waited on.
func (in *Inline) Submit(_ context.Context, t Task) Future {
	return FutureFunc(func(ctx context.Context) (TaskResult, error) {
		in.mu.Lock()
		defer in.mu.Unlock()
		return RunTask(ctx, t)
	})
}
