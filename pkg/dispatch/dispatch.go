// Package dispatch provides executors that run search tasks outside the
// coordinating goroutine.
//
// Every executor implements [search.Executor]:
//
//   - [Local] runs tasks on goroutines, bounded by a weighted semaphore.
//   - [HTTPExecutor] posts tasks to remote workers served by [NewHandler].
//   - [RedisExecutor] pushes tasks onto a Redis list consumed by [RedisWorker].
//   - [Retry] wraps another executor and retries transient failures.
//
// Remote executors serialise tasks with the JSON envelopes in wire.go. Workers
// rebuild the graph from the envelope and call [search.RunTask], so a remote
// partition computes exactly what a local one would.
//
// # Errors
//
// Transport failures that may succeed on another attempt are wrapped with
// [Retryable]. Errors reported by a worker keep their code (for example
// OVERFLOW) across the wire.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/arithgraph/pkg/observability"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// Executor names reported to hooks and logs.
const (
	ExecutorLocal = "local"
	ExecutorHTTP  = "http"
	ExecutorRedis = "redis"

	// Worker-side names, used when a worker process reports the tasks it ran.
	WorkerHTTP  = "http-worker"
	WorkerRedis = "redis-worker"
)

// =============================================================================
// Retryable Errors
// =============================================================================

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network errors, 5xx responses) with this type
// so that [Retry] knows to attempt the task again.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// =============================================================================
// Futures
// =============================================================================

// promise is a Future completed exactly once by the executor.
type promise struct {
	done chan struct{}
	res  search.TaskResult
	err  error
}

func newPromise() *promise { return &promise{done: make(chan struct{})} }

func (p *promise) resolve(res search.TaskResult, err error) {
	p.res, p.err = res, err
	close(p.done)
}

// Wait blocks until the task resolves or ctx is done.
func (p *promise) Wait(ctx context.Context) (search.TaskResult, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return search.TaskResult{}, ctx.Err()
	}
}

// failed returns a Future that is already resolved with err.
func failed(err error) search.Future {
	p := newPromise()
	p.resolve(search.TaskResult{}, err)
	return p
}

// track reports submit and result events for one task to the dispatch hooks.
func track(ctx context.Context, executor, id string, run func() (search.TaskResult, error)) (search.TaskResult, error) {
	hooks := observability.Dispatch()
	start := time.Now()
	hooks.OnTaskSubmit(ctx, executor, id)
	res, err := run()
	hooks.OnTaskResult(ctx, executor, id, time.Since(start), err)
	return res, err
}
