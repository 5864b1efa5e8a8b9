package dispatch

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/arithgraph/pkg/observability"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// Retry defaults: 3 attempts with a 1 second initial delay, doubling each time.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// RetryOptions configures a RetryExecutor.
type RetryOptions struct {
	Attempts int           // total attempts, including the first; zero means DefaultRetryAttempts
	Delay    time.Duration // delay before the second attempt; zero means DefaultRetryDelay
	Logger   *log.Logger
}

// RetryExecutor resubmits a task to the wrapped executor when it fails with
// a [Retryable] error. Other errors are returned immediately.
type RetryExecutor struct {
	inner    search.Executor
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Retry wraps inner with retry-on-transient-failure behaviour.
func Retry(inner search.Executor, opts RetryOptions) *RetryExecutor {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultRetryAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &RetryExecutor{inner: inner, attempts: opts.Attempts, delay: opts.Delay, logger: opts.Logger}
}

// Name returns the wrapped executor's name.
func (r *RetryExecutor) Name() string { return executorName(r.inner) }

// Submit runs t on the wrapped executor, resubmitting after transient failures.
func (r *RetryExecutor) Submit(ctx context.Context, t search.Task) search.Future {
	p := newPromise()
	go func() {
		var res search.TaskResult
		err := retry(ctx, r.attempts, r.delay, func(attempt int, lastErr error) error {
			if attempt > 0 {
				observability.Dispatch().OnRetry(ctx, r.Name(), attempt, lastErr)
				r.logger.Warn("retrying task", "partition", t.Key(), "attempt", attempt+1, "error", lastErr)
			}
			var err error
			res, err = r.inner.Submit(ctx, t).Wait(ctx)
			return err
		})
		p.resolve(res, err)
	}()
	return p
}

// retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. Returns the last error if all attempts fail, or
// ctx.Err() if cancelled while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(attempt int, lastErr error) error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(i, lastErr); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func executorName(e search.Executor) string {
	if n, ok := e.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}
