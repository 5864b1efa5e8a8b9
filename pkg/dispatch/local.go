package dispatch

import (
	"context"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// LocalOptions configures a Local executor.
type LocalOptions struct {
	// Workers bounds how many tasks run at once. Zero means runtime.NumCPU().
	Workers int

	// Logger receives per-task debug messages. Nil discards them.
	Logger *log.Logger
}

// Local runs tasks on goroutines in the current process. At most Workers
// tasks run at the same time; the rest wait on a weighted semaphore.
type Local struct {
	sem     *semaphore.Weighted
	workers int
	logger  *log.Logger
}

// NewLocal creates a Local executor.
func NewLocal(opts LocalOptions) *Local {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Local{
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		workers: opts.Workers,
		logger:  opts.Logger,
	}
}

// Name returns "local".
func (l *Local) Name() string { return ExecutorLocal }

// Workers returns the concurrency limit.
func (l *Local) Workers() int { return l.workers }

// Submit starts t on its own goroutine as soon as a worker slot is free.
func (l *Local) Submit(ctx context.Context, t search.Task) search.Future {
	p := newPromise()
	key := t.Key()
	go func() {
		p.resolve(track(ctx, ExecutorLocal, key, func() (search.TaskResult, error) {
			if err := l.sem.Acquire(ctx, 1); err != nil {
				return search.TaskResult{}, err
			}
			defer l.sem.Release(1)
			l.logger.Debug("task started", "partition", key)
			return runRecover(ctx, t)
		}))
	}()
	return p
}

// runRecover runs t and converts a panic into an INTERNAL error.
func runRecover(ctx context.Context, t search.Task) (res search.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.ErrCodeInternal, "task %s panicked: %v", t.Key(), r)
		}
	}()
	return search.RunTask(ctx, t)
}
