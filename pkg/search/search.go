// Package search finds every arithmetic structure of a graph inside a weight
// range.
//
// Two drivers share one unit of work ([RunTask]):
//
//   - [Sequential] walks the whole space in a single goroutine.
//   - [Partitioned] fixes a prefix of coordinates, hands each partition to an
//     [Executor] as a [Task], waits for all of them and merges the results in
//     partition order.
//
// Both drivers return the same set of solutions for the same input. With the
// lexicographic enumerator they also return them in the same order.
//
// # Usage
//
//	g, _ := gen.Complete(4)
//	res, err := search.Sequential(ctx, g, enum.Range{Min: 1, Max: 10}, search.Options{})
//
//	exec := dispatch.NewLocal(dispatch.LocalOptions{Workers: 8})
//	res, err = search.Partitioned(ctx, g, enum.Range{Min: 1, Max: 10}, exec, search.Options{})
//
// # Errors
//
// An invalid range fails with INVALID_RANGE before any work starts. Arithmetic
// overflow while evaluating a candidate fails with OVERFLOW. In a partitioned
// search any failed partition fails the whole search with WORKER_FAILURE; no
// partial result is returned.
package search

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/arithgraph/pkg/arith"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPrefixLen is the number of leading coordinates fixed per partition.
	DefaultPrefixLen = 1

	// DefaultCheckEvery is how many candidates are visited between context checks.
	DefaultCheckEvery = 4096

	// MaxPartitions bounds the number of partitions a search may create.
	MaxPartitions = 1 << 16
)

// Search modes reported to hooks and logs.
const (
	ModeSequential  = "sequential"
	ModePartitioned = "partitioned"
)

// =============================================================================
// Options and Results
// =============================================================================

// Options configures a search. The zero value is valid.
type Options struct {
	// PrefixLen is the number of leading coordinates each partition fixes.
	// Values above the vertex count are clamped. Zero means DefaultPrefixLen.
	PrefixLen int

	// CheckEvery is the number of candidates between context checks.
	// Zero means DefaultCheckEvery.
	CheckEvery int

	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks option values and fills in defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.PrefixLen < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "prefix length must not be negative, got %d", o.PrefixLen)
	}
	if o.CheckEvery < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "check interval must not be negative, got %d", o.CheckEvery)
	}
	if o.PrefixLen == 0 {
		o.PrefixLen = DefaultPrefixLen
	}
	if o.CheckEvery == 0 {
		o.CheckEvery = DefaultCheckEvery
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Result holds the solutions of a search and how they were found.
type Result struct {
	// Solutions in discovery order. Each entry is an independent copy.
	Solutions []arith.Weights

	Stats Stats
}

// Stats describes the work a search performed.
type Stats struct {
	Vertices   int
	Candidates uint64 // tuples visited, pruned ones included
	Pruned     uint64 // tuples rejected by the GCD pre-check
	Partitions int
	Duration   time.Duration
}

// contextError converts a finished context into the error a search returns.
// An expired deadline becomes TIMEOUT; cancellation is returned as is.
func contextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "search deadline exceeded")
	}
	return err
}
