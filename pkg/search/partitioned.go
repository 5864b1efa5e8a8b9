package search

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/observability"
)

// Partitioned splits the search space into partitions (see [Partitions]),
// submits one task per partition to exec and waits for all of them before
// merging. Solutions are concatenated in partition order.
//
// If any partition fails, the remaining ones are cancelled and the search
// fails with a WORKER_FAILURE error naming the first failed partition. A nil
// exec runs tasks inline, one at a time.
func Partitioned(ctx context.Context, g *graph.Graph, r enum.Range, exec Executor, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if exec == nil {
		exec = &Inline{}
	}

	parts, err := Partitions(r, g.VertexCount(), opts.PrefixLen)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Search()
	hooks.OnSearchStart(ctx, ModePartitioned, g.VertexCount(), r.Min, r.Max)
	opts.Logger.Debug("search started",
		"mode", ModePartitioned,
		"vertices", g.VertexCount(),
		"min", r.Min,
		"max", r.Max,
		"partitions", len(parts))

	results, err := runPartitions(ctx, g, parts, exec, opts)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnSearchComplete(ctx, ModePartitioned, 0, 0, elapsed, err)
		return nil, err
	}

	result := merge(results)
	result.Stats.Vertices = g.VertexCount()
	result.Stats.Partitions = len(parts)
	result.Stats.Duration = elapsed

	hooks.OnSearchComplete(ctx, ModePartitioned, len(result.Solutions), result.Stats.Candidates, elapsed, nil)
	opts.Logger.Debug("search finished",
		"mode", ModePartitioned,
		"solutions", len(result.Solutions),
		"candidates", result.Stats.Candidates,
		"pruned", result.Stats.Pruned,
		"duration", elapsed)
	return result, nil
}

// runPartitions is the barrier: it returns only after every future has
// resolved, or after the first failure has cancelled the rest.
func runPartitions(ctx context.Context, g *graph.Graph, parts []Partition, exec Executor, opts Options) ([]TaskResult, error) {
	grp, gctx := errgroup.WithContext(ctx)
	hooks := observability.Search()

	futures := make([]Future, len(parts))
	for i, p := range parts {
		futures[i] = exec.Submit(gctx, Task{
			Graph:      g,
			Range:      p.Range,
			Prefix:     p.Prefix,
			CheckEvery: opts.CheckEvery,
		})
	}

	results := make([]TaskResult, len(parts))
	for i, p := range parts {
		grp.Go(func() (err error) {
			key := p.Key()
			start := time.Now()
			hooks.OnPartitionStart(gctx, key)
			defer func() {
				hooks.OnPartitionComplete(gctx, key, len(results[i].Solutions), time.Since(start), err)
			}()

			res, err := waitRecover(gctx, futures[i])
			if err != nil {
				opts.Logger.Debug("partition failed", "partition", key, "error", err)
				return apperrors.Wrap(apperrors.ErrCodeWorkerFailure, err, "partition %s", key)
			}
			results[i] = res
			opts.Logger.Debug("partition done", "partition", key, "solutions", len(res.Solutions), "candidates", res.Candidates)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, contextError(ctx)
		}
		return nil, err
	}
	return results, nil
}

// waitRecover waits on f and turns a panic in the task into an error.
func waitRecover(ctx context.Context, f Future) (res TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.ErrCodeInternal, "task panicked: %v", r)
		}
	}()
	if f == nil {
		return res, fmt.Errorf("executor returned no future")
	}
	return f.Wait(ctx)
}

func merge(results []TaskResult) *Result {
	total := 0
	for _, r := range results {
		total += len(r.Solutions)
	}
	out := &Result{Solutions: make([]arith.Weights, 0, total)}
	for _, r := range results {
		out.Solutions = append(out.Solutions, r.Solutions...)
		out.Stats.Candidates += r.Candidates
		out.Stats.Pruned += r.Pruned
	}
	return out
}
