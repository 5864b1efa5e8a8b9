package search

import (
	"context"
	"time"

	"github.com/matzehuels/arithgraph/pkg/enum"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/observability"
)

// Sequential searches the whole space [r.Min, r.Max]^n in the calling
// goroutine and returns the solutions in lexicographic order.
func Sequential(ctx context.Context, g *graph.Graph, r enum.Range, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Search()
	hooks.OnSearchStart(ctx, ModeSequential, g.VertexCount(), r.Min, r.Max)
	opts.Logger.Debug("search started", "mode", ModeSequential, "vertices", g.VertexCount(), "min", r.Min, "max", r.Max)

	res, err := RunTask(ctx, Task{Graph: g, Range: r, CheckEvery: opts.CheckEvery})
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnSearchComplete(ctx, ModeSequential, 0, res.Candidates, elapsed, err)
		return nil, err
	}

	result := &Result{
		Solutions: res.Solutions,
		Stats: Stats{
			Vertices:   g.VertexCount(),
			Candidates: res.Candidates,
			Pruned:     res.Pruned,
			Partitions: 1,
			Duration:   elapsed,
		},
	}
	hooks.OnSearchComplete(ctx, ModeSequential, len(result.Solutions), res.Candidates, elapsed, nil)
	opts.Logger.Debug("search finished",
		"mode", ModeSequential,
		"solutions", len(result.Solutions),
		"candidates", res.Candidates,
		"pruned", res.Pruned,
		"duration", elapsed)
	return result, nil
}
