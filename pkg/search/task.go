package search

import (
	"context"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

// Task is one unit of work: every tuple over Range that starts with Prefix.
// The graph is shared read-only between tasks.
type Task struct {
	Graph  *graph.Graph
	Range  enum.Range
	Prefix arith.Weights

	// CheckEvery is the number of candidates between context checks.
	// Zero means DefaultCheckEvery.
	CheckEvery int
}

// Key identifies the task by its prefix, e.g. "(3)".
func (t Task) Key() string { return t.Prefix.String() }

// TaskResult is what a task reports back to the coordinator.
type TaskResult struct {
	Solutions  []arith.Weights
	Candidates uint64
	Pruned     uint64
}

// RunTask enumerates the task's subspace, drops tuples whose GCD is not 1 and
// keeps those that pass the divisibility test. Solutions are returned in
// lexicographic order.
//
// A graph with no vertices has exactly one weighting, the empty one, and it is
// reported as a solution. The context is checked every CheckEvery candidates,
// pruned ones included.
func RunTask(ctx context.Context, t Task) (TaskResult, error) {
	var res TaskResult
	if err := t.Range.Validate(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, contextError(ctx)
	}

	checkEvery := uint64(t.CheckEvery)
	if checkEvery == 0 {
		checkEvery = DefaultCheckEvery
	}
	next := checkEvery

	// Set once cancellation is seen; the filter lets the tuple through so the
	// loop below can stop.
	var cancelled bool
	keep := func(w arith.Weights) bool {
		res.Candidates++
		if res.Candidates >= next {
			next = res.Candidates + checkEvery
			if ctx.Err() != nil {
				cancelled = true
				return true
			}
		}
		if arith.Coprime(w) {
			return true
		}
		res.Pruned++
		return false
	}
	e, err := enum.New(t.Range, t.Graph.VertexCount(), enum.WithPrefix(t.Prefix), enum.WithFilter(keep))
	if err != nil {
		return res, err
	}

	eval := arith.NewEvaluator(t.Graph)
	for w := range e.All() {
		if cancelled {
			return res, contextError(ctx)
		}
		ok, err := eval.Accept(w)
		if err != nil {
			return res, err
		}
		if ok {
			res.Solutions = append(res.Solutions, w.Clone())
		}
	}
	return res, nil
}
