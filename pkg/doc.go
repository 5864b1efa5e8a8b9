// Package pkg provides the libraries behind arithgraph.
//
// # Overview
//
// An arithmetic structure on a finite simple graph is an assignment of
// positive integer weights to its vertices such that every weight divides the
// sum of its neighbours' weights and the weights have no common factor
// greater than one. arithgraph enumerates every such assignment with weights
// in a bounded range.
//
// # Architecture
//
//	[graph], [graph/gen]     topology, node-link files, generators
//	         ↓
//	[arith]                  weights, validation, smoothness
//	         ↓
//	[enum]                   lexicographic candidates with prefix pruning
//	         ↓
//	[search]                 sequential scan, partitioned search over an Executor
//	         ↓
//	[dispatch]               local, HTTP and Redis executors, worker side
//
// [config] loads settings, [render] draws weighted graphs, [errors] carries
// coded errors across all of them and [observability] exposes hooks that
// [dispatch] and [search] call.
//
// # Quick Start
//
//	g, _ := gen.Parse("bident:2")
//	res, err := search.Partitioned(ctx, g, enum.Range{Min: 1, Max: 12},
//	    dispatch.NewLocal(dispatch.LocalOptions{}), search.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, w := range res.Solutions {
//	    fmt.Println(w)
//	}
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/graph
// [graph/gen]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/graph/gen
// [arith]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/arith
// [enum]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/enum
// [search]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/search
// [dispatch]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/dispatch
// [config]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/config
// [render]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/arithgraph/pkg/observability
package pkg
