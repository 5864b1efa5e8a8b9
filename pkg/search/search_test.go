package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/graph/gen"
)

// goExecutor runs every task in its own goroutine.
type goExecutor struct{}

func (goExecutor) Submit(ctx context.Context, t Task) Future {
	done := make(chan struct{})
	var res TaskResult
	var err error
	go func() {
		defer close(done)
		res, err = RunTask(ctx, t)
	}()
	return FutureFunc(func(wctx context.Context) (TaskResult, error) {
		select {
		case <-done:
			return res, err
		case <-wctx.Done():
			return TaskResult{}, wctx.Err()
		}
	})
}

// failingExecutor fails the partition whose key matches, and runs the rest inline.
type failingExecutor struct {
	key   string
	err   error
	panic bool
}

func (f failingExecutor) Submit(_ context.Context, t Task) Future {
	return FutureFunc(func(ctx context.Context) (TaskResult, error) {
		if t.Key() == f.key {
			if f.panic {
				panic("worker crashed")
			}
			return TaskResult{}, f.err
		}
		return RunTask(ctx, t)
	})
}

func mustGraph(t *testing.T, spec string) *graph.Graph {
	t.Helper()
	g, err := gen.Parse(spec)
	require.NoError(t, err)
	return g
}

// bruteForce checks every tuple directly from the definition.
func bruteForce(g *graph.Graph, r enum.Range) []arith.Weights {
	n := g.VertexCount()
	var out []arith.Weights
	w := make(arith.Weights, n)
	var rec func(i int)
	rec = func(i int) {
		if i == n {
			var d uint64
			for v := 0; v < n; v++ {
				var s uint64
				for _, u := range g.Neighbors(v) {
					s += w[u]
				}
				if s%w[v] != 0 {
					return
				}
				a, b := d, w[v]
				for b != 0 {
					a, b = b, a%b
				}
				d = a
			}
			if n == 0 || d == 1 {
				out = append(out, w.Clone())
			}
			return
		}
		for v := r.Min; v <= r.Max; v++ {
			w[i] = v
			rec(i + 1)
		}
	}
	rec(0)
	return out
}

func keys(ws []arith.Weights) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	sort.Strings(out)
	return out
}

func TestSequentialKnownResults(t *testing.T) {
	tests := []struct {
		name  string
		graph string
		r     enum.Range
		want  []arith.Weights
	}{
		{"K4 unit range", "complete:4", enum.Range{Min: 1, Max: 1}, []arith.Weights{{1, 1, 1, 1}}},
		{"P2", "path:2", enum.Range{Min: 1, Max: 10}, []arith.Weights{{1, 1}}},
		{"P3", "path:3", enum.Range{Min: 1, Max: 4}, []arith.Weights{{1, 1, 1}, {1, 2, 1}}},
		{"K4 only twos", "complete:4", enum.Range{Min: 2, Max: 2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Sequential(context.Background(), mustGraph(t, tt.graph), tt.r, Options{})
			require.NoError(t, err)
			require.Equal(t, keys(tt.want), keys(res.Solutions))
		})
	}
}

func TestK4Examples(t *testing.T) {
	g := mustGraph(t, "complete:4")
	res, err := Sequential(context.Background(), g, enum.Range{Min: 1, Max: 2}, Options{})
	require.NoError(t, err)

	found := map[string]bool{}
	for _, w := range res.Solutions {
		found[w.Key()] = true
	}
	require.True(t, found[arith.Weights{1, 1, 1, 1}.Key()])
	require.False(t, found[arith.Weights{2, 1, 1, 1}.Key()])
	require.False(t, found[arith.Weights{2, 2, 2, 2}.Key()])

	require.Equal(t, 4, res.Stats.Vertices)
	require.Equal(t, uint64(16), res.Stats.Candidates)
	require.Equal(t, uint64(1), res.Stats.Pruned)
}

func TestMatchesBruteForce(t *testing.T) {
	cases := []struct {
		graph string
		r     enum.Range
	}{
		{"path:4", enum.Range{Min: 1, Max: 6}},
		{"star:3", enum.Range{Min: 1, Max: 6}},
		{"cycle:4", enum.Range{Min: 1, Max: 5}},
		{"bident:1", enum.Range{Min: 1, Max: 5}},
		{"complete:3", enum.Range{Min: 2, Max: 7}},
		{"empty:2", enum.Range{Min: 1, Max: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.graph, func(t *testing.T) {
			g := mustGraph(t, tc.graph)
			res, err := Sequential(context.Background(), g, tc.r, Options{})
			require.NoError(t, err)
			require.Equal(t, keys(bruteForce(g, tc.r)), keys(res.Solutions))

			for i := 1; i < len(res.Solutions); i++ {
				require.Negative(t, res.Solutions[i-1].Compare(res.Solutions[i]), "not lexicographic at %d", i)
			}
		})
	}
}

func TestPartitionedMatchesSequential(t *testing.T) {
	graphs := []struct {
		spec string
		r    enum.Range
	}{
		{"path:4", enum.Range{Min: 1, Max: 6}},
		{"complete:4", enum.Range{Min: 1, Max: 4}},
		{"star:3", enum.Range{Min: 2, Max: 6}},
		{"bident:1", enum.Range{Min: 1, Max: 5}},
		{"tree:2,1", enum.Range{Min: 1, Max: 5}},
		{"path:1", enum.Range{Min: 1, Max: 3}},
	}
	executors := map[string]Executor{
		"inline": nil,
		"go":     goExecutor{},
	}

	for _, gc := range graphs {
		g := mustGraph(t, gc.spec)
		seq, err := Sequential(context.Background(), g, gc.r, Options{})
		require.NoError(t, err)

		for execName, exec := range executors {
			for _, prefix := range []int{1, 2, 3, 10} {
				name := fmt.Sprintf("%s/%s/prefix%d", gc.spec, execName, prefix)
				t.Run(name, func(t *testing.T) {
					par, err := Partitioned(context.Background(), g, gc.r, exec, Options{PrefixLen: prefix, CheckEvery: 7})
					require.NoError(t, err)
					require.Equal(t, keys(seq.Solutions), keys(par.Solutions))
					require.Equal(t, seq.Stats.Candidates, par.Stats.Candidates)
					require.Equal(t, seq.Stats.Pruned, par.Stats.Pruned)
					// Lexicographic partitions make the merged order equal too.
					require.Equal(t, len(seq.Solutions), len(par.Solutions))
					for i := range seq.Solutions {
						require.True(t, seq.Solutions[i].Equal(par.Solutions[i]))
					}
				})
			}
		}
	}
}

func TestZeroVertices(t *testing.T) {
	g, err := graph.New()
	require.NoError(t, err)
	r := enum.Range{Min: 1, Max: 5}

	seq, err := Sequential(context.Background(), g, r, Options{})
	require.NoError(t, err)
	require.Len(t, seq.Solutions, 1)
	require.Empty(t, seq.Solutions[0])

	par, err := Partitioned(context.Background(), g, r, nil, Options{})
	require.NoError(t, err)
	require.Len(t, par.Solutions, 1)
	require.Empty(t, par.Solutions[0])
	require.Equal(t, 1, par.Stats.Partitions)
}

func TestPartitionedWideRange(t *testing.T) {
	g := mustGraph(t, "empty:1")
	r := enum.Range{Min: 1, Max: MaxPartitions + 5}

	seq, err := Sequential(context.Background(), g, r, Options{})
	require.NoError(t, err)
	require.Equal(t, []arith.Weights{{1}}, seq.Solutions)

	par, err := Partitioned(context.Background(), g, r, nil, Options{PrefixLen: 1})
	require.NoError(t, err)
	require.Equal(t, seq.Solutions, par.Solutions)
	require.Equal(t, MaxPartitions+5, par.Stats.Partitions)
}

func TestInvalidRange(t *testing.T) {
	g := mustGraph(t, "complete:4")
	bad := enum.Range{Min: 5, Max: 3}

	_, err := Sequential(context.Background(), g, bad, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidRange), "got %v", err)

	_, err = Partitioned(context.Background(), g, bad, nil, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidRange), "got %v", err)

	// Zero vertices still validate the range first.
	empty, _ := graph.New()
	_, err = Sequential(context.Background(), empty, bad, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidRange), "got %v", err)
	_, err = Partitioned(context.Background(), empty, bad, nil, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidRange), "got %v", err)
}

func TestInvalidOptions(t *testing.T) {
	g := mustGraph(t, "path:2")
	r := enum.Range{Min: 1, Max: 2}

	_, err := Sequential(context.Background(), g, r, Options{CheckEvery: -1})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput), "got %v", err)

	_, err = Partitioned(context.Background(), g, r, nil, Options{PrefixLen: -1})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput), "got %v", err)
}

func TestWorkerFailure(t *testing.T) {
	g := mustGraph(t, "complete:3")
	r := enum.Range{Min: 1, Max: 4}
	cause := errors.New("connection reset")

	_, err := Partitioned(context.Background(), g, r, failingExecutor{key: "(2)", err: cause}, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeWorkerFailure), "got %v", err)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "(2)")
}

func TestWorkerPanic(t *testing.T) {
	g := mustGraph(t, "complete:3")
	r := enum.Range{Min: 1, Max: 4}

	_, err := Partitioned(context.Background(), g, r, failingExecutor{key: "(3)", panic: true}, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeWorkerFailure), "got %v", err)
	require.True(t, apperrors.Has(err, apperrors.ErrCodeInternal), "got %v", err)
	require.True(t, strings.Contains(err.Error(), "worker crashed"))
}

func TestOverflow(t *testing.T) {
	g := mustGraph(t, "star:2")
	top := uint64(math.MaxUint64)
	r := enum.Range{Min: top - 1, Max: top}

	_, err := Sequential(context.Background(), g, r, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeOverflow), "got %v", err)

	_, err = Partitioned(context.Background(), g, r, goExecutor{}, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeWorkerFailure), "got %v", err)
	require.True(t, apperrors.Has(err, apperrors.ErrCodeOverflow), "got %v", err)
}

func TestCancellation(t *testing.T) {
	g := mustGraph(t, "complete:4")
	r := enum.Range{Min: 1, Max: 20}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sequential(ctx, g, r, Options{})
	require.ErrorIs(t, err, context.Canceled)

	_, err = Partitioned(ctx, g, r, goExecutor{}, Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, apperrors.Is(err, apperrors.ErrCodeWorkerFailure))
}

func TestDeadline(t *testing.T) {
	g := mustGraph(t, "complete:4")
	r := enum.Range{Min: 1, Max: 20}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := Sequential(ctx, g, r, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeTimeout), "got %v", err)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = Partitioned(ctx, g, r, nil, Options{})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeTimeout), "got %v", err)
}

func TestCancelMidSearch(t *testing.T) {
	g := mustGraph(t, "path:8")
	r := enum.Range{Min: 1, Max: 30}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Sequential(ctx, g, r, Options{CheckEvery: 64})
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeTimeout), "got %v", err)
	require.Less(t, time.Since(start), 5*time.Second)
}
