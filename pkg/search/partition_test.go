package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

func TestPartitionsFirstCoordinate(t *testing.T) {
	r := enum.Range{Min: 3, Max: 7}
	parts, err := Partitions(r, 4, 1)
	require.NoError(t, err)
	require.Len(t, parts, 5)
	for i, p := range parts {
		require.Equal(t, i, p.Index)
		require.Equal(t, arith.Weights{r.Min + uint64(i)}, p.Prefix)
	}
	require.Equal(t, "(3)", parts[0].Key())
}

func TestPartitionsClampPrefix(t *testing.T) {
	parts, err := Partitions(enum.Range{Min: 1, Max: 3}, 2, 5)
	require.NoError(t, err)
	require.Len(t, parts, 9)
	require.Len(t, parts[0].Prefix, 2)

	parts, err = Partitions(enum.Range{Min: 1, Max: 3}, 0, 1)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Empty(t, parts[0].Prefix)
}

func TestPartitionsDisjointAndCover(t *testing.T) {
	r := enum.Range{Min: 1, Max: 3}
	const n = 3

	for _, prefixLen := range []int{1, 2, 3} {
		parts, err := Partitions(r, n, prefixLen)
		require.NoError(t, err)

		e, err := enum.New(r, n)
		require.NoError(t, err)
		for w := range e.All() {
			owners := 0
			for _, p := range parts {
				if p.Contains(w) {
					owners++
				}
			}
			require.Equal(t, 1, owners, "tuple %v with prefix length %d", w, prefixLen)
		}

		total := uint64(0)
		for _, p := range parts {
			pe, err := enum.New(r, n, enum.WithPrefix(p.Prefix))
			require.NoError(t, err)
			c, err := pe.Count()
			require.NoError(t, err)
			total += c
		}
		size, err := r.Size(n)
		require.NoError(t, err)
		require.Equal(t, size, total)
	}
}

func TestPartitionContains(t *testing.T) {
	p := Partition{Prefix: arith.Weights{2, 1}, Range: enum.Range{Min: 1, Max: 3}}
	require.True(t, p.Contains(arith.Weights{2, 1, 3}))
	require.False(t, p.Contains(arith.Weights{2, 2, 3}))
	require.False(t, p.Contains(arith.Weights{2, 1, 4}))
	require.False(t, p.Contains(arith.Weights{2}))
}

func TestPartitionsWideRange(t *testing.T) {
	r := enum.Range{Min: 1, Max: MaxPartitions + 5}

	parts, err := Partitions(r, 2, 1)
	require.NoError(t, err)
	require.Len(t, parts, MaxPartitions+5)
	require.Equal(t, arith.Weights{MaxPartitions + 5}, parts[len(parts)-1].Prefix)

	_, err = Partitions(r, 2, 2)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput), "got %v", err)
}

func TestPartitionsErrors(t *testing.T) {
	_, err := Partitions(enum.Range{Min: 5, Max: 3}, 3, 1)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidRange), "got %v", err)

	_, err = Partitions(enum.Range{Min: 1, Max: 100}, 5, 4)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput), "got %v", err)

	_, err = Partitions(enum.Range{Min: 1, Max: 2}, 3, -1)
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput), "got %v", err)
}

func TestRunTaskPrefix(t *testing.T) {
	g := mustGraph(t, "path:3")
	res, err := RunTask(t.Context(), Task{Graph: g, Range: enum.Range{Min: 1, Max: 4}, Prefix: arith.Weights{1}})
	require.NoError(t, err)
	require.Equal(t, []arith.Weights{{1, 1, 1}, {1, 2, 1}}, res.Solutions)
	require.Equal(t, uint64(16), res.Candidates)

	res, err = RunTask(t.Context(), Task{Graph: g, Range: enum.Range{Min: 1, Max: 4}, Prefix: arith.Weights{2}})
	require.NoError(t, err)
	require.Empty(t, res.Solutions)

	_, err = RunTask(t.Context(), Task{Graph: g, Range: enum.Range{Min: 1, Max: 4}, Prefix: arith.Weights{9}})
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput), "got %v", err)
}

// cancelAfterFirstCheck is a context that reports cancellation from the
// second Err call on, so RunTask's up-front check passes.
type cancelAfterFirstCheck struct {
	context.Context
	calls int
}

func (c *cancelAfterFirstCheck) Err() error {
	c.calls++
	if c.calls > 1 {
		return context.Canceled
	}
	return nil
}

func TestRunTaskCancelsDuringPrunedRun(t *testing.T) {
	g := mustGraph(t, "empty:2")
	ctx := &cancelAfterFirstCheck{Context: t.Context()}

	// (6,2), (6,3) and (6,4) all share a factor and are pruned before (6,5).
	res, err := RunTask(ctx, Task{
		Graph:      g,
		Range:      enum.Range{Min: 2, Max: 6},
		Prefix:     arith.Weights{6},
		CheckEvery: 2,
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, uint64(2), res.Candidates)
	require.Empty(t, res.Solutions)
}

func TestRunTaskZeroVertices(t *testing.T) {
	g := mustGraph(t, "empty:0")
	res, err := RunTask(t.Context(), Task{Graph: g, Range: enum.Range{Min: 1, Max: 3}})
	require.NoError(t, err)
	require.Equal(t, []arith.Weights{{}}, res.Solutions)
	require.Equal(t, uint64(1), res.Candidates)
}
