package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/graph/gen"
	"github.com/matzehuels/arithgraph/pkg/observability"
	"github.com/matzehuels/arithgraph/pkg/search"
)

func mustGraph(t *testing.T, spec string) *graph.Graph {
	t.Helper()
	g, err := gen.Parse(spec)
	require.NoError(t, err)
	return g
}

// flakyExecutor fails the first fails submissions with err, then runs tasks inline.
type flakyExecutor struct {
	fails int32
	err   error
	calls atomic.Int32
}

func (f *flakyExecutor) Submit(ctx context.Context, t search.Task) search.Future {
	if f.calls.Add(1) <= f.fails {
		return failed(f.err)
	}
	return (&search.Inline{}).Submit(ctx, t)
}

type recordingHooks struct {
	observability.NoopDispatchHooks
	mu      sync.Mutex
	submits map[string]int
	results map[string]int
	retries int
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{submits: map[string]int{}, results: map[string]int{}}
}

func (h *recordingHooks) OnTaskSubmit(_ context.Context, executor, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.submits[executor]++
}

func (h *recordingHooks) OnTaskResult(_ context.Context, executor, _ string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results[executor]++
}

func (h *recordingHooks) OnRetry(context.Context, string, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retries++
}

func TestLocalMatchesSequential(t *testing.T) {
	cases := []struct {
		graph string
		r     enum.Range
	}{
		{"path:3", enum.Range{Min: 1, Max: 6}},
		{"cycle:4", enum.Range{Min: 1, Max: 5}},
		{"star:3", enum.Range{Min: 1, Max: 4}},
		{"bident:1", enum.Range{Min: 1, Max: 4}},
		{"empty:0", enum.Range{Min: 1, Max: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.graph, func(t *testing.T) {
			g := mustGraph(t, tc.graph)
			want, err := search.Sequential(t.Context(), g, tc.r, search.Options{})
			require.NoError(t, err)

			for _, prefixLen := range []int{1, 2} {
				got, err := search.Partitioned(t.Context(), g, tc.r, NewLocal(LocalOptions{Workers: 3}), search.Options{PrefixLen: prefixLen})
				require.NoError(t, err)
				require.Equal(t, want.Solutions, got.Solutions, "prefix length %d", prefixLen)
				require.Equal(t, want.Stats.Candidates, got.Stats.Candidates)
			}
		})
	}
}

func TestLocalDefaults(t *testing.T) {
	l := NewLocal(LocalOptions{})
	require.Positive(t, l.Workers())
	require.Equal(t, ExecutorLocal, l.Name())
}

func TestLocalRecoversPanic(t *testing.T) {
	// A nil graph makes the task panic inside the worker goroutine.
	l := NewLocal(LocalOptions{Workers: 1})
	_, err := l.Submit(t.Context(), search.Task{Range: enum.Range{Min: 1, Max: 2}}).Wait(t.Context())
	require.True(t, apperrors.Is(err, apperrors.ErrCodeInternal), "got %v", err)
}

func TestLocalHooks(t *testing.T) {
	hooks := newRecordingHooks()
	observability.SetDispatchHooks(hooks)
	t.Cleanup(observability.Reset)

	g := mustGraph(t, "path:3")
	_, err := search.Partitioned(t.Context(), g, enum.Range{Min: 1, Max: 4}, NewLocal(LocalOptions{Workers: 2}), search.Options{})
	require.NoError(t, err)
	require.Equal(t, 4, hooks.submits[ExecutorLocal])
	require.Equal(t, 4, hooks.results[ExecutorLocal])
}

func TestLocalCancelledWhileQueued(t *testing.T) {
	l := NewLocal(LocalOptions{Workers: 1})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := l.Submit(ctx, search.Task{Graph: mustGraph(t, "path:2"), Range: enum.Range{Min: 1, Max: 2}}).Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetry(t *testing.T) {
	g := mustGraph(t, "path:3")
	task := search.Task{Graph: g, Range: enum.Range{Min: 1, Max: 4}, Prefix: arith.Weights{1}}
	transient := Retryable(apperrors.New(apperrors.ErrCodeNetwork, "connection reset"))
	permanent := apperrors.New(apperrors.ErrCodeInvalidRange, "bad range")

	tests := []struct {
		name      string
		fails     int32
		err       error
		wantCalls int32
		wantErr   bool
	}{
		{"succeeds first time", 0, transient, 1, false},
		{"recovers after transient failures", 2, transient, 3, false},
		{"gives up after attempts", 5, transient, 3, true},
		{"does not retry permanent errors", 5, permanent, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyExecutor{fails: tt.fails, err: tt.err}
			exec := Retry(inner, RetryOptions{Attempts: 3, Delay: time.Millisecond})
			res, err := exec.Submit(t.Context(), task).Wait(t.Context())
			require.Equal(t, tt.wantCalls, inner.calls.Load())
			if tt.wantErr {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []arith.Weights{{1, 1, 1}, {1, 2, 1}}, res.Solutions)
		})
	}
}

func TestRetryStopsOnContext(t *testing.T) {
	inner := &flakyExecutor{fails: 10, err: Retryable(errors.New("down"))}
	exec := Retry(inner, RetryOptions{Attempts: 5, Delay: time.Hour})

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := exec.Submit(ctx, search.Task{Graph: mustGraph(t, "path:2"), Range: enum.Range{Min: 1, Max: 2}}).Wait(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, int32(1), inner.calls.Load())
}

func TestRetryHooksAndName(t *testing.T) {
	hooks := newRecordingHooks()
	observability.SetDispatchHooks(hooks)
	t.Cleanup(observability.Reset)

	inner := &flakyExecutor{fails: 1, err: Retryable(errors.New("down"))}
	exec := Retry(inner, RetryOptions{Delay: time.Millisecond})
	_, err := exec.Submit(t.Context(), search.Task{Graph: mustGraph(t, "path:2"), Range: enum.Range{Min: 1, Max: 2}}).Wait(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, hooks.retries)
	require.Equal(t, "custom", exec.Name())
	require.Equal(t, ExecutorLocal, Retry(NewLocal(LocalOptions{}), RetryOptions{}).Name())
}

func TestIsRetryable(t *testing.T) {
	base := errors.New("boom")
	require.False(t, IsRetryable(base))
	require.True(t, IsRetryable(Retryable(base)))
	require.True(t, IsRetryable(apperrors.Wrap(apperrors.ErrCodeWorkerFailure, Retryable(base), "partition")))
	require.NoError(t, Retryable(nil))
	require.ErrorIs(t, Retryable(base), base)
}
