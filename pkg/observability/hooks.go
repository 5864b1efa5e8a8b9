// Package observability lets a binary watch searches and task dispatch
// without the engine depending on a metrics backend.
//
// There are three hook families: [SearchHooks] for the drivers, [DispatchHooks]
// for executors and workers, and [HTTPHooks] for calls to remote workers. Each
// defaults to a no-op implementation until a binary installs its own at
// startup. [Prometheus] implements all three.
//
// Register hooks at application startup:
//
//	func main() {
//	    p := observability.NewPrometheus(prometheus.DefaultRegisterer)
//	    observability.SetSearchHooks(p)
//	    observability.SetDispatchHooks(p)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnPartitionStart(ctx, "(3)")
//	// ... run the partition ...
//	observability.Search().OnPartitionComplete(ctx, "(3)", solutions, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from the search drivers.
type SearchHooks interface {
	// Search events. mode is "sequential" or "partitioned".
	OnSearchStart(ctx context.Context, mode string, vertices int, minWeight, maxWeight uint64)
	OnSearchComplete(ctx context.Context, mode string, solutions int, candidates uint64, duration time.Duration, err error)

	// Partition events, keyed by the partition's prefix, e.g. "(3)".
	OnPartitionStart(ctx context.Context, partition string)
	OnPartitionComplete(ctx context.Context, partition string, solutions int, duration time.Duration, err error)
}

// =============================================================================
// Dispatch Hooks
// =============================================================================

// DispatchHooks receives events from task executors.
type DispatchHooks interface {
	// OnTaskSubmit records a task handed to an executor ("local", "http", "redis").
	OnTaskSubmit(ctx context.Context, executor, taskID string)

	// OnTaskResult records a finished task, successful or not.
	OnTaskResult(ctx context.Context, executor, taskID string, duration time.Duration, err error)

	// OnRetry records a retried attempt after a transient failure.
	OnRetry(ctx context.Context, executor string, attempt int, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP executor's calls to workers.
// host is the worker's host:port.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError covers requests that got no response at all.
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSearchStart(context.Context, string, int, uint64, uint64) {}
func (NoopSearchHooks) OnSearchComplete(context.Context, string, int, uint64, time.Duration, error) {
}
func (NoopSearchHooks) OnPartitionStart(context.Context, string)                               {}
func (NoopSearchHooks) OnPartitionComplete(context.Context, string, int, time.Duration, error) {}

// NoopDispatchHooks is a no-op implementation of DispatchHooks.
type NoopDispatchHooks struct{}

func (NoopDispatchHooks) OnTaskSubmit(context.Context, string, string)                       {}
func (NoopDispatchHooks) OnTaskResult(context.Context, string, string, time.Duration, error) {}
func (NoopDispatchHooks) OnRetry(context.Context, string, int, error)                        {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	searchHooks   SearchHooks   = NoopSearchHooks{}
	dispatchHooks DispatchHooks = NoopDispatchHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any search runs.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// SetDispatchHooks registers custom dispatch hooks.
func SetDispatchHooks(h DispatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dispatchHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Dispatch returns the registered dispatch hooks.
func Dispatch() DispatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dispatchHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset reinstalls the no-op hooks. Tests that install hooks call it in
// t.Cleanup.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	searchHooks = NoopSearchHooks{}
	dispatchHooks = NoopDispatchHooks{}
	httpHooks = NoopHTTPHooks{}
}
