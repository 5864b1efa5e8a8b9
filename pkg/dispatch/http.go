package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/arithgraph/pkg/buildinfo"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/observability"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// HTTP endpoints served by [NewHandler].
const (
	TasksPath   = "/v1/tasks"
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

const (
	// DefaultHTTPTimeout bounds a single task request made by HTTPExecutor.
	DefaultHTTPTimeout = 10 * time.Minute

	// DefaultMaxBody is the largest task body a worker accepts.
	DefaultMaxBody = 8 << 20

	maxResultBody = 256 << 20
)

// =============================================================================
// Worker Server
// =============================================================================

// HandlerOptions configures the worker HTTP handler.
type HandlerOptions struct {
	// Logger receives request logs. Nil discards them.
	Logger *log.Logger

	// Timeout bounds each task. Zero means no limit beyond the request context.
	Timeout time.Duration

	// Workers bounds concurrently running tasks. Zero means runtime.NumCPU().
	Workers int

	// MaxBody bounds the request body. Zero means DefaultMaxBody.
	MaxBody int64

	// Gatherer backs /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

type handler struct {
	logger  *log.Logger
	timeout time.Duration
	sem     *semaphore.Weighted
	maxBody int64
}

// NewHandler returns the worker's HTTP API:
//
//	POST /v1/tasks   run one task, reply with a ResultMessage
//	GET  /healthz    liveness
//	GET  /metrics    Prometheus metrics
func NewHandler(opts HandlerOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	h := &handler{
		logger:  opts.Logger,
		timeout: opts.Timeout,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		maxBody: opts.MaxBody,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Post(TasksPath, h.runTask)
	return r
}

func (h *handler) runTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var msg TaskMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&msg); err != nil {
		err = apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode task")
		h.reply(w, http.StatusBadRequest, NewResultMessage(r.Header.Get(TaskHeader), search.TaskResult{}, err))
		return
	}
	if msg.ID == "" {
		msg.ID = r.Header.Get(TaskHeader)
	}
	logger := h.logger.With("task", msg.ID)

	t, err := msg.Task()
	if err != nil {
		h.reply(w, http.StatusBadRequest, NewResultMessage(msg.ID, search.TaskResult{}, err))
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		logger.Warn("task rejected", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer h.sem.Release(1)

	res, err := track(ctx, WorkerHTTP, msg.ID, func() (search.TaskResult, error) {
		return runRecover(ctx, t)
	})
	if err != nil && r.Context().Err() != nil {
		logger.Debug("client went away", "partition", t.Key())
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	out := NewResultMessage(msg.ID, res, err)
	status := http.StatusOK
	if out.Error != nil {
		status = statusFor(out.Error.Code)
		logger.Warn("task failed", "partition", t.Key(), "code", out.Error.Code, "error", out.Error.Message)
	} else {
		logger.Debug("task done", "partition", t.Key(), "solutions", len(out.Solutions), "elapsed", time.Since(start))
	}
	h.reply(w, status, out)
}

func (h *handler) reply(w http.ResponseWriter, status int, msg ResultMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(TaskHeader, msg.ID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		h.logger.Debug("write result", "task", msg.ID, "error", err)
	}
}

// statusFor maps a task error to an HTTP status. Deterministic failures of the
// computation itself (OVERFLOW) are still a successful request: the envelope
// carries the error and the coordinator must not retry it.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeOverflow:
		return http.StatusOK
	case apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidGraph:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidRange, apperrors.ErrCodeInvalidWeights:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// HTTP Executor
// =============================================================================

// HTTPOptions configures an HTTPExecutor.
type HTTPOptions struct {
	// Workers lists worker base URLs, e.g. "http://10.0.0.5:8080".
	Workers []string

	// Timeout bounds one task request. Zero means DefaultHTTPTimeout.
	// Ignored when Client is set.
	Timeout time.Duration

	// Client overrides the HTTP client.
	Client *http.Client

	// MaxInflight bounds outstanding requests across all workers.
	// Zero means one per worker URL.
	MaxInflight int

	Logger *log.Logger
}

// HTTPExecutor posts tasks to remote workers round-robin.
type HTTPExecutor struct {
	workers []*url.URL
	client  *http.Client
	sem     *semaphore.Weighted
	next    atomic.Uint64
	logger  *log.Logger
}

// NewHTTPExecutor validates the worker URLs and creates an executor.
func NewHTTPExecutor(opts HTTPOptions) (*HTTPExecutor, error) {
	if len(opts.Workers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "http executor: no worker URLs")
	}
	workers := make([]*url.URL, 0, len(opts.Workers))
	for _, raw := range opts.Workers {
		if err := apperrors.ValidateURL(raw); err != nil {
			return nil, err
		}
		u, err := url.Parse(strings.TrimRight(raw, "/"))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "worker URL %q", raw)
		}
		workers = append(workers, u)
	}
	if opts.Client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		opts.Client = &http.Client{Timeout: timeout}
	}
	if opts.MaxInflight <= 0 {
		opts.MaxInflight = len(workers)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &HTTPExecutor{
		workers: workers,
		client:  opts.Client,
		sem:     semaphore.NewWeighted(int64(opts.MaxInflight)),
		logger:  opts.Logger,
	}, nil
}

// Name returns "http".
func (e *HTTPExecutor) Name() string { return ExecutorHTTP }

// Submit sends t to the next worker. The returned future resolves with the
// worker's result or a coded error; transport failures and 5xx replies are
// marked [Retryable].
func (e *HTTPExecutor) Submit(ctx context.Context, t search.Task) search.Future {
	id := uuid.NewString()
	body, err := json.Marshal(NewTaskMessage(id, t))
	if err != nil {
		return failed(apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode task %s", t.Key()))
	}
	worker := e.workers[(e.next.Add(1)-1)%uint64(len(e.workers))]

	p := newPromise()
	go func() {
		p.resolve(track(ctx, ExecutorHTTP, id, func() (search.TaskResult, error) {
			if err := e.sem.Acquire(ctx, 1); err != nil {
				return search.TaskResult{}, err
			}
			defer e.sem.Release(1)
			e.logger.Debug("posting task", "task", id, "partition", t.Key(), "worker", worker.Host)
			return e.post(ctx, worker, id, body)
		}))
	}()
	return p
}

func (e *HTTPExecutor) post(ctx context.Context, worker *url.URL, id string, body []byte) (search.TaskResult, error) {
	endpoint := worker.JoinPath(TasksPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return search.TaskResult{}, apperrors.Wrap(apperrors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TaskHeader, id)
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, worker.Host, TasksPath)
	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return search.TaskResult{}, ctx.Err()
		}
		hooks.OnError(ctx, req.Method, worker.Host, TasksPath, err)
		return search.TaskResult{}, Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "post task to %s", worker.Host))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, worker.Host, TasksPath, resp.StatusCode, time.Since(start))

	var msg ResultMessage
	decErr := json.NewDecoder(io.LimitReader(resp.Body, maxResultBody)).Decode(&msg)
	if err := checkStatus(worker.Host, resp.StatusCode, msg, decErr); err != nil {
		return search.TaskResult{}, err
	}
	if msg.ID != id {
		return search.TaskResult{}, apperrors.New(apperrors.ErrCodeInvalidFormat, "worker %s answered task %q, want %q", worker.Host, msg.ID, id)
	}
	return msg.Result()
}

func checkStatus(host string, code int, msg ResultMessage, decErr error) error {
	switch {
	case code >= 500:
		err := apperrors.New(apperrors.ErrCodeNetwork, "worker %s: status %d", host, code)
		if decErr == nil && msg.Error != nil {
			err.Cause = msg.Error.Err()
		}
		return Retryable(err)
	case code != http.StatusOK:
		if decErr == nil && msg.Error != nil {
			return msg.Error.Err()
		}
		return apperrors.New(apperrors.ErrCodeNetwork, "worker %s: status %d", host, code)
	case decErr != nil:
		if errors.Is(decErr, io.EOF) {
			decErr = io.ErrUnexpectedEOF
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, decErr, "decode result from %s", host)
	}
	return nil
}
