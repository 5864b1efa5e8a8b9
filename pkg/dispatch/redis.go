package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/observability"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// Redis defaults.
const (
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisQueue  = "arithgraph:tasks"
	DefaultResultTTL   = 10 * time.Minute
	DefaultPollTimeout = time.Second
)

// RedisOptions configures both sides of the Redis work queue.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Queue is the list tasks are pushed to. Results go to "<Queue>:result:<id>".
	Queue string

	// ResultTTL is how long an unread result survives.
	ResultTTL time.Duration

	// PollTimeout is the blocking timeout of each BRPOP/BLPOP call. Between
	// polls the caller's context is checked.
	PollTimeout time.Duration

	Logger *log.Logger
}

func (o *RedisOptions) setDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultRedisAddr
	}
	if o.Queue == "" {
		o.Queue = DefaultRedisQueue
	}
	if o.ResultTTL <= 0 {
		o.ResultTTL = DefaultResultTTL
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// NewRedisClient connects to the server named by opts.
func NewRedisClient(opts RedisOptions) *redis.Client {
	opts.setDefaults()
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func resultKey(queue, id string) string { return queue + ":result:" + id }

// =============================================================================
// Coordinator Side
// =============================================================================

// RedisExecutor pushes tasks onto a Redis list and waits for workers to post
// results back.
type RedisExecutor struct {
	client redis.UniversalClient
	opts   RedisOptions
}

// NewRedisExecutor creates an executor on an existing client.
func NewRedisExecutor(client redis.UniversalClient, opts RedisOptions) *RedisExecutor {
	opts.setDefaults()
	return &RedisExecutor{client: client, opts: opts}
}

// Name returns "redis".
func (e *RedisExecutor) Name() string { return ExecutorRedis }

// Submit enqueues t with LPUSH. The future resolves when a worker pushes the
// result, or fails when ctx ends first.
func (e *RedisExecutor) Submit(ctx context.Context, t search.Task) search.Future {
	id := uuid.NewString()
	payload, err := json.Marshal(NewTaskMessage(id, t))
	if err != nil {
		return failed(apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode task %s", t.Key()))
	}

	p := newPromise()
	go func() {
		p.resolve(track(ctx, ExecutorRedis, id, func() (search.TaskResult, error) {
			if err := e.client.LPush(ctx, e.opts.Queue, payload).Err(); err != nil {
				if ctx.Err() != nil {
					return search.TaskResult{}, ctx.Err()
				}
				return search.TaskResult{}, Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "enqueue task %s", id))
			}
			e.opts.Logger.Debug("task enqueued", "task", id, "partition", t.Key(), "queue", e.opts.Queue)
			return e.await(ctx, id)
		}))
	}()
	return p
}

func (e *RedisExecutor) await(ctx context.Context, id string) (search.TaskResult, error) {
	key := resultKey(e.opts.Queue, id)
	for {
		if err := ctx.Err(); err != nil {
			return search.TaskResult{}, err
		}
		vals, err := e.client.BLPop(ctx, e.opts.PollTimeout, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return search.TaskResult{}, ctx.Err()
			}
			return search.TaskResult{}, apperrors.Wrap(apperrors.ErrCodeNetwork, err, "wait for result %s", id)
		}

		var msg ResultMessage
		if err := json.Unmarshal([]byte(vals[1]), &msg); err != nil {
			return search.TaskResult{}, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode result %s", id)
		}
		return msg.Result()
	}
}

// =============================================================================
// Worker Side
// =============================================================================

// RedisWorker pops tasks from the queue, runs them and pushes results.
type RedisWorker struct {
	client  redis.UniversalClient
	opts    RedisOptions
	workers int
}

// NewRedisWorker creates a worker running at most workers tasks at once.
func NewRedisWorker(client redis.UniversalClient, opts RedisOptions, workers int) *RedisWorker {
	opts.setDefaults()
	return &RedisWorker{client: client, opts: opts, workers: max(workers, 1)}
}

// Run consumes tasks until ctx is cancelled. Tasks in flight when ctx ends
// are abandoned; the coordinator sees them as cancelled.
func (w *RedisWorker) Run(ctx context.Context) error {
	logger := w.opts.Logger
	logger.Info("worker started", "queue", w.opts.Queue, "workers", w.workers)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(w.workers)

	var runErr error
	for gctx.Err() == nil {
		vals, err := w.client.BRPop(gctx, w.opts.PollTimeout, w.opts.Queue).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if gctx.Err() == nil {
				runErr = apperrors.Wrap(apperrors.ErrCodeNetwork, err, "pop task")
			}
			break
		}
		payload := vals[1]
		grp.Go(func() error {
			w.handle(gctx, payload)
			return nil
		})
	}

	_ = grp.Wait()
	logger.Info("worker stopped", "queue", w.opts.Queue)
	return runErr
}

func (w *RedisWorker) handle(ctx context.Context, payload string) {
	start := time.Now()
	msg, ok := process(ctx, []byte(payload))
	if !ok {
		w.opts.Logger.Warn("dropping malformed task", "bytes", len(payload))
		return
	}
	if msg.Error != nil && ctx.Err() != nil {
		return
	}
	var taskErr error
	if msg.Error != nil {
		taskErr = msg.Error.Err()
	}
	observability.Dispatch().OnTaskResult(ctx, WorkerRedis, msg.ID, time.Since(start), taskErr)

	out, err := json.Marshal(msg)
	if err != nil {
		w.opts.Logger.Error("encode result", "task", msg.ID, "error", err)
		return
	}

	key := resultKey(w.opts.Queue, msg.ID)
	pipe := w.client.TxPipeline()
	pipe.RPush(ctx, key, out)
	pipe.Expire(ctx, key, w.opts.ResultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		w.opts.Logger.Error("push result", "task", msg.ID, "error", err)
		return
	}
	if msg.Error != nil {
		w.opts.Logger.Warn("task failed", "task", msg.ID, "code", msg.Error.Code, "error", msg.Error.Message)
		return
	}
	w.opts.Logger.Debug("task done", "task", msg.ID, "solutions", len(msg.Solutions), "elapsed", time.Since(start))
}

// process runs one serialised task. It reports false when the payload has no
// usable task ID, since there is nowhere to send a reply.
func process(ctx context.Context, payload []byte) (ResultMessage, bool) {
	var msg TaskMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.ID == "" {
		return ResultMessage{}, false
	}
	t, err := msg.Task()
	if err != nil {
		return NewResultMessage(msg.ID, search.TaskResult{}, err), true
	}
	res, err := runRecover(ctx, t)
	return NewResultMessage(msg.ID, res, err), true
}
