package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

const namespace = "arithgraph"

// Prometheus implements SearchHooks, DispatchHooks and HTTPHooks by recording
// Prometheus metrics.
type Prometheus struct {
	searches          *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	candidates        prometheus.Counter
	solutions         prometheus.Counter
	partitions        *prometheus.CounterVec
	partitionDuration prometheus.Histogram
	inflight          prometheus.Gauge
	tasks             *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	retries           *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

var (
	_ SearchHooks   = (*Prometheus)(nil)
	_ DispatchHooks = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)

// NewPrometheus registers arithgraph metrics with reg and returns hooks that
// update them. Pass prometheus.NewRegistry() in tests to avoid collisions.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches finished, by mode and result code.",
		}, []string{"mode", "code"}),
		searchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of searches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12), // 1ms to ~70min
		}, []string{"mode"}),
		candidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Weight tuples visited by finished searches.",
		}),
		solutions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solutions_total",
			Help:      "Arithmetic structures found by finished searches.",
		}),
		partitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_total",
			Help:      "Partitions finished, by result code.",
		}, []string{"code"}),
		partitionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "partition_duration_seconds",
			Help:      "Duration of single partitions.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partitions_inflight",
			Help:      "Partitions currently running.",
		}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Tasks finished by executors, by executor and result code.",
		}, []string{"executor", "code"}),
		taskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time from submit to result, by executor.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}, []string{"executor"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_retries_total",
			Help:      "Retried task attempts, by executor.",
		}, []string{"executor"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "HTTP requests to remote workers, by host and status.",
		}, []string{"host", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "HTTP request latency to remote workers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
	}
}

// codeLabel maps an error to a low-cardinality label value.
func codeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	if errors.Is(err, context.Canceled) {
		return "CANCELED"
	}
	return "ERROR"
}

func (p *Prometheus) OnSearchStart(context.Context, string, int, uint64, uint64) {}

func (p *Prometheus) OnSearchComplete(_ context.Context, mode string, solutions int, candidates uint64, d time.Duration, err error) {
	p.searches.WithLabelValues(mode, codeLabel(err)).Inc()
	p.searchDuration.WithLabelValues(mode).Observe(d.Seconds())
	p.candidates.Add(float64(candidates))
	p.solutions.Add(float64(solutions))
}

func (p *Prometheus) OnPartitionStart(context.Context, string) { p.inflight.Inc() }

func (p *Prometheus) OnPartitionComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	p.inflight.Dec()
	p.partitions.WithLabelValues(codeLabel(err)).Inc()
	p.partitionDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnTaskSubmit(context.Context, string, string) {}

func (p *Prometheus) OnTaskResult(_ context.Context, executor, _ string, d time.Duration, err error) {
	p.tasks.WithLabelValues(executor, codeLabel(err)).Inc()
	p.taskDuration.WithLabelValues(executor).Observe(d.Seconds())
}

func (p *Prometheus) OnRetry(_ context.Context, executor string, _ int, _ error) {
	p.retries.WithLabelValues(executor).Inc()
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(host, statusLabel(status)).Inc()
	p.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.httpRequests.WithLabelValues(host, "error").Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 200 && status < 300:
		return "2xx"
	default:
		return "other"
	}
}
