package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/arithgraph/pkg/dispatch"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/observability"
)

const shutdownGrace = 10 * time.Second

func (c *CLI) workerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a search worker",
		Long: `Run a worker that executes search partitions for a coordinator started with
"arithgraph search --executor http" or "--executor redis".`,
	}
	cmd.AddCommand(c.workerHTTPCommand())
	cmd.AddCommand(c.workerRedisCommand())
	return cmd
}

func (c *CLI) workerHTTPCommand() *cobra.Command {
	var (
		listen      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve search tasks over HTTP",
		Long: `Serve POST ` + dispatch.TasksPath + ` for coordinators, with ` + dispatch.HealthPath + ` and
Prometheus metrics on ` + dispatch.MetricsPath + `.`,
		Example: `  arithgraph worker http --listen :8080 --concurrency 8`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("listen") {
				listen = cfg.HTTP.Listen
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.HTTP.Concurrency
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			reg := newMetricsRegistry()
			handler := dispatch.NewHandler(dispatch.HandlerOptions{
				Logger:   logger,
				Timeout:  cfg.HTTP.Timeout,
				Workers:  concurrency,
				Gatherer: reg,
			})

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "listen on %s", listen)
			}
			printInfo(cmd.ErrOrStderr(), "Worker listening on %s", StyleHighlight.Render(ln.Addr().String()))
			return serve(ctx, &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}, ln)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "address to listen on")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "tasks run at once (0 = number of CPUs)")
	return cmd
}

func (c *CLI) workerRedisCommand() *cobra.Command {
	var (
		workers     int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:     "redis",
		Short:   "Consume search tasks from a Redis queue",
		Example: `  ARITHGRAPH_REDIS_ADDR=redis:6379 arithgraph worker redis --workers 8`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Search.Workers
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			reg := newMetricsRegistry()
			if metricsAddr != "" {
				ln, err := net.Listen("tcp", metricsAddr)
				if err != nil {
					return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "listen on %s", metricsAddr)
				}
				srv := &http.Server{
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 10 * time.Second,
				}
				go func() {
					if err := serve(ctx, srv, ln); err != nil {
						logger.Error("metrics server", "err", err)
					}
				}()
				logger.Debug("serving metrics", "addr", ln.Addr().String())
			}

			ropts := cfg.RedisOptions(logger)
			client := dispatch.NewRedisClient(ropts)
			defer client.Close()
			if err := client.Ping(ctx).Err(); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "connect to redis at %s", ropts.Addr)
			}

			printInfo(cmd.ErrOrStderr(), "Worker consuming %s on %s",
				StyleHighlight.Render(ropts.Queue), StyleHighlight.Render(ropts.Addr))
			err = dispatch.NewRedisWorker(client, ropts, workers).Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "tasks run at once (0 = number of CPUs)")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	return cmd
}

// newMetricsRegistry returns a registry with runtime collectors and the
// search, dispatch and HTTP hooks installed.
func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registerHooks(reg)
	return reg
}

func registerHooks(reg prometheus.Registerer) {
	p := observability.NewPrometheus(reg)
	observability.SetSearchHooks(p)
	observability.SetDispatchHooks(p)
	observability.SetHTTPHooks(p)
}

// serve runs srv on ln until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
