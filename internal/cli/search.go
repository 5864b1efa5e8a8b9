package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/arithgraph/pkg/config"
	"github.com/matzehuels/arithgraph/pkg/dispatch"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// searchOpts holds the flags of the search command. Flags left unset fall
// back to the [search] section of the config file.
type searchOpts struct {
	min, max    uint64        // weight range
	executor    string        // inline, local, http, redis
	workers     int           // local goroutines or HTTP requests in flight
	workerURLs  []string      // HTTP worker base URLs
	prefixLen   int           // fixed leading coordinates per partition
	retries     int           // extra attempts for transient remote failures
	timeout     time.Duration // whole-search deadline
	format      string        // table, lines, json, count
	sequential  bool          // bypass partitioning entirely
	interactive bool          // browse results in a TUI
	noProgress  bool          // suppress the spinner
}

func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOpts{format: outTable}

	cmd := &cobra.Command{
		Use:   "search GRAPH",
		Short: "Enumerate the arithmetic structures of a graph",
		Long: `Search every weighting of GRAPH with weights in [min, max] and print those
that are arithmetic structures: the weights are coprime and every weight divides
the sum of its neighbours' weights.

The weight space is split into partitions by fixing the first coordinates and
the partitions are run by the chosen executor. Results are identical for every
executor and partitioning.

` + graphArgHelp,
		Example: `  arithgraph search path:4 --max 6
  arithgraph search bident:2 --max 20 --executor local --workers 8
  arithgraph search graph.yaml --executor http --worker http://10.0.0.5:8080 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.applyConfig(cmd, cfg)
			if err := validateOutput(opts.format); err != nil {
				return err
			}
			return c.runSearch(cmd, args[0], opts, cfg)
		},
	}

	f := cmd.Flags()
	f.Uint64Var(&opts.min, "min", 1, "smallest weight")
	f.Uint64Var(&opts.max, "max", 10, "largest weight")
	f.StringVarP(&opts.executor, "executor", "e", config.ExecutorLocal, "where partitions run: inline, local, http, redis")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent partitions (0 = number of CPUs, or one per HTTP worker)")
	f.StringSliceVar(&opts.workerURLs, "worker", nil, "HTTP worker URL (repeatable)")
	f.IntVar(&opts.prefixLen, "prefix-len", search.DefaultPrefixLen, "coordinates fixed per partition")
	f.IntVar(&opts.retries, "retries", 0, "retry transient remote failures this many times")
	f.DurationVar(&opts.timeout, "timeout", 0, "abort the search after this long (0 = no limit)")
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: table, lines, json, count")
	f.BoolVar(&opts.sequential, "sequential", false, "run a single sequential scan instead of partitions")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse solutions interactively")
	f.BoolVar(&opts.noProgress, "no-progress", false, "do not show a progress spinner")

	return cmd
}

// applyConfig fills flags the user did not set from the configuration.
func (o *searchOpts) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if !changed("min") {
		o.min = cfg.Search.MinWeight
	}
	if !changed("max") {
		o.max = cfg.Search.MaxWeight
	}
	if !changed("executor") {
		o.executor = cfg.Search.Executor
	}
	if !changed("workers") {
		o.workers = cfg.Search.Workers
	}
	if !changed("worker") {
		o.workerURLs = cfg.HTTP.Workers
	}
	if !changed("prefix-len") {
		o.prefixLen = cfg.Search.PrefixLen
	}
	if !changed("retries") {
		o.retries = cfg.Search.Retries
	}
	if !changed("timeout") {
		o.timeout = cfg.Search.Timeout
	}
}

func (c *CLI) runSearch(cmd *cobra.Command, arg string, opts searchOpts, cfg *config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	errOut := cmd.ErrOrStderr()

	g, err := loadGraph(arg)
	if err != nil {
		return err
	}
	r := enum.Range{Min: opts.min, Max: opts.max}
	if err := r.Validate(); err != nil {
		return err
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	sopts := search.Options{PrefixLen: opts.prefixLen, CheckEvery: cfg.Search.CheckEvery, Logger: logger}
	exec, closeExec, err := newExecutor(cfg, opts, logger)
	if err != nil {
		return err
	}
	defer closeExec()

	mode := opts.executor
	if opts.sequential {
		mode = search.ModeSequential
	}
	printInfo(errOut, "Searching %s over weights %s..%s (%s)",
		StyleHighlight.Render(arg), StyleNumber.Render(fmtUint(r.Min)), StyleNumber.Render(fmtUint(r.Max)), StyleDim.Render(mode))
	if size, err := r.Size(g.VertexCount()); err == nil {
		logger.Debug("search space", "vertices", g.VertexCount(), "edges", g.EdgeCount(), "candidates", size)
	}

	spin := newSpinner(ctx, errOut, "searching")
	if !opts.noProgress && !opts.interactive {
		spin.Start()
	}
	defer spin.Stop()

	var res *search.Result
	if opts.sequential {
		res, err = search.Sequential(ctx, g, r, sopts)
	} else {
		res, err = search.Partitioned(ctx, g, r, exec, sopts)
	}
	if err != nil {
		spin.StopWithError("search failed: %s", apperrors.UserMessage(err))
		return err
	}
	spin.StopWithSuccess("Found %s", plural(len(res.Solutions), "arithmetic structure"))

	if opts.interactive {
		_, err := tea.NewProgram(newBrowser(g, res.Solutions), tea.WithContext(ctx)).Run()
		return err
	}
	if err := writeResult(cmd.OutOrStdout(), opts.format, g, r, res); err != nil {
		return err
	}
	if opts.format == outTable {
		printStats(errOut, res)
	}
	return nil
}

// newExecutor builds the executor named in opts. The returned function
// releases its resources.
func newExecutor(cfg *config.Config, opts searchOpts, logger *log.Logger) (search.Executor, func(), error) {
	nop := func() {}
	var (
		exec      search.Executor
		closeExec = nop
	)

	switch opts.executor {
	case config.ExecutorInline:
		return &search.Inline{}, nop, nil
	case config.ExecutorLocal:
		return dispatch.NewLocal(dispatch.LocalOptions{Workers: opts.workers, Logger: logger}), nop, nil
	case config.ExecutorHTTP:
		hopts := cfg.HTTPOptions(logger)
		hopts.Workers = opts.workerURLs
		hopts.MaxInflight = opts.workers
		h, err := dispatch.NewHTTPExecutor(hopts)
		if err != nil {
			return nil, nop, err
		}
		exec = h
	case config.ExecutorRedis:
		ropts := cfg.RedisOptions(logger)
		client := dispatch.NewRedisClient(ropts)
		exec = dispatch.NewRedisExecutor(client, ropts)
		closeExec = func() { _ = client.Close() }
	default:
		return nil, nop, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown executor %q", opts.executor)
	}

	if opts.retries > 0 {
		exec = dispatch.Retry(exec, dispatch.RetryOptions{Attempts: opts.retries + 1, Logger: logger})
	}
	return exec, closeExec, nil
}
