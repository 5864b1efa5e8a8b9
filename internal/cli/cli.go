// Package cli implements the arithgraph command-line interface.
//
// # Commands
//
//   - search: enumerate the arithmetic structures of a graph
//   - check: explain whether one weighting is an arithmetic structure
//   - graph: generate, convert or inspect graphs
//   - render: draw a graph with its weights
//   - worker: serve search tasks over HTTP or from a Redis queue
//   - config: show or initialise the configuration file
//
// Graphs are given either as a generator spec ("path:5", "tree:2,3") or as a
// JSON/YAML node-link file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and handed to the search and dispatch
// packages through their options.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/arithgraph/pkg/buildinfo"
	"github.com/matzehuels/arithgraph/pkg/config"
)

// appName is the application name used for display and completion scripts.
const appName = "arithgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Arithgraph searches graphs for arithmetic structures",
		Long: `Arithgraph enumerates the arithmetic structures of a graph: positive integer
vertex weights, coprime as a whole, where every weight divides the sum of its
neighbours' weights. The search can run in-process or be spread over HTTP or
Redis workers.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/arithgraph/config.toml)")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.workerCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("configuration loaded", "path", c.configPath, "executor", cfg.Search.Executor)
	c.cfg = cfg
	return cfg, nil
}
