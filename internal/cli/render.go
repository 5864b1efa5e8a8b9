package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string // output file; its extension picks the format
	format        string // overrides the extension
	weights       string // "(1,2,1)"; empty draws IDs only
	layout        string // Graphviz engine
	showIDs       bool   // prefix weights with vertex IDs
	markRemovable bool   // highlight vertices whose weight equals their neighbour sum
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{output: "graph.svg", markRemovable: true}

	cmd := &cobra.Command{
		Use:   "render GRAPH",
		Short: "Draw a graph, optionally labelled with a weighting",
		Long: `Draw GRAPH with Graphviz. With --weights each vertex is labelled with its
weight and, unless --mark-removable=false, vertices whose weight equals the sum
of their neighbours' weights are highlighted.

The output format follows the file extension (.svg, .png, .pdf, .dot) unless
--format is given. PDF output requires rsvg-convert.

` + graphArgHelp,
		Example: `  arithgraph render path:3 --weights 1,2,1 -o path.svg
  arithgraph render bident:2 --weights "(1,1,2,2,1,1)" --layout neato -o bident.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", opts.output, "output file")
	f.StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, png, pdf (default from extension)")
	f.StringVar(&opts.weights, "weights", "", "vertex weights in vertex order")
	f.StringVar(&opts.layout, "layout", "", "Graphviz layout engine (dot, neato, circo, ...)")
	f.BoolVar(&opts.showIDs, "show-ids", false, "show vertex IDs next to weights")
	f.BoolVar(&opts.markRemovable, "mark-removable", opts.markRemovable, "highlight removable vertices")

	return cmd
}

func runRender(cmd *cobra.Command, arg string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	g, err := loadGraph(arg)
	if err != nil {
		return err
	}
	ropts := render.Options{ShowIDs: opts.showIDs, MarkRemovable: opts.markRemovable, Layout: opts.layout}
	if opts.weights != "" {
		if ropts.Weights, err = arith.ParseWeights(opts.weights); err != nil {
			return err
		}
	}

	dot, err := render.ToDOT(g, ropts)
	if err != nil {
		return err
	}
	format := opts.format
	if format == "" {
		format = render.FormatFromPath(opts.output)
	}
	logger.Debug("rendering", "graph", arg, "format", format, "layout", opts.layout)

	prog := newProgress(logger)
	data, err := render.Render(ctx, dot, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done("rendered", "bytes", len(data))

	printSuccess(cmd.ErrOrStderr(), "Rendered %s", arg)
	printFile(cmd.ErrOrStderr(), opts.output)
	return nil
}
