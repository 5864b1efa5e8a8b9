package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

const (
	graphSummary = "summary"
	graphMatrix  = "matrix"
)

func (c *CLI) graphCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "graph GRAPH",
		Short: "Inspect, generate or convert a graph",
		Long: `Print a summary of GRAPH, its adjacency matrix, or its node-link document.

With --output the graph is written as a file (JSON, or YAML for .yaml/.yml),
which is the way to turn a generator spec into an editable graph file.

` + graphArgHelp,
		Example: `  arithgraph graph bident:3
  arithgraph graph cycle:5 --format matrix
  arithgraph graph tree:2,3 -o tree.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := graph.WriteFile(g, output); err != nil {
					return err
				}
				printSuccess(cmd.ErrOrStderr(), "Wrote %s (%s, %s)",
					args[0], plural(g.VertexCount(), "vertex"), plural(g.EdgeCount(), "edge"))
				printFile(cmd.ErrOrStderr(), output)
				return nil
			}
			return writeGraph(cmd.OutOrStdout(), g, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph to a file")
	cmd.Flags().StringVarP(&format, "format", "f", graphSummary, "stdout format: summary, matrix, json, yaml")
	return cmd
}

func writeGraph(w io.Writer, g *graph.Graph, format string) error {
	switch format {
	case graphSummary:
		printKeyValue(w, "vertices", strconv.Itoa(g.VertexCount()))
		printKeyValue(w, "edges", strconv.Itoa(g.EdgeCount()))
		for i, id := range g.Vertices() {
			nbrs := make([]string, 0, g.Degree(i))
			for _, j := range g.Neighbors(i) {
				nbrs = append(nbrs, g.VertexID(j))
			}
			printKeyValue(w, id, StyleDim.Render(strings.Join(nbrs, " ")))
		}
		return nil
	case graphMatrix:
		m := g.Adjacency()
		for i := range m.Size() {
			row := m.Row(i)
			cells := make([]string, len(row))
			for j, x := range row {
				cells[j] = strconv.Itoa(int(x))
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, " ")); err != nil {
				return err
			}
		}
		return nil
	case string(graph.FormatJSON), string(graph.FormatYAML):
		return graph.Write(g, w, graph.Format(format))
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid format %q (must be one of summary, matrix, json, yaml)", format)
	}
}
