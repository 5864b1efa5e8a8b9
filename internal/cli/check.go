package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/arithgraph/pkg/arith"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

// checkReport is the JSON form of an explained weighting.
type checkReport struct {
	Weights   arith.Weights `json:"weights"`
	Sums      []uint64      `json:"neighbour_sums"`
	Divides   []bool        `json:"divides"`
	GCD       uint64        `json:"gcd"`
	Accepted  bool          `json:"arithmetic_structure"`
	Smooth    bool          `json:"smooth"`
	Removable []string      `json:"removable"`
}

func (c *CLI) checkCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check GRAPH WEIGHTS",
		Short: "Explain whether a weighting is an arithmetic structure",
		Long: `Evaluate one weighting of GRAPH and show, per vertex, the sum of the
neighbours' weights and whether the vertex weight divides it, followed by the
GCD of all weights. WEIGHTS lists one weight per vertex in vertex order, e.g.
"1,2,1" or "(1,2,1)".

A weighting is smooth when no vertex weight equals its neighbour sum; such
vertices are listed as removable.

` + graphArgHelp,
		Example: `  arithgraph check path:3 1,2,1
  arithgraph check complete:4 "(1,1,1,1)" --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			w, err := arith.ParseWeights(args[1])
			if err != nil {
				return err
			}
			r, err := arith.Explain(g, w)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("weighting evaluated", "weights", w, "accepted", r.Accepted)
			if asJSON {
				return writeCheckJSON(cmd.OutOrStdout(), g, r)
			}
			writeCheck(cmd.OutOrStdout(), g, r)
			if !r.Accepted {
				return errNotArithmetic
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// errNotArithmetic makes check exit non-zero for rejected weightings.
var errNotArithmetic = apperrors.New(apperrors.ErrCodeInvalidWeights, "weighting is not an arithmetic structure")

func writeCheck(w io.Writer, g *graph.Graph, r *arith.Report) {
	fmt.Fprintln(w, reportTable(g, r))
	printKeyValue(w, "gcd", fmtUint(r.GCD))
	switch {
	case r.Smooth:
		printSuccess(w, "arithmetic structure, smooth")
	case r.Accepted:
		printSuccess(w, "arithmetic structure")
		printWarning(w, "not smooth: %s removable", plural(len(r.Removable), "vertex"))
	case r.GCD != 1:
		printError(w, "not an arithmetic structure: weights share the factor %d", r.GCD)
	default:
		printError(w, "not an arithmetic structure: divisibility fails")
	}
}

func writeCheckJSON(w io.Writer, g *graph.Graph, r *arith.Report) error {
	removable := make([]string, len(r.Removable))
	for i, v := range r.Removable {
		removable[i] = g.VertexID(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(checkReport{
		Weights:   r.Weights,
		Sums:      r.Sums,
		Divides:   r.Divides,
		GCD:       r.GCD,
		Accepted:  r.Accepted,
		Smooth:    r.Smooth,
		Removable: removable,
	})
}
