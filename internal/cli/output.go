package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// Output formats for search results.
const (
	outTable = "table"
	outLines = "lines"
	outJSON  = "json"
	outCount = "count"
)

var outputFormats = []string{outTable, outLines, outJSON, outCount}

func validateOutput(format string) error {
	if !slices.Contains(outputFormats, format) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid format %q (must be one of %s)", format, strings.Join(outputFormats, ", "))
	}
	return nil
}

// searchReport is the JSON form of a finished search.
type searchReport struct {
	Graph     graph.Document  `json:"graph"`
	Range     enum.Range      `json:"range"`
	Solutions []arith.Weights `json:"solutions"`
	Stats     statsReport     `json:"stats"`
}

type statsReport struct {
	Vertices   int     `json:"vertices"`
	Candidates uint64  `json:"candidates"`
	Pruned     uint64  `json:"pruned"`
	Partitions int     `json:"partitions"`
	Seconds    float64 `json:"seconds"`
}

// writeResult prints res to w in the requested format.
func writeResult(w io.Writer, format string, g *graph.Graph, r enum.Range, res *search.Result) error {
	switch format {
	case outCount:
		_, err := fmt.Fprintln(w, len(res.Solutions))
		return err
	case outLines:
		for _, s := range res.Solutions {
			if _, err := fmt.Fprintln(w, s.String()); err != nil {
				return err
			}
		}
		return nil
	case outJSON:
		sols := res.Solutions
		if sols == nil {
			sols = []arith.Weights{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(searchReport{
			Graph:     graph.ToDocument(g),
			Range:     r,
			Solutions: sols,
			Stats: statsReport{
				Vertices:   res.Stats.Vertices,
				Candidates: res.Stats.Candidates,
				Pruned:     res.Stats.Pruned,
				Partitions: res.Stats.Partitions,
				Seconds:    res.Stats.Duration.Seconds(),
			},
		})
	default:
		if len(res.Solutions) == 0 {
			_, err := fmt.Fprintln(w, StyleDim.Render("no arithmetic structures in range"))
			return err
		}
		_, err := fmt.Fprintln(w, solutionTable(g, res.Solutions))
		return err
	}
}
