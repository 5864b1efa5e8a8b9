package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// Status lines go to stderr so that stdout stays machine-readable.

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints search statistics on a single dim line, e.g.
// "  12 solutions · 10000 candidates · 1200 pruned · 10 partitions".
func printStats(w io.Writer, res *search.Result) {
	parts := []string{
		plural(len(res.Solutions), "solution"),
		plural(int(res.Stats.Candidates), "candidate"),
		fmt.Sprintf("%d pruned", res.Stats.Pruned),
		plural(res.Stats.Partitions, "partition"),
		res.Stats.Duration.Round(1e6).String(),
	}
	fmt.Fprintln(w, "  "+StyleDim.Render(strings.Join(parts, " · ")))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if stem, ok := strings.CutSuffix(noun, "vertex"); ok {
		return strconv.Itoa(n) + " " + stem + "vertices"
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// =============================================================================
// Tables
// =============================================================================

// solutionTable renders solutions with one column per vertex.
func solutionTable(g *graph.Graph, sols []arith.Weights) string {
	headers := append([]string{"#"}, g.Vertices()...)
	rows := make([][]string, len(sols))
	for i, w := range sols {
		row := make([]string, 0, len(w)+1)
		row = append(row, strconv.Itoa(i+1))
		for _, x := range w {
			row = append(row, strconv.FormatUint(x, 10))
		}
		rows[i] = row
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return StyleDim.Padding(0, 1)
			default:
				return StyleNumber.Padding(0, 1).Align(lipgloss.Right)
			}
		}).
		Render()
}

// reportTable renders per-vertex detail for one weighting.
func reportTable(g *graph.Graph, r *arith.Report) string {
	rows := make([][]string, len(r.Weights))
	removable := make(map[int]bool, len(r.Removable))
	for _, v := range r.Removable {
		removable[v] = true
	}
	for v := range r.Weights {
		mark := ""
		if removable[v] {
			mark = "removable"
		}
		rows[v] = []string{
			g.VertexID(v),
			strconv.FormatUint(r.Weights[v], 10),
			strconv.FormatUint(r.Sums[v], 10),
			yesNo(r.Divides[v]),
			mark,
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("vertex", "weight", "neighbour sum", "divides", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 3 && !r.Divides[row]:
				return base.Foreground(colorRed)
			case col == 3:
				return base.Foreground(colorGreen)
			case col == 4:
				return base.Foreground(colorYellow)
			default:
				return base
			}
		}).
		Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func fmtUint(v uint64) string { return strconv.FormatUint(v, 10) }
