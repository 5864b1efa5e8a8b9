package render

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/arithgraph/pkg/arith"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// Options configures the drawing.
type Options struct {
	// Weights labels each vertex with its weight. Nil draws vertex IDs only.
	Weights arith.Weights

	// ShowIDs prefixes weight labels with the vertex ID ("3: 2").
	ShowIDs bool

	// MarkRemovable fills vertices whose weight equals their neighbour sum.
	MarkRemovable bool

	// Layout selects the Graphviz engine, e.g. "neato" or "circo".
	// Empty uses the Graphviz default.
	Layout string
}

// ToDOT converts a weighted graph to undirected Graphviz DOT source. The result
// can be passed to [Render] or to external Graphviz tools.
func ToDOT(g *graph.Graph, opts Options) (string, error) {
	var removable []bool
	if opts.Weights != nil {
		if len(opts.Weights) != g.VertexCount() {
			return "", apperrors.New(apperrors.ErrCodeInvalidWeights,
				"%d weights for %d vertices", len(opts.Weights), g.VertexCount())
		}
		if opts.MarkRemovable {
			idx, err := arith.RemovableVertices(g, opts.Weights)
			if err != nil {
				return "", err
			}
			removable = make([]bool, g.VertexCount())
			for _, i := range idx {
				removable[i] = true
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	if opts.Layout != "" {
		fmt.Fprintf(&buf, "  layout=%q;\n", opts.Layout)
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for i, id := range g.Vertices() {
		attrs := []string{fmt.Sprintf("label=%q", vertexLabel(id, i, opts))}
		if removable != nil && removable[i] {
			attrs = append(attrs, "fillcolor=lightgrey", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -- %q;\n", g.VertexID(e.U), g.VertexID(e.V))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func vertexLabel(id string, i int, opts Options) string {
	if opts.Weights == nil {
		return id
	}
	w := strconv.FormatUint(opts.Weights[i], 10)
	if opts.ShowIDs {
		return id + ": " + w
	}
	return w
}

// Render lays out DOT source and encodes it in format. DOT source is returned
// unchanged; SVG and PNG are produced in-process; PDF goes through rsvg-convert.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		out, err := graphvizRender(ctx, dot, graphviz.SVG)
		if err != nil {
			return nil, err
		}
		return normalizeViewBox(out), nil
	case FormatPNG:
		return graphvizRender(ctx, dot, graphviz.PNG)
	case FormatPDF:
		svg, err := graphvizRender(ctx, dot, graphviz.SVG)
		if err != nil {
			return nil, err
		}
		return ToPDF(ctx, normalizeViewBox(svg))
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "unknown output format %q (known: %s)", format, strings.Join(Formats, ", "))
	}
}

func graphvizRender(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// FormatFromPath picks the output format from a file extension, defaulting to SVG.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return FormatDOT
	case ".png":
		return FormatPNG
	case ".pdf":
		return FormatPDF
	default:
		return FormatSVG
	}
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one whose
// width and height match the viewBox, so the drawing scales when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
