// Package render draws weighted graphs.
//
// [ToDOT] produces undirected Graphviz DOT source in which every vertex is
// labelled with its weight, so a solution found by the search can be checked
// by eye. [Render] turns DOT into SVG or PNG in-process with
// [github.com/goccy/go-graphviz]; PDF output goes through SVG and the external
// rsvg-convert tool.
//
//	dot, err := render.ToDOT(g, render.Options{Weights: w, MarkRemovable: true})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
//
// Vertices whose weight equals the sum of their neighbours' weights are the
// ones that could be smoothed away; MarkRemovable shades them.
package render
