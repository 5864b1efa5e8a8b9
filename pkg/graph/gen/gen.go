// Package gen builds common graph families with vertices labelled "0", "1", ...
//
// Families match the usual textbook numbering: paths run 0-1-...-(n-1), a
// star's centre is vertex 0, and balanced trees number vertices breadth-first
// from the root.
package gen

import (
	"strconv"
	"strings"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

// maxVertices bounds generated graphs. Exhaustive search is hopeless long
// before this, so larger requests are almost certainly typos.
const maxVertices = 1 << 16

func numbered(n int) (*graph.Graph, error) {
	if n < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "vertex count must not be negative, got %d", n)
	}
	if n > maxVertices {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "vertex count %d exceeds limit %d", n, maxVertices)
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	return graph.New(ids...)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Empty returns n isolated vertices.
func Empty(n int) (*graph.Graph, error) { return numbered(n) }

// Path returns the path on n vertices.
func Path(n int) (*graph.Graph, error) {
	g, err := numbered(n)
	if err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		must(g.Connect(i-1, i))
	}
	return g, nil
}

// Cycle returns the cycle on n vertices. n must be at least 3.
func Cycle(n int) (*graph.Graph, error) {
	if n < 3 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "cycle needs at least 3 vertices, got %d", n)
	}
	g, err := Path(n)
	if err != nil {
		return nil, err
	}
	must(g.Connect(n-1, 0))
	return g, nil
}

// Complete returns the complete graph K_n.
func Complete(n int) (*graph.Graph, error) {
	g, err := numbered(n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			must(g.Connect(i, j))
		}
	}
	return g, nil
}

// Star returns a centre vertex 0 joined to leaves 1..n.
func Star(leaves int) (*graph.Graph, error) {
	if leaves < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "leaf count must not be negative, got %d", leaves)
	}
	g, err := numbered(leaves + 1)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= leaves; i++ {
		must(g.Connect(0, i))
	}
	return g, nil
}

// Bident returns a path 0..length+1 with an extra vertex length+2 attached to
// vertex length, so that length+1 and length+2 form the two prongs of a fork.
func Bident(length int) (*graph.Graph, error) {
	if length < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "bident length must not be negative, got %d", length)
	}
	g, err := Path(length + 2)
	if err != nil {
		return nil, err
	}
	if _, err := g.AddVertex(strconv.Itoa(length + 2)); err != nil {
		return nil, err
	}
	must(g.Connect(length+2, length))
	return g, nil
}

// BalancedTree returns the full tree where every internal vertex has branching
// children and every leaf sits at depth height.
func BalancedTree(branching, height int) (*graph.Graph, error) {
	if branching < 1 || height < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "balanced tree needs branching >= 1 and height >= 0, got %d,%d", branching, height)
	}
	n, level := 1, 1
	for d := 0; d < height; d++ {
		level *= branching
		n += level
		if n > maxVertices {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "balanced tree %d,%d exceeds limit %d", branching, height, maxVertices)
		}
	}
	g, err := numbered(n)
	if err != nil {
		return nil, err
	}
	for child := 1; child < n; child++ {
		must(g.Connect((child-1)/branching, child))
	}
	return g, nil
}

// Families lists the names accepted by Parse.
var Families = []string{"empty", "path", "cycle", "complete", "star", "bident", "tree"}

// Parse builds a graph from a spec string of the form "family:args", for
// example "path:5", "complete:4", "bident:2" or "tree:2,3".
func Parse(spec string) (*graph.Graph, error) {
	family, rawArgs, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok || rawArgs == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "graph spec %q: want family:args", spec)
	}
	var args []int
	for _, s := range strings.Split(rawArgs, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "graph spec %q", spec)
		}
		args = append(args, v)
	}

	want := 1
	if family == "tree" {
		want = 2
	}
	if len(args) != want {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "graph spec %q: %s takes %d argument(s)", spec, family, want)
	}

	switch strings.ToLower(family) {
	case "empty":
		return Empty(args[0])
	case "path":
		return Path(args[0])
	case "cycle":
		return Cycle(args[0])
	case "complete", "k":
		return Complete(args[0])
	case "star":
		return Star(args[0])
	case "bident":
		return Bident(args[0])
	case "tree":
		return BalancedTree(args[0], args[1])
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown graph family %q (known: %s)", family, strings.Join(Families, ", "))
	}
}
