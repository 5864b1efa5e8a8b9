package graph

import (
	"errors"
	"slices"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

var (
	// ErrDuplicateVertex is returned by [Graph.AddVertex] when a vertex with the
	// same ID already exists. Vertex IDs must be unique.
	ErrDuplicateVertex = errors.New("duplicate vertex ID")

	// ErrUnknownVertex is returned by [Graph.AddEdge] and [Graph.Connect] when an
	// endpoint does not exist in the graph.
	ErrUnknownVertex = errors.New("unknown vertex")

	// ErrSelfLoop is returned when both endpoints of an edge are the same vertex.
	// Graphs are simple: a vertex is never its own neighbour.
	ErrSelfLoop = errors.New("self-loops are not allowed")
)

// Edge is an undirected edge between two vertex positions, stored with U < V.
type Edge struct {
	U, V int
}

// Graph is a finite, simple, undirected graph with an ordered vertex list.
//
// The position of a vertex in [Graph.Vertices] is its coordinate in a weight
// assignment and its row in the adjacency matrix. Positions are assigned in
// insertion order and never change.
//
// The zero value is an empty graph ready for use. A Graph is not safe for
// concurrent mutation, but once built it may be read from many goroutines.
type Graph struct {
	ids   []string
	index map[string]int
	adj   [][]int // sorted neighbour positions
	edges int
}

// New creates a graph with the given vertices, in order.
// Returns an INVALID_GRAPH error for empty or duplicate IDs.
func New(ids ...string) (*Graph, error) {
	g := &Graph{}
	for _, id := range ids {
		if _, err := g.AddVertex(id); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddVertex appends a vertex and returns its position.
func (g *Graph) AddVertex(id string) (int, error) {
	if err := apperrors.ValidateVertexID(id); err != nil {
		return 0, err
	}
	if g.index == nil {
		g.index = make(map[string]int)
	}
	if _, exists := g.index[id]; exists {
		return 0, apperrors.Wrap(apperrors.ErrCodeInvalidGraph, ErrDuplicateVertex, "vertex %q", id)
	}
	pos := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = pos
	g.adj = append(g.adj, nil)
	return pos, nil
}

// AddEdge connects the vertices with IDs a and b.
// Adding an edge that already exists is a no-op.
func (g *Graph) AddEdge(a, b string) error {
	i, ok := g.index[a]
	if !ok {
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, ErrUnknownVertex, "edge %q-%q: vertex %q", a, b, a)
	}
	j, ok := g.index[b]
	if !ok {
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, ErrUnknownVertex, "edge %q-%q: vertex %q", a, b, b)
	}
	return g.Connect(i, j)
}

// Connect connects the vertices at positions i and j.
// Adding an edge that already exists is a no-op.
func (g *Graph) Connect(i, j int) error {
	n := len(g.ids)
	if i < 0 || i >= n {
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, ErrUnknownVertex, "position %d", i)
	}
	if j < 0 || j >= n {
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, ErrUnknownVertex, "position %d", j)
	}
	if i == j {
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, ErrSelfLoop, "vertex %q", g.ids[i])
	}
	if !insertSorted(&g.adj[i], j) {
		return nil
	}
	insertSorted(&g.adj[j], i)
	g.edges++
	return nil
}

func insertSorted(s *[]int, v int) bool {
	pos, found := slices.BinarySearch(*s, v)
	if found {
		return false
	}
	*s = slices.Insert(*s, pos, v)
	return true
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.ids) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Vertices returns a copy of the vertex IDs in position order.
func (g *Graph) Vertices() []string { return slices.Clone(g.ids) }

// VertexID returns the ID of the vertex at position i.
// It panics if i is out of range.
func (g *Graph) VertexID(i int) string { return g.ids[i] }

// Index returns the position of the vertex with the given ID.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Neighbors returns the positions adjacent to i in ascending order.
// The returned slice is a read-only view and must not be modified.
func (g *Graph) Neighbors(i int) []int { return g.adj[i] }

// Degree returns the number of neighbours of the vertex at position i.
func (g *Graph) Degree(i int) int { return len(g.adj[i]) }

// HasEdge reports whether positions i and j are adjacent.
func (g *Graph) HasEdge(i, j int) bool {
	if i < 0 || i >= len(g.adj) {
		return false
	}
	_, found := slices.BinarySearch(g.adj[i], j)
	return found
}

// Edges returns every edge once, ordered by (U, V).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for u, nbrs := range g.adj {
		for _, v := range nbrs {
			if u < v {
				out = append(out, Edge{U: u, V: v})
			}
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		ids:   slices.Clone(g.ids),
		index: make(map[string]int, len(g.index)),
		adj:   make([][]int, len(g.adj)),
		edges: g.edges,
	}
	for id, i := range g.index {
		c.index[id] = i
	}
	for i, nbrs := range g.adj {
		c.adj[i] = slices.Clone(nbrs)
	}
	return c
}
