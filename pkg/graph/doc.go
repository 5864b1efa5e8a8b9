// Package graph provides the finite undirected graphs that weightings are
// searched over.
//
// # Vertex Positions
//
// Vertices keep the order in which they were added. A vertex's position is
// its coordinate in a weight assignment, its row in the adjacency matrix and
// the order in which the enumerator varies coordinates (position 0 slowest).
//
//	g, _ := graph.New("a", "b", "c")
//	_ = g.AddEdge("a", "b")
//	_ = g.Connect(1, 2)
//	g.Neighbors(1) // [0 2]
//
// Graphs are simple: self-loops are rejected and adding an existing edge
// is a no-op.
//
// # Adjacency Matrix
//
// [Graph.Adjacency] builds a dense [Matrix]. [Matrix.MulVec] yields the
// vector of neighbour sums in checked uint64 arithmetic.
//
// # Serialization
//
// Graphs use a node-link format, as JSON or YAML:
//
//	{
//	  "nodes": [{"id": "0"}, {"id": "1"}],
//	  "edges": [{"from": "0", "to": "1"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadFile("k4.json")           // File → Graph
//	graph.WriteFile(g, "k4.yaml")               // Graph → File
//	data, _ := graph.Marshal(g, graph.FormatJSON)
//
// Generators for common families live in the gen subpackage.
//
// # Concurrency
//
// A built graph is safe for concurrent reads. Mutation requires external
// synchronization.
package graph
