package arith

import "github.com/matzehuels/arithgraph/pkg/graph"

// RemovableVertices lists the positions whose weight equals the sum of their
// neighbours' weights. Such a vertex can be removed from the structure.
func RemovableVertices(g *graph.Graph, w Weights) ([]int, error) {
	sums, err := NeighborSums(g, w)
	if err != nil {
		return nil, err
	}
	var out []int
	for v, s := range sums {
		if s == w[v] {
			out = append(out, v)
		}
	}
	return out, nil
}

// IsSmooth reports whether w is an arithmetic structure on g with no
// removable vertex.
func IsSmooth(g *graph.Graph, w Weights) (bool, error) {
	ok, err := IsArithmeticStructure(g, w)
	if err != nil || !ok {
		return false, err
	}
	removable, err := RemovableVertices(g, w)
	if err != nil {
		return false, err
	}
	return len(removable) == 0, nil
}

// Report is a per-vertex breakdown of a weighting, used for diagnostics.
type Report struct {
	Weights   Weights
	Sums      []uint64
	Divides   []bool
	GCD       uint64
	Accepted  bool
	Smooth    bool
	Removable []int
}

// Explain evaluates w on g and records every intermediate value.
func Explain(g *graph.Graph, w Weights) (*Report, error) {
	sums, err := NeighborSums(g, w)
	if err != nil {
		return nil, err
	}
	r := &Report{
		Weights: w.Clone(),
		Sums:    sums,
		Divides: make([]bool, len(w)),
		GCD:     GCD(w),
	}
	all := true
	for v, s := range sums {
		r.Divides[v] = s%w[v] == 0
		all = all && r.Divides[v]
		if s == w[v] {
			r.Removable = append(r.Removable, v)
		}
	}
	r.Accepted = all && Coprime(w)
	r.Smooth = r.Accepted && len(r.Removable) == 0
	return r, nil
}
