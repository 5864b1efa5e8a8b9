// Package arith decides whether a vertex weighting of a graph is an
// arithmetic structure.
//
// A weighting w is an arithmetic structure on g when
//
//   - every vertex weight divides the sum of its neighbours' weights, and
//   - gcd(w) = 1.
//
// All sums are exact: arithmetic that would exceed uint64 is reported as an
// OVERFLOW error instead of wrapping.
package arith

import (
	"math/bits"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
)

// GCD returns the greatest common divisor of all weights.
// The GCD of an empty tuple is 0.
func GCD(w Weights) uint64 {
	var d uint64
	for _, v := range w {
		d = gcd(d, v)
		if d == 1 {
			return 1
		}
	}
	return d
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Coprime reports whether gcd(w) = 1. It is the cheap pre-check used to prune
// candidates before the divisibility test. The empty tuple is vacuously
// coprime.
func Coprime(w Weights) bool { return len(w) == 0 || GCD(w) == 1 }

func checkInput(g *graph.Graph, w Weights) error {
	if len(w) != g.VertexCount() {
		return apperrors.New(apperrors.ErrCodeInvalidWeights, "got %d weights for %d vertices", len(w), g.VertexCount())
	}
	for i, v := range w {
		if v == 0 {
			return apperrors.New(apperrors.ErrCodeInvalidWeights, "weight of vertex %q must be positive", g.VertexID(i))
		}
	}
	return nil
}

func neighborSum(g *graph.Graph, w Weights, v int) (uint64, error) {
	var sum, carry uint64
	for _, u := range g.Neighbors(v) {
		sum, carry = bits.Add64(sum, w[u], 0)
		if carry != 0 {
			return 0, apperrors.New(apperrors.ErrCodeOverflow, "neighbour sum of vertex %q exceeds uint64", g.VertexID(v))
		}
	}
	return sum, nil
}

// NeighborSums returns, for every vertex, the sum of its neighbours' weights.
func NeighborSums(g *graph.Graph, w Weights) ([]uint64, error) {
	if err := checkInput(g, w); err != nil {
		return nil, err
	}
	sums := make([]uint64, len(w))
	for v := range w {
		s, err := neighborSum(g, w, v)
		if err != nil {
			return nil, err
		}
		sums[v] = s
	}
	return sums, nil
}

// IsArithmeticStructure reports whether w is an arithmetic structure on g.
//
// Vertices are checked in position order and the first failed divisibility
// test returns false. The GCD is computed once, after all vertices pass.
// Malformed input (wrong length or a zero weight) is an INVALID_WEIGHTS error.
func IsArithmeticStructure(g *graph.Graph, w Weights) (bool, error) {
	if err := checkInput(g, w); err != nil {
		return false, err
	}
	return divides(g, w)
}

// divides runs the divisibility and GCD checks on already validated input.
func divides(g *graph.Graph, w Weights) (bool, error) {
	for v, wv := range w {
		s, err := neighborSum(g, w, v)
		if err != nil {
			return false, err
		}
		if s%wv != 0 {
			return false, nil
		}
	}
	return Coprime(w), nil
}

// Evaluator checks many candidates against one graph. It skips the per-call
// input checks, so callers must only pass tuples of the right length with
// positive entries, which the enumerator guarantees.
type Evaluator struct {
	g *graph.Graph
}

// NewEvaluator returns an evaluator bound to g.
func NewEvaluator(g *graph.Graph) *Evaluator { return &Evaluator{g: g} }

// Accept is IsArithmeticStructure without input validation.
func (e *Evaluator) Accept(w Weights) (bool, error) { return divides(e.g, w) }
