package graph

import (
	"math/bits"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// Matrix is a dense, symmetric 0/1 adjacency matrix with a zero diagonal.
// Row i and column i correspond to vertex position i.
type Matrix struct {
	n    int
	data []uint8
}

// Adjacency builds the adjacency matrix of g.
func (g *Graph) Adjacency() *Matrix {
	n := len(g.ids)
	m := &Matrix{n: n, data: make([]uint8, n*n)}
	for i, nbrs := range g.adj {
		for _, j := range nbrs {
			m.data[i*n+j] = 1
		}
	}
	return m
}

// Size returns the number of rows (and columns).
func (m *Matrix) Size() int { return m.n }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) uint8 { return m.data[i*m.n+j] }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []uint8 {
	row := make([]uint8, m.n)
	copy(row, m.data[i*m.n:(i+1)*m.n])
	return row
}

// MulVec returns m·w computed in exact uint64 arithmetic.
// A sum that does not fit in 64 bits is an OVERFLOW error, never a wrapped value.
func (m *Matrix) MulVec(w []uint64) ([]uint64, error) {
	if len(w) != m.n {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWeights, "vector length %d does not match matrix size %d", len(w), m.n)
	}
	out := make([]uint64, m.n)
	for i := 0; i < m.n; i++ {
		var sum, carry uint64
		row := m.data[i*m.n : (i+1)*m.n]
		for j, a := range row {
			if a == 0 {
				continue
			}
			sum, carry = bits.Add64(sum, w[j], 0)
			if carry != 0 {
				return nil, apperrors.New(apperrors.ErrCodeOverflow, "row %d sum exceeds uint64", i)
			}
		}
		out[i] = sum
	}
	return out, nil
}
