package arith

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// Weights assigns a positive integer to each vertex position of a graph.
// Index i holds the weight of the vertex at position i.
type Weights []uint64

// Clone returns an independent copy of w.
func (w Weights) Clone() Weights { return slices.Clone(w) }

// Equal reports whether w and o hold the same weights in the same order.
func (w Weights) Equal(o Weights) bool { return slices.Equal(w, o) }

// Compare orders weight tuples lexicographically, position 0 first.
func (w Weights) Compare(o Weights) int { return slices.Compare(w, o) }

// String formats w as "(1,2,3)".
func (w Weights) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range w {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(v, 10))
	}
	b.WriteByte(')')
	return b.String()
}

// AppendKey appends a compact varint encoding of w to dst.
// Distinct tuples of equal length always encode differently.
func (w Weights) AppendKey(dst []byte) []byte {
	for _, v := range w {
		dst = binary.AppendUvarint(dst, v)
	}
	return dst
}

// Key returns the varint encoding of w as a string usable as a map key.
func (w Weights) Key() string {
	return string(w.AppendKey(make([]byte, 0, len(w)*2)))
}

// ParseWeights parses a comma separated weight list such as "1,2,3" or
// "(1, 2, 3)". Every weight must be a positive integer.
func ParseWeights(s string) (Weights, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSpace(s)
	if s == "" {
		return Weights{}, nil
	}
	parts := strings.Split(s, ",")
	w := make(Weights, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidWeights, err, "weight %d", i)
		}
		if v == 0 {
			return nil, apperrors.New(apperrors.ErrCodeInvalidWeights, "weight %d must be positive", i)
		}
		w[i] = v
	}
	return w, nil
}
