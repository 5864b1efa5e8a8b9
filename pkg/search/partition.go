package search

import (
	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// Partition is the subspace of [Range.Min, Range.Max]^n whose leading
// coordinates equal Prefix.
type Partition struct {
	Index  int
	Prefix arith.Weights
	Range  enum.Range
}

// Key identifies the partition by its prefix, e.g. "(3)".
func (p Partition) Key() string { return p.Prefix.String() }

// Contains reports whether w lies in the partition: every coordinate is in
// range and the leading coordinates equal the prefix.
func (p Partition) Contains(w arith.Weights) bool {
	if len(w) < len(p.Prefix) {
		return false
	}
	for i, v := range w {
		if !p.Range.Contains(v) {
			return false
		}
		if i < len(p.Prefix) && v != p.Prefix[i] {
			return false
		}
	}
	return true
}

// Partitions splits [r.Min, r.Max]^n by fixing the first prefixLen
// coordinates, clamped to n. The partitions are returned in ascending
// lexicographic order of their prefixes; they are pairwise disjoint and
// together cover the whole space.
//
// With prefixLen 1 there is exactly one partition per value of vertex 0,
// however wide the range. Longer prefixes may create at most MaxPartitions.
func Partitions(r enum.Range, n, prefixLen int) ([]Partition, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if n < 0 || prefixLen < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "vertex count and prefix length must not be negative, got %d and %d", n, prefixLen)
	}
	k := min(prefixLen, n)

	// One partition per first-coordinate value is always allowed; longer
	// prefixes are bounded by MaxPartitions.
	count, err := r.Size(k)
	if k > 1 && (err != nil || count > MaxPartitions) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput,
			"%d^%d partitions exceed the limit of %d; lower the prefix length", r.Width(), k, MaxPartitions)
	}

	e, err := enum.New(r, k)
	if err != nil {
		return nil, err
	}
	parts := make([]Partition, 0, min(count, MaxPartitions))
	for prefix := range e.All() {
		parts = append(parts, Partition{Index: len(parts), Prefix: prefix.Clone(), Range: r})
	}
	return parts, nil
}
