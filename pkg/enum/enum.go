// Package enum generates candidate weight tuples in lexicographic order.
//
// An [Enumerator] walks [Range.Min, Range.Max]^n with position 0 varying
// slowest. A fixed prefix pins the leading coordinates, which is how a search
// is cut into disjoint partitions. An optional filter drops tuples before they
// are yielded.
//
//	e, _ := enum.New(enum.Range{Min: 1, Max: 3}, 4,
//	    enum.WithPrefix(arith.Weights{2}),
//	    enum.WithFilter(arith.Coprime))
//	for w := range e.All() {
//	    // w is reused between iterations; clone to keep it
//	}
package enum

import (
	"iter"
	"math/bits"

	"github.com/matzehuels/arithgraph/pkg/arith"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// Range is the closed interval of allowed weights.
type Range struct {
	Min uint64 `json:"min" yaml:"min"`
	Max uint64 `json:"max" yaml:"max"`
}

// Validate returns an INVALID_RANGE error unless 1 <= Min <= Max.
func (r Range) Validate() error {
	if r.Min < 1 {
		return apperrors.New(apperrors.ErrCodeInvalidRange, "min weight must be at least 1, got %d", r.Min)
	}
	if r.Max < r.Min {
		return apperrors.New(apperrors.ErrCodeInvalidRange, "max weight %d is below min weight %d", r.Max, r.Min)
	}
	return nil
}

// Width returns the number of values in the range. The range must be valid.
func (r Range) Width() uint64 { return r.Max - r.Min + 1 }

// Contains reports whether v lies in the range.
func (r Range) Contains(v uint64) bool { return v >= r.Min && v <= r.Max }

// Size returns Width()^n, the number of tuples of length n.
// Results beyond uint64 are an OVERFLOW error.
func (r Range) Size(n int) (uint64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return pow(r.Width(), n)
}

func pow(base uint64, n int) (uint64, error) {
	total := uint64(1)
	for i := 0; i < n; i++ {
		hi, lo := bits.Mul64(total, base)
		if hi != 0 {
			return 0, apperrors.New(apperrors.ErrCodeOverflow, "%d^%d exceeds uint64", base, n)
		}
		total = lo
	}
	return total, nil
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithPrefix pins the first len(p) coordinates to p.
func WithPrefix(p arith.Weights) Option {
	return func(e *Enumerator) { e.prefix = p.Clone() }
}

// WithFilter drops every tuple for which keep returns false. The filter sees
// the reused buffer and must not retain or modify it.
func WithFilter(keep func(arith.Weights) bool) Option {
	return func(e *Enumerator) { e.filter = keep }
}

// Enumerator generates all tuples of a fixed arity over a Range.
// An Enumerator is immutable after New; each call of All starts a fresh walk
// with its own buffer, so one Enumerator may be iterated concurrently.
type Enumerator struct {
	r      Range
	arity  int
	prefix arith.Weights
	filter func(arith.Weights) bool
}

// New validates r and the options and returns an Enumerator.
func New(r Range, arity int, opts ...Option) (*Enumerator, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if arity < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "arity must not be negative, got %d", arity)
	}
	e := &Enumerator{r: r, arity: arity}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.prefix) > arity {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "prefix length %d exceeds arity %d", len(e.prefix), arity)
	}
	for i, v := range e.prefix {
		if !r.Contains(v) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "prefix value %d at position %d outside [%d,%d]", v, i, r.Min, r.Max)
		}
	}
	return e, nil
}

// Range returns the weight range.
func (e *Enumerator) Range() Range { return e.r }

// Arity returns the tuple length.
func (e *Enumerator) Arity() int { return e.arity }

// Prefix returns a copy of the fixed prefix.
func (e *Enumerator) Prefix() arith.Weights { return e.prefix.Clone() }

// Count returns how many tuples a walk visits before filtering.
func (e *Enumerator) Count() (uint64, error) {
	return pow(e.r.Width(), e.arity-len(e.prefix))
}

// All yields every tuple that starts with the prefix and passes the filter,
// in lexicographic order. Arity 0 yields exactly one empty tuple.
//
// The yielded slice is a buffer reused across iterations: callers must not
// modify it and must Clone it to keep it.
func (e *Enumerator) All() iter.Seq[arith.Weights] {
	return func(yield func(arith.Weights) bool) {
		k := len(e.prefix)
		buf := make(arith.Weights, e.arity)
		copy(buf, e.prefix)
		for i := k; i < e.arity; i++ {
			buf[i] = e.r.Min
		}

		for {
			if e.filter == nil || e.filter(buf) {
				if !yield(buf) {
					return
				}
			}

			i := e.arity - 1
			for ; i >= k; i-- {
				if buf[i] < e.r.Max {
					buf[i]++
					break
				}
				buf[i] = e.r.Min
			}
			if i < k {
				return
			}
		}
	}
}
