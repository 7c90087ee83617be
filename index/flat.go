// Package index provides exact nearest-neighbor search over densely
// packed embedding vectors.
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hubenschmidt/go-vecstore/core"
)

// Candidate is one search match: the insertion position of a stored
// vector and its distance to the query.
type Candidate struct {
	Position int     `json:"position"`
	Distance float32 `json:"distance"`
}

// Flat is an append-only brute-force index. Vectors live in a single
// packed slice in insertion order; every query scans all of them.
// Search cost is O(N*D), appends are O(1) amortized.
type Flat struct {
	mu     sync.RWMutex
	metric Metric
	dim    int
	data   []float32
}

// Option configures a Flat index.
type Option func(*Flat)

// WithMetric selects the distance function. The default is L2Squared.
func WithMetric(m Metric) Option {
	return func(f *Flat) {
		f.metric = m
	}
}

// New creates an empty index. A dim of 0 leaves the dimension unset
// until the first append fixes it.
func New(dim int, opts ...Option) *Flat {
	if dim < 0 {
		dim = 0
	}
	f := &Flat{dim: dim}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Restore builds an index from packed values in insertion order, as
// produced by Snapshot.
func Restore(dim int, data []float32, opts ...Option) (*Flat, error) {
	f := New(dim, opts...)
	if len(data) == 0 {
		return f, nil
	}
	if f.dim == 0 || len(data)%f.dim != 0 {
		return nil, fmt.Errorf("restore %d values into dimension %d: %w", len(data), f.dim, core.ErrCorruptStore)
	}

	f.data = append(f.data, data...)
	return f, nil
}

// Append validates the vector against the index dimension and adds it
// at the end. It returns the zero-based position assigned, which equals
// the count before the append.
func (f *Flat) Append(vec []float32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(vec) == 0 {
		return 0, fmt.Errorf("append empty vector: %w", core.ErrDimensionMismatch)
	}
	if f.dim == 0 {
		f.dim = len(vec)
	}
	if len(vec) != f.dim {
		return 0, fmt.Errorf("append vector of length %d to index of dimension %d: %w",
			len(vec), f.dim, core.ErrDimensionMismatch)
	}

	pos := len(f.data) / f.dim
	f.data = append(f.data, vec...)
	return pos, nil
}

// Search returns the k nearest stored vectors, ascending by distance,
// ties broken by ascending position. Fewer than k stored vectors means
// all of them are returned. An empty index returns no candidates and
// no error.
func (f *Flat) Search(query []float32, k int) ([]Candidate, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := f.countLocked()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("query vector of length %d against index of dimension %d: %w",
			len(query), f.dim, core.ErrDimensionMismatch)
	}

	cands := make([]Candidate, count)
	switch f.metric {
	case Cosine:
		for i := 0; i < count; i++ {
			cands[i] = Candidate{Position: i, Distance: cosineDistance(query, f.row(i))}
		}
	default:
		for i := 0; i < count; i++ {
			cands[i] = Candidate{Position: i, Distance: l2Squared(query, f.row(i))}
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		return cands[i].Position < cands[j].Position
	})

	if k < len(cands) {
		cands = cands[:k]
	}
	return cands, nil
}

// Vector returns a copy of the stored vector at pos.
func (f *Flat) Vector(pos int) ([]float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if pos < 0 || pos >= f.countLocked() {
		return nil, fmt.Errorf("vector %d of %d: %w", pos, f.countLocked(), core.ErrOutOfRange)
	}
	out := make([]float32, f.dim)
	copy(out, f.row(pos))
	return out, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.countLocked()
}

// Dim returns the vector dimension, 0 when unset.
func (f *Flat) Dim() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}

// SetDim fixes the dimension of an empty index. Changing the dimension
// of a populated index is refused.
func (f *Flat) SetDim(dim int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dim <= 0 {
		return fmt.Errorf("set dimension %d: %w", dim, core.ErrInvalidConfig)
	}
	if len(f.data) > 0 && dim != f.dim {
		return fmt.Errorf("change dimension of populated index from %d to %d: %w",
			f.dim, dim, core.ErrDimensionMismatch)
	}
	f.dim = dim
	return nil
}

// Metric returns the configured distance function.
func (f *Flat) Metric() Metric {
	return f.metric
}

// Snapshot returns the dimension and a copy of the packed values in
// insertion order, suitable for Restore.
func (f *Flat) Snapshot() (int, []float32) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]float32, len(f.data))
	copy(out, f.data)
	return f.dim, out
}

func (f *Flat) countLocked() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

func (f *Flat) row(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim]
}
