// Package storage holds chunk metadata aligned with the vector index
// and persists both to disk as a pair of companion files.
package storage

import (
	"fmt"
	"sync"

	"github.com/hubenschmidt/go-vecstore/chunker"
	"github.com/hubenschmidt/go-vecstore/core"
)

// Metadata is an append-only sequence of chunk entries. Entry i
// describes the vector at index position i; the two sequences must
// always be the same length.
type Metadata struct {
	mu      sync.RWMutex
	entries []chunker.Chunk
}

// NewMetadata creates an empty metadata store.
func NewMetadata() *Metadata {
	return &Metadata{}
}

// RestoreMetadata builds a metadata store from persisted entries in
// insertion order.
func RestoreMetadata(entries []chunker.Chunk) *Metadata {
	m := &Metadata{entries: make([]chunker.Chunk, len(entries))}
	copy(m.entries, entries)
	return m
}

// Append adds an entry at the end and returns its position.
func (m *Metadata) Append(c chunker.Chunk) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, c)
	return len(m.entries) - 1
}

// Get returns the entry at pos.
func (m *Metadata) Get(pos int) (chunker.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pos < 0 || pos >= len(m.entries) {
		return chunker.Chunk{}, fmt.Errorf("metadata entry %d of %d: %w", pos, len(m.entries), core.ErrOutOfRange)
	}
	return m.entries[pos], nil
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// All returns a copy of every entry in insertion order.
func (m *Metadata) All() []chunker.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]chunker.Chunk, len(m.entries))
	copy(out, m.entries)
	return out
}
