package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory catalog. Records are lost at process exit,
// which is fine for throwaway stores and tests.
type Memory struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	m.docs = append(m.docs, doc)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

func (m *Memory) BySource(ctx context.Context, source string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, d := range m.docs {
		if d.Source == source {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
