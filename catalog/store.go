// Package catalog records per-document ingest summaries alongside the
// vector store. The catalog is a sidecar: the search engine never
// depends on it for correctness, it only backs document listings.
package catalog

import (
	"context"
	"time"
)

// Document is one ingest record. The schema is fixed; new fields are
// added here, not smuggled in through a metadata map.
type Document struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title,omitempty"`
	Chunks    int       `json:"chunks"`
	Words     int       `json:"words"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists ingest records.
type Store interface {
	Record(ctx context.Context, doc Document) error
	List(ctx context.Context) ([]Document, error)
	BySource(ctx context.Context, source string) ([]Document, error)
	Close() error
}
