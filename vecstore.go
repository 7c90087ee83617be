// Package vecstore is a local, persistent similarity-search store for
// text documents. Documents are split into overlapping word chunks,
// each chunk is embedded into a fixed-dimension vector, and queries run
// exact nearest-neighbor search over every stored vector.
//
// Example usage:
//
//	store, err := vecstore.NewBuilder().
//	    Dir("./data").
//	    Embedder(embed.NewHash(0)).
//	    CatalogDSN("./data/catalog.db").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	result, _ := store.Ingest(ctx, document, "notes.md")
//	hits, _ := store.Query(ctx, "how do I reset my password", 3)
package vecstore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/hubenschmidt/go-vecstore/catalog"
	"github.com/hubenschmidt/go-vecstore/chunker"
	"github.com/hubenschmidt/go-vecstore/core"
	"github.com/hubenschmidt/go-vecstore/embed"
	"github.com/hubenschmidt/go-vecstore/index"
	"github.com/hubenschmidt/go-vecstore/monitor"
	"github.com/hubenschmidt/go-vecstore/storage"
)

// Version is the library version.
const Version = "0.2.0"

// Default file names when only a directory is configured.
const (
	DefaultIndexFile    = "faiss.index"
	DefaultMetadataFile = "metadata.json"
)

// Result is one query match, ranked by ascending distance.
type Result struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Distance   float32 `json:"distance"`
}

// Reranker reorders query results with a second-stage scorer. It must
// return a new slice and leave its input untouched.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []Result) ([]Result, error)
}

// IngestResult summarizes one ingest call.
type IngestResult struct {
	ChunksAdded int `json:"chunks_added"`
	TotalChunks int `json:"total_chunks"`
}

// Stats describes the current store state.
type Stats struct {
	Count        int    `json:"count"`
	Dimension    int    `json:"dimension"`
	Metric       string `json:"metric"`
	Model        string `json:"model"`
	IndexPath    string `json:"index_path"`
	MetadataPath string `json:"metadata_path"`
}

// Config configures Open. Embedder is the only required field.
type Config struct {
	IndexPath    string
	MetadataPath string
	ChunkSize    int
	ChunkOverlap int
	DefaultTopK  int
	Metric       index.Metric

	Embedder embed.Embedder
	Catalog  catalog.Store     // optional sidecar
	Reranker Reranker          // optional second stage
	Metrics  monitor.Collector // optional, NoOp when nil
}

// Store orchestrates chunking, embedding, indexing, and persistence.
// It is safe for concurrent use: ingests and saves are exclusive,
// queries run concurrently and never observe a half-appended record.
type Store struct {
	mu sync.RWMutex

	chunker  *chunker.Chunker
	embedder embed.Embedder
	idx      *index.Flat
	meta     *storage.Metadata
	cat      catalog.Store
	reranker Reranker
	metrics  monitor.Collector

	indexPath   string
	metaPath    string
	defaultTopK int

	ownsCatalog bool
	closed      bool
}

// Open constructs a store from cfg, loading any existing snapshot pair
// from disk. A snapshot whose dimension disagrees with the embedder is
// refused: querying it would silently compare incompatible vectors.
func Open(cfg Config) (*Store, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("store requires an embedder: %w", core.ErrInvalidConfig)
	}

	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size == 0 {
		size, overlap = chunker.DefaultSize, chunker.DefaultOverlap
	}
	ck, err := chunker.New(size, overlap)
	if err != nil {
		return nil, err
	}

	topK := cfg.DefaultTopK
	if topK <= 0 {
		topK = 3
	}

	indexPath := cfg.IndexPath
	if indexPath == "" {
		indexPath = DefaultIndexFile
	}
	metaPath := cfg.MetadataPath
	if metaPath == "" {
		metaPath = DefaultMetadataFile
	}

	idx, meta, model, err := storage.Load(indexPath, metaPath, index.WithMetric(cfg.Metric))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	embedDim := cfg.Embedder.Dimension()
	if idx.Dim() > 0 && embedDim > 0 && idx.Dim() != embedDim {
		return nil, fmt.Errorf("existing index dimension (%d) does not match embedder dimension (%d): %w",
			idx.Dim(), embedDim, core.ErrDimensionMismatch)
	}
	if idx.Dim() == 0 && embedDim > 0 {
		if err := idx.SetDim(embedDim); err != nil {
			return nil, err
		}
	}
	if model != "" && model != cfg.Embedder.Name() {
		log.Printf("[store] snapshot was built with model %q, embedder is %q", model, cfg.Embedder.Name())
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitor.NewNoOp()
	}

	return &Store{
		chunker:     ck,
		embedder:    cfg.Embedder,
		idx:         idx,
		meta:        meta,
		cat:         cfg.Catalog,
		reranker:    cfg.Reranker,
		metrics:     metrics,
		indexPath:   indexPath,
		metaPath:    metaPath,
		defaultTopK: topK,
	}, nil
}

// Ingest chunks document, embeds every chunk, appends the vector and
// metadata pairs in chunk order, and persists the snapshot. The whole
// batch is embedded before anything is appended: a mid-batch embedding
// failure leaves the store exactly as it was.
func (s *Store) Ingest(ctx context.Context, document, source string) (IngestResult, error) {
	start := time.Now()
	if source == "" {
		source = "unknown"
	}

	chunks := s.chunker.Split(document, source)
	if len(chunks) == 0 {
		return IngestResult{ChunksAdded: 0, TotalChunks: s.Len()}, nil
	}

	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vec, err := s.embedder.Embed(ctx, c.Text)
		if err != nil {
			s.metrics.RecordError("ingest")
			return IngestResult{}, fmt.Errorf("embed chunk %d of %d: %w", i, len(chunks), err)
		}
		vectors[i] = vec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.metrics.RecordError("ingest")
		return IngestResult{}, core.NewStoreError("ingest", core.ErrClosed)
	}

	// Every vector must match the index dimension before any of them is
	// appended, so a bad batch cannot leave a partial prefix behind.
	dim := s.idx.Dim()
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			s.metrics.RecordError("ingest")
			return IngestResult{}, fmt.Errorf("chunk %d embedding has length %d, index dimension is %d: %w",
				i, len(vec), dim, core.ErrDimensionMismatch)
		}
	}

	for i, vec := range vectors {
		if _, err := s.idx.Append(vec); err != nil {
			s.metrics.RecordError("ingest")
			return IngestResult{}, fmt.Errorf("append chunk %d: %w", i, err)
		}
		s.meta.Append(chunks[i])
	}

	if err := s.saveLocked(); err != nil {
		s.metrics.RecordError("ingest")
		return IngestResult{}, err
	}

	if s.cat != nil {
		doc := catalog.Document{
			Source: source,
			Chunks: len(chunks),
			Words:  len(strings.Fields(document)),
		}
		if err := s.cat.Record(ctx, doc); err != nil {
			log.Printf("[store] catalog record for %q failed: %v", source, err)
		}
	}

	s.metrics.RecordIngest(len(chunks), time.Since(start))
	return IngestResult{ChunksAdded: len(chunks), TotalChunks: s.meta.Len()}, nil
}

// Query embeds text and returns the topK nearest chunks, ascending by
// distance. An empty store returns an empty slice and no error. A
// topK of zero or less falls back to the configured default.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]Result, error) {
	start := time.Now()
	if topK <= 0 {
		topK = s.defaultTopK
	}

	qvec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.metrics.RecordError("query")
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// A reranker reorders a larger candidate pool before the cut.
	pool := topK
	if s.reranker != nil {
		pool = topK * 4
	}

	s.mu.RLock()
	cands, err := s.idx.Search(qvec, pool)
	if err != nil {
		s.mu.RUnlock()
		s.metrics.RecordError("query")
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]Result, 0, len(cands))
	for _, c := range cands {
		entry, err := s.meta.Get(c.Position)
		if err != nil {
			s.mu.RUnlock()
			s.metrics.RecordError("query")
			return nil, fmt.Errorf("join position %d: %w", c.Position, err)
		}
		results = append(results, Result{
			Text:       entry.Text,
			Source:     entry.Source,
			ChunkIndex: entry.Index,
			Distance:   c.Distance,
		})
	}
	s.mu.RUnlock()

	if s.reranker != nil {
		results, err = s.reranker.Rerank(ctx, text, results)
		if err != nil {
			s.metrics.RecordError("query")
			return nil, fmt.Errorf("rerank: %w", err)
		}
	}
	if len(results) > topK {
		results = results[:topK]
	}

	s.metrics.RecordQuery(len(results), time.Since(start))
	return results, nil
}

// Save flushes the snapshot pair to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.NewStoreError("save", core.ErrClosed)
	}
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := storage.Save(s.idx, s.meta, s.indexPath, s.metaPath, s.embedder.Name()); err != nil {
		return core.NewStoreError("save", err)
	}
	return nil
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Len()
}

// Dim returns the vector dimension.
func (s *Store) Dim() int {
	return s.idx.Dim()
}

// Catalog returns the configured catalog store, nil when none is set.
func (s *Store) Catalog() catalog.Store {
	return s.cat
}

// Metrics returns the configured collector.
func (s *Store) Metrics() monitor.Collector {
	return s.metrics
}

// Stats reports the current store state.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Count:        s.meta.Len(),
		Dimension:    s.idx.Dim(),
		Metric:       s.idx.Metric().String(),
		Model:        s.embedder.Name(),
		IndexPath:    s.indexPath,
		MetadataPath: s.metaPath,
	}
}

// Close performs a final save and marks the store closed. Mutating
// calls after Close fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.saveLocked()
	s.closed = true

	if s.ownsCatalog && s.cat != nil {
		if cerr := s.cat.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close catalog: %w", cerr)
		}
	}
	return err
}
