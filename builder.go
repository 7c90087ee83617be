package vecstore

import (
	"fmt"
	"path/filepath"

	"github.com/hubenschmidt/go-vecstore/catalog"
	"github.com/hubenschmidt/go-vecstore/embed"
	"github.com/hubenschmidt/go-vecstore/index"
	"github.com/hubenschmidt/go-vecstore/monitor"
)

// Builder assembles a Store fluently. Zero-value fields fall back to
// the same defaults Open applies.
type Builder struct {
	cfg        Config
	dir        string
	catalogDSN string
}

// NewBuilder starts a store builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Dir places both snapshot files under dir with their default names.
func (b *Builder) Dir(dir string) *Builder {
	b.dir = dir
	return b
}

// Paths sets explicit locations for the two snapshot files.
func (b *Builder) Paths(indexPath, metaPath string) *Builder {
	b.cfg.IndexPath = indexPath
	b.cfg.MetadataPath = metaPath
	return b
}

// ChunkWindow sets the chunking window in words.
func (b *Builder) ChunkWindow(size, overlap int) *Builder {
	b.cfg.ChunkSize = size
	b.cfg.ChunkOverlap = overlap
	return b
}

// TopK sets the default result count for queries.
func (b *Builder) TopK(k int) *Builder {
	b.cfg.DefaultTopK = k
	return b
}

// Metric selects the distance function.
func (b *Builder) Metric(m index.Metric) *Builder {
	b.cfg.Metric = m
	return b
}

// Embedder sets the embedding backend. Required.
func (b *Builder) Embedder(e embed.Embedder) *Builder {
	b.cfg.Embedder = e
	return b
}

// Catalog attaches an existing catalog store. The caller keeps
// ownership and closes it.
func (b *Builder) Catalog(c catalog.Store) *Builder {
	b.cfg.Catalog = c
	return b
}

// CatalogDSN opens a catalog from a DSN. The store owns it and closes
// it on Close.
func (b *Builder) CatalogDSN(dsn string) *Builder {
	b.catalogDSN = dsn
	return b
}

// Rerank attaches a second-stage reranker.
func (b *Builder) Rerank(r Reranker) *Builder {
	b.cfg.Reranker = r
	return b
}

// Metrics attaches an operation metrics collector.
func (b *Builder) Metrics(c monitor.Collector) *Builder {
	b.cfg.Metrics = c
	return b
}

// Build opens the store.
func (b *Builder) Build() (*Store, error) {
	if b.dir != "" {
		if b.cfg.IndexPath == "" {
			b.cfg.IndexPath = filepath.Join(b.dir, DefaultIndexFile)
		}
		if b.cfg.MetadataPath == "" {
			b.cfg.MetadataPath = filepath.Join(b.dir, DefaultMetadataFile)
		}
	}

	ownsCatalog := false
	if b.cfg.Catalog == nil && b.catalogDSN != "" {
		cat, err := catalog.New(b.catalogDSN)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		b.cfg.Catalog = cat
		ownsCatalog = true
	}

	s, err := Open(b.cfg)
	if err != nil {
		if ownsCatalog {
			b.cfg.Catalog.Close()
		}
		return nil, err
	}
	s.ownsCatalog = ownsCatalog
	return s, nil
}
