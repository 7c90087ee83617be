package vecstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-vecstore/catalog"
	"github.com/hubenschmidt/go-vecstore/core"
	"github.com/hubenschmidt/go-vecstore/embed"
	"github.com/hubenschmidt/go-vecstore/monitor"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(Config{
		IndexPath:    filepath.Join(dir, DefaultIndexFile),
		MetadataPath: filepath.Join(dir, DefaultMetadataFile),
		Embedder:     embed.NewHash(32),
	})
	require.NoError(t, err)
	return s
}

// flakyEmbedder fails on the nth call.
type flakyEmbedder struct {
	inner  embed.Embedder
	calls  int
	failAt int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("model unavailable")
	}
	return f.inner.Embed(ctx, text)
}

func (f *flakyEmbedder) Dimension() int { return f.inner.Dimension() }
func (f *flakyEmbedder) Name() string   { return f.inner.Name() }

func TestOpenRequiresEmbedder(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestIngestDefaultChunking(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	// 1200 words with the 500/50 window makes exactly three chunks.
	result, err := s.Ingest(context.Background(), words(1200), "big.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksAdded)
	assert.Equal(t, 3, result.TotalChunks)
	assert.Equal(t, 3, s.Len())

	hits, err := s.Query(context.Background(), "word0 word1 word2", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	indices := []int{hits[0].ChunkIndex, hits[1].ChunkIndex, hits[2].ChunkIndex}
	assert.ElementsMatch(t, []int{0, 1, 2}, indices)
}

func TestIngestEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	defer s.Close()

	result, err := s.Ingest(context.Background(), "   \n\t  ", "empty.txt")
	require.NoError(t, err)
	assert.Zero(t, result.ChunksAdded)
	assert.Zero(t, s.Len())

	// Nothing to persist: an empty ingest writes no files.
	_, err = os.Stat(filepath.Join(dir, DefaultIndexFile))
	assert.True(t, os.IsNotExist(err))
}

func TestIngestDefaultsSource(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	_, err := s.Ingest(context.Background(), "some text", "")
	require.NoError(t, err)

	hits, err := s.Query(context.Background(), "some text", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "unknown", hits[0].Source)
}

func TestQueryEmptyStore(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	hits, err := s.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryExactChunkIsTopResult(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	docs := []string{
		"kubernetes schedules pods onto nodes",
		"vector databases answer nearest neighbor queries",
		"sourdough starters need regular feeding",
	}
	for i, d := range docs {
		_, err := s.Ingest(context.Background(), d, fmt.Sprintf("doc%d", i))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	// Reopen from disk and query with an exact ingested chunk.
	s2 := openTestStore(t, dir)
	defer s2.Close()
	require.Equal(t, 3, s2.Len())

	hits, err := s2.Query(context.Background(), docs[1], 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, docs[1], hits[0].Text)
	assert.InDelta(t, 0, hits[0].Distance, 1e-5)
	for _, h := range hits[1:] {
		assert.GreaterOrEqual(t, h.Distance, hits[0].Distance)
	}
}

func TestQueryDefaultTopK(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	for i := 0; i < 5; i++ {
		_, err := s.Ingest(context.Background(), fmt.Sprintf("document number %d", i), "s")
		require.NoError(t, err)
	}

	hits, err := s.Query(context.Background(), "document", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 3) // default top_k
}

func TestIngestAllOrNothingOnEmbedFailure(t *testing.T) {
	dir := t.TempDir()
	emb := &flakyEmbedder{inner: embed.NewHash(32), failAt: 2}

	s, err := Open(Config{
		IndexPath:    filepath.Join(dir, DefaultIndexFile),
		MetadataPath: filepath.Join(dir, DefaultMetadataFile),
		ChunkSize:    10,
		ChunkOverlap: 2,
		Embedder:     emb,
	})
	require.NoError(t, err)
	defer s.Close()

	// Three chunks; the second embedding fails. Nothing may be stored.
	_, err = s.Ingest(context.Background(), words(26), "flaky.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Zero(t, s.Len())

	_, statErr := os.Stat(filepath.Join(dir, DefaultIndexFile))
	assert.True(t, os.IsNotExist(statErr), "failed ingest must not persist anything")
}

// shrinkingEmbedder reports one dimension but returns a shorter vector
// from its second call onward.
type shrinkingEmbedder struct {
	calls int
}

func (e *shrinkingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.calls > 1 {
		return []float32{1, 2}, nil
	}
	return []float32{1, 2, 3, 4}, nil
}

func (e *shrinkingEmbedder) Dimension() int { return 4 }
func (e *shrinkingEmbedder) Name() string   { return "shrinking" }

func TestIngestAllOrNothingOnBadEmbeddingLength(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{
		IndexPath:    filepath.Join(dir, DefaultIndexFile),
		MetadataPath: filepath.Join(dir, DefaultMetadataFile),
		ChunkSize:    10,
		ChunkOverlap: 2,
		Embedder:     &shrinkingEmbedder{},
	})
	require.NoError(t, err)
	defer s.Close()

	// Three chunks; the second embedding comes back with the wrong
	// length. No pair may be appended, not even the valid first one.
	_, err = s.Ingest(context.Background(), words(26), "shrink.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Zero(t, s.Len())

	_, statErr := os.Stat(filepath.Join(dir, DefaultIndexFile))
	assert.True(t, os.IsNotExist(statErr), "failed ingest must not persist anything")
}

func TestAlignmentInvariantAfterIngests(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	for i := 0; i < 4; i++ {
		_, err := s.Ingest(context.Background(), words(300+100*i), fmt.Sprintf("d%d", i))
		require.NoError(t, err)
		assert.Equal(t, s.idx.Len(), s.meta.Len())
	}
}

func TestOpenRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir) // dimension 32
	_, err := s.Ingest(context.Background(), "fixed dimension content", "a")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(Config{
		IndexPath:    filepath.Join(dir, DefaultIndexFile),
		MetadataPath: filepath.Join(dir, DefaultMetadataFile),
		Embedder:     embed.NewHash(64),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "(32)")
	assert.Contains(t, err.Error(), "(64)")
}

func TestOpenFailsOnLoneIndexFile(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	_, err := s.Ingest(context.Background(), "content to persist", "a")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, os.Remove(filepath.Join(dir, DefaultMetadataFile)))

	_, err = Open(Config{
		IndexPath:    filepath.Join(dir, DefaultIndexFile),
		MetadataPath: filepath.Join(dir, DefaultMetadataFile),
		Embedder:     embed.NewHash(32),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCorruptStore)
}

func TestSaveIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	defer s.Close()

	_, err := s.Ingest(context.Background(), words(700), "doc.txt")
	require.NoError(t, err)

	require.NoError(t, s.Save())
	first, err := os.ReadFile(filepath.Join(dir, DefaultIndexFile))
	require.NoError(t, err)

	require.NoError(t, s.Save())
	second, err := os.ReadFile(filepath.Join(dir, DefaultIndexFile))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClosedStoreRefusesMutation(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // second close is a no-op

	_, err := s.Ingest(context.Background(), "text", "s")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrClosed)

	err = s.Save()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrClosed)
}

func TestCatalogFailureDoesNotFailIngest(t *testing.T) {
	s, err := Open(Config{
		IndexPath:    filepath.Join(t.TempDir(), DefaultIndexFile),
		MetadataPath: filepath.Join(t.TempDir(), DefaultMetadataFile),
		Embedder:     embed.NewHash(32),
		Catalog:      failingCatalog{},
	})
	require.NoError(t, err)
	defer s.Close()

	result, err := s.Ingest(context.Background(), "text survives catalog outage", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksAdded)
}

type failingCatalog struct{}

func (failingCatalog) Record(ctx context.Context, doc catalog.Document) error {
	return errors.New("catalog down")
}
func (failingCatalog) List(ctx context.Context) ([]catalog.Document, error) { return nil, nil }
func (failingCatalog) BySource(ctx context.Context, s string) ([]catalog.Document, error) {
	return nil, nil
}
func (failingCatalog) Close() error { return nil }

func TestMetricsRecorded(t *testing.T) {
	collector := monitor.NewInMemory()
	s, err := Open(Config{
		IndexPath:    filepath.Join(t.TempDir(), DefaultIndexFile),
		MetadataPath: filepath.Join(t.TempDir(), DefaultMetadataFile),
		Embedder:     embed.NewHash(32),
		Metrics:      collector,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Ingest(context.Background(), words(600), "m.txt")
	require.NoError(t, err)
	_, err = s.Query(context.Background(), "word1 word2", 2)
	require.NoError(t, err)

	m := collector.Snapshot()
	assert.Equal(t, int64(1), m.Ingest.Count)
	assert.Equal(t, int64(2), m.Ingest.Items)
	assert.Equal(t, int64(1), m.Query.Count)
	assert.Equal(t, int64(2), m.Query.Items)
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	defer s.Close()

	_, err := s.Ingest(context.Background(), "a few words", "s.txt")
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 32, stats.Dimension)
	assert.Equal(t, "l2", stats.Metric)
	assert.Equal(t, "hash-32", stats.Model)
	assert.Equal(t, filepath.Join(dir, DefaultIndexFile), stats.IndexPath)
}

func TestConcurrentQueriesDuringIngest(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	_, err := s.Ingest(context.Background(), words(400), "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hits, err := s.Query(context.Background(), "word1 word2 word3", 2)
				assert.NoError(t, err)
				assert.NotEmpty(t, hits)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 5; j++ {
			_, err := s.Ingest(context.Background(), words(120), fmt.Sprintf("doc%d", j))
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	assert.Equal(t, s.idx.Len(), s.meta.Len())
}
