package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Document{Source: "a.txt", Chunks: 3, Words: 1200}))
	require.NoError(t, s.Record(ctx, Document{Source: "b.txt", Title: "Second", Chunks: 1, Words: 90}))
	require.NoError(t, s.Record(ctx, Document{Source: "a.txt", Chunks: 2, Words: 700}))

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, d := range docs {
		assert.NotEmpty(t, d.ID, "record should assign an id")
		assert.False(t, d.CreatedAt.IsZero())
	}
	assert.Equal(t, "a.txt", docs[0].Source)
	assert.Equal(t, 3, docs[0].Chunks)
	assert.Equal(t, 1200, docs[0].Words)
	assert.Equal(t, "Second", docs[1].Title)

	bySrc, err := s.BySource(ctx, "a.txt")
	require.NoError(t, err)
	require.Len(t, bySrc, 2)
	for _, d := range bySrc {
		assert.Equal(t, "a.txt", d.Source)
	}

	none, err := s.BySource(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Document{Source: "doc.md", Chunks: 4, Words: 2000}))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	docs, err := s2.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc.md", docs[0].Source)
}

func TestMemoryListCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, Document{Source: "x"}))

	docs, _ := s.List(ctx)
	docs[0].Source = "mutated"

	again, _ := s.List(ctx)
	assert.Equal(t, "x", again[0].Source)
}

func TestFactory(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
	s.Close()

	s, err = New(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	s.Close()
}
