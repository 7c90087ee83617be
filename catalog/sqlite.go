package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	chunks INTEGER NOT NULL,
	words INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
`

// SQLite is a catalog backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite catalog at path and
// migrates the schema.
func NewSQLite(path string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, source, title, chunks, words, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Source, doc.Title, doc.Chunks, doc.Words, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Document, error) {
	return s.query(ctx, `
		SELECT id, source, title, chunks, words, created_at
		FROM documents ORDER BY created_at, id`)
}

func (s *SQLite) BySource(ctx context.Context, source string) ([]Document, error) {
	return s.query(ctx, `
		SELECT id, source, title, chunks, words, created_at
		FROM documents WHERE source = ? ORDER BY created_at, id`, source)
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Source, &d.Title, &d.Chunks, &d.Words, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
