package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	chunks INTEGER NOT NULL,
	words INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
`

// Postgres is a catalog backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to the database, verifies the connection, and
// migrates the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (s *Postgres) Record(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, source, title, chunks, words, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Source, doc.Title, doc.Chunks, doc.Words, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]Document, error) {
	return s.query(ctx, `
		SELECT id, source, title, chunks, words, created_at
		FROM documents ORDER BY created_at, id`)
}

func (s *Postgres) BySource(ctx context.Context, source string) ([]Document, error) {
	return s.query(ctx, `
		SELECT id, source, title, chunks, words, created_at
		FROM documents WHERE source = $1 ORDER BY created_at, id`, source)
}

func (s *Postgres) query(ctx context.Context, q string, args ...any) ([]Document, error) {
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

func (s *Postgres) Close() error {
	return s.db.Close()
}

var _ Store = (*Postgres)(nil)
