package catalog

import (
	"fmt"
	"strings"
)

// New creates a catalog store based on the DSN.
//   - Empty DSN: in-memory, lost at process exit.
//   - postgres:// or postgresql://: PostgreSQL.
//   - Anything else: SQLite at the given path.
func New(dsn string) (Store, error) {
	if dsn == "" {
		return NewMemory(), nil
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err := NewPostgres(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	}

	return NewSQLite(dsn)
}
