package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var sqliteSchema string

// migrate applies the embedded schema. The schema is authored in SQLite
// dialect; for Postgres the two AUTOINCREMENT identity columns are
// rewritten to the Postgres equivalent, and BLOB becomes BYTEA.
func (s *Store) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.engine == Postgres {
		schema = strings.NewReplacer(
			"INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY",
			"BLOB", "BYTEA",
		).Replace(schema)
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}
