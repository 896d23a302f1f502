package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the nodes table and its indexes if they do not
// exist. Safe to run on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if table == "" {
		table = "nodes"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           TEXT PRIMARY KEY,
				kind         TEXT NOT NULL,
				name         TEXT NOT NULL,
				parent_id    TEXT REFERENCES %s(id),
				access_level TEXT NOT NULL,
				tags         TEXT[] NOT NULL DEFAULT '{}',
				created_at   TIMESTAMPTZ NOT NULL,
				updated_at   TIMESTAMPTZ NOT NULL,
				expanded     BOOLEAN NOT NULL DEFAULT FALSE,
				child_count  INTEGER NOT NULL DEFAULT 0,
				file_type    TEXT NOT NULL DEFAULT '',
				byte_size    BIGINT NOT NULL DEFAULT 0,
				version      TEXT NOT NULL DEFAULT '',
				metadata     JSONB
			)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_parent_id ON %s (parent_id)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_tags ON %s USING GIN (tags)`, table, table),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", table, err)
		}
	}
	return nil
}

// DropTable removes the nodes table entirely. Seed tooling only; the
// caller is responsible for refusing to run this in production.
func DropTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if table == "" {
		table = "nodes"
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}
