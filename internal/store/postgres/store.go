// Package postgres provides a NodeStore backed by PostgreSQL for
// deployments that already run a database instead of an embedded KV
// store. The per-folder content lists of the KV layout collapse into
// parent_id queries here; both layouts satisfy the same contract.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docshelf/internal/domain"
	"docshelf/internal/domain/models"
)

// NodeStore implements store.NodeStore over a pgx connection pool.
type NodeStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewNodeStore creates a postgres-backed node store. The table name may
// carry an environment prefix (dev_, test_, prod_).
func NewNodeStore(pool *pgxpool.Pool, table string) *NodeStore {
	if table == "" {
		table = "nodes"
	}
	return &NodeStore{pool: pool, table: table}
}

const nodeColumns = `id, kind, name, parent_id, access_level, tags,
	created_at, updated_at, expanded, child_count,
	file_type, byte_size, version, metadata`

func (s *NodeStore) Get(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, s.table)

	n, err := scanNode(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node %s: %w: %v", id, domain.ErrStorageUnavailable, err)
	}
	return n, nil
}

func (s *NodeStore) Put(ctx context.Context, n *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			access_level = EXCLUDED.access_level,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at,
			expanded = EXCLUDED.expanded,
			child_count = EXCLUDED.child_count,
			file_type = EXCLUDED.file_type,
			byte_size = EXCLUDED.byte_size,
			version = EXCLUDED.version,
			metadata = EXCLUDED.metadata
	`, s.table, nodeColumns)

	_, err := s.pool.Exec(ctx, query,
		n.ID,
		string(n.Kind),
		n.Name,
		n.ParentID,
		string(n.AccessLevel),
		n.Tags,
		n.CreatedAt,
		n.UpdatedAt,
		n.Expanded,
		n.ChildCount,
		n.FileType,
		n.ByteSize,
		n.Version,
		n.Metadata,
	)
	if err != nil {
		return fmt.Errorf("put node %s: %w: %v", n.ID, domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *NodeStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node %s: %w: %v", id, domain.ErrStorageUnavailable, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *NodeStore) ListChildren(ctx context.Context, parentID *string) ([]*models.Node, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id IS NULL`, nodeColumns, s.table)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id = $1`, nodeColumns, s.table)
		args = append(args, *parentID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

func (s *NodeStore) All(ctx context.Context) ([]*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at ASC`, nodeColumns, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var n models.Node
	var kind, level string
	err := row.Scan(
		&n.ID,
		&kind,
		&n.Name,
		&n.ParentID,
		&level,
		&n.Tags,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.Expanded,
		&n.ChildCount,
		&n.FileType,
		&n.ByteSize,
		&n.Version,
		&n.Metadata,
	)
	if err != nil {
		return nil, err
	}
	n.Kind = models.Kind(kind)
	n.AccessLevel = models.AccessLevel(level)
	return &n, nil
}

func collectNodes(rows pgx.Rows) ([]*models.Node, error) {
	var nodes []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w: %v", domain.ErrStorageUnavailable, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return nodes, nil
}
