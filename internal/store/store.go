// Package store persists node records and per-folder content lists.
// It is a pure storage primitive: keyed lookups only, no tree semantics.
package store

import (
	"context"

	"docshelf/internal/domain/models"
)

// NodeStore is the persistence contract the engine writes through.
//
// Implementations must map "record missing" to domain.ErrNotFound and any
// medium failure to domain.ErrStorageUnavailable, propagated unchanged —
// the store never retries internally.
type NodeStore interface {
	// Get retrieves a node by id.
	Get(ctx context.Context, id string) (*models.Node, error)

	// Put stores a node wholesale (last-writer-wins on UpdatedAt) and
	// keeps the containing folder's content list in step.
	Put(ctx context.Context, n *models.Node) error

	// Delete removes a node record and its content-list membership.
	// Deleting a folder also drops the folder's own content list.
	Delete(ctx context.Context, id string) error

	// ListChildren returns the immediate children of a folder.
	// parentID nil lists the top-level forest.
	ListChildren(ctx context.Context, parentID *string) ([]*models.Node, error)

	// All returns every node record. Used to rebuild the in-memory
	// index and cache on cold start.
	All(ctx context.Context) ([]*models.Node, error)
}
