// Package nav computes breadcrumb chains and validates navigation
// requests against the tree index. Current-path state itself is owned by
// the caller; the engine only derives it.
package nav

import (
	"context"

	"docshelf/internal/domain/models"
	"docshelf/internal/store"
	"docshelf/internal/tree"
)

// PathResolver turns node ids into root-first ancestor chains.
type PathResolver struct {
	idx   *tree.Index
	store store.NodeStore
}

// NewPathResolver creates a resolver over the given index and store.
func NewPathResolver(idx *tree.Index, st store.NodeStore) *PathResolver {
	return &PathResolver{idx: idx, store: st}
}

// BreadcrumbFor returns the chain from the forest root to the node
// itself, root-first. For a chain A > B > C, BreadcrumbFor(C) yields
// [A, B, C].
func (r *PathResolver) BreadcrumbFor(ctx context.Context, id string) ([]*models.Node, error) {
	ancestors, err := r.idx.Ancestors(id)
	if err != nil {
		return nil, err
	}

	chain := make([]*models.Node, 0, len(ancestors)+1)
	for _, aid := range append(ancestors, id) {
		n, err := r.store.Get(ctx, aid)
		if err != nil {
			return nil, err
		}
		chain = append(chain, n)
	}
	return chain, nil
}

// Navigate computes the next breadcrumb path for a navigation request.
// Clicking an ancestor already on the path truncates back to it instead
// of pushing a duplicate segment; any other target is drilled into by
// appending.
func Navigate(currentPath []string, targetID string) []string {
	for i, id := range currentPath {
		if id == targetID {
			return append([]string(nil), currentPath[:i+1]...)
		}
	}
	next := make([]string, 0, len(currentPath)+1)
	next = append(next, currentPath...)
	return append(next, targetID)
}
