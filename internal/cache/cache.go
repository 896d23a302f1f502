// Package cache materializes per-folder content listings. Entries are
// derived from the node store, invalidated on write, and re-read lazily
// on the next listing - a folder's entry never spills into another
// folder's.
package cache

import (
	"context"
	"sort"
	"sync"

	"docshelf/internal/domain/models"
	"docshelf/internal/store"
)

const rootBucket = "\x00root"

// ContentCache serves "what's inside folder X" lookups without touching
// the store on the hot path. The engine invalidates affected folders
// after every membership mutation.
type ContentCache struct {
	mu      sync.RWMutex
	store   store.NodeStore
	entries map[string][]*models.Node
}

// New creates a content cache over the given node store.
func New(st store.NodeStore) *ContentCache {
	return &ContentCache{
		store:   st,
		entries: make(map[string][]*models.Node),
	}
}

func bucket(folderID *string) string {
	if folderID == nil {
		return rootBucket
	}
	return *folderID
}

// ListContents returns the immediate children of a folder, filtered and
// in stable UI order: folders before documents, most recently created
// first. Returned nodes are copies; mutating them does not touch the
// cache.
func (c *ContentCache) ListContents(ctx context.Context, folderID *string, filter *models.ListFilter) ([]*models.Node, error) {
	nodes, err := c.load(ctx, folderID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Node, 0, len(nodes))
	for _, n := range nodes {
		if filter.Matches(n) {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

// Count returns the live number of immediate children of a folder.
func (c *ContentCache) Count(ctx context.Context, folderID *string) (int, error) {
	nodes, err := c.load(ctx, folderID)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Invalidate forces a store re-read on the folder's next listing.
// Called after any mutation that touches the folder's membership.
func (c *ContentCache) Invalidate(folderID *string) {
	c.mu.Lock()
	delete(c.entries, bucket(folderID))
	c.mu.Unlock()
}

// Drop removes the entry of a deleted folder so it cannot serve stale
// listings. Identical to Invalidate but named for the delete path.
func (c *ContentCache) Drop(folderID string) {
	c.Invalidate(&folderID)
}

func (c *ContentCache) load(ctx context.Context, folderID *string) ([]*models.Node, error) {
	key := bucket(folderID)

	c.mu.RLock()
	nodes, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return nodes, nil
	}

	nodes, err := c.store.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	Order(nodes)

	c.mu.Lock()
	c.entries[key] = nodes
	c.mu.Unlock()
	return nodes, nil
}

// Order sorts a listing in place: folders before documents, then by
// CreatedAt descending so the newest item surfaces at the top, then by
// id for a deterministic tie-break.
func Order(nodes []*models.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
