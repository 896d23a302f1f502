package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"docshelf/internal/domain"
	"docshelf/internal/domain/models"
	"docshelf/internal/kv"
)

const (
	nodeKeyPrefix     = "node/"
	contentsKeyPrefix = "contents/"

	// rootBucket keys the content list of the top-level forest.
	// Node ids are UUIDs, so the name cannot collide.
	rootBucket = "root"
)

func nodeKey(id string) string { return nodeKeyPrefix + id }

func contentsKey(parentID *string) string {
	if parentID == nil {
		return contentsKeyPrefix + rootBucket
	}
	return contentsKeyPrefix + *parentID
}

// KVNodeStore implements NodeStore over a kv.Store.
//
// Layout: one JSON record per node under "node/<id>", one JSON array of
// child ids per folder under "contents/<folder-id>" ("contents/root" for
// the top level). The child-id records exist so the content cache can be
// reconstructed on cold start without scanning every node.
type KVNodeStore struct {
	kv kv.Store
}

// NewKVNodeStore creates a node store over the given KV medium.
func NewKVNodeStore(store kv.Store) *KVNodeStore {
	return &KVNodeStore{kv: store}
}

func (s *KVNodeStore) Get(ctx context.Context, id string) (*models.Node, error) {
	data, err := s.kv.Get(ctx, nodeKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node %s: %w: %v", id, domain.ErrStorageUnavailable, err)
	}
	var n models.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode node %s: %w: %v", id, domain.ErrStorageUnavailable, err)
	}
	return &n, nil
}

func (s *KVNodeStore) Put(ctx context.Context, n *models.Node) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode node %s: %w: %v", n.ID, domain.ErrStorageUnavailable, err)
	}

	entries := []kv.Entry{{Key: nodeKey(n.ID), Value: data}}

	// Reconcile content-list membership when the node is new or has
	// been reparented.
	prev, err := s.Get(ctx, n.ID)
	switch {
	case err == nil:
		if !sameParent(prev.ParentID, n.ParentID) {
			removed, err := s.childList(ctx, prev.ParentID)
			if err != nil {
				return err
			}
			entry, err := encodeChildList(prev.ParentID, removeID(removed, n.ID))
			if err != nil {
				return err
			}
			entries = append(entries, entry)

			added, err := s.childList(ctx, n.ParentID)
			if err != nil {
				return err
			}
			entry, err = encodeChildList(n.ParentID, appendID(added, n.ID))
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
	case errors.Is(err, domain.ErrNotFound):
		siblings, err := s.childList(ctx, n.ParentID)
		if err != nil {
			return err
		}
		entry, err := encodeChildList(n.ParentID, appendID(siblings, n.ID))
		if err != nil {
			return err
		}
		entries = append(entries, entry)

		// New folders start with an empty content list.
		if n.IsFolder() {
			entry, err := encodeChildList(&n.ID, nil)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
	default:
		return err
	}

	if err := s.kv.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("put node %s: %w: %v", n.ID, domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *KVNodeStore) Delete(ctx context.Context, id string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	keys := []string{nodeKey(id)}
	if n.IsFolder() {
		keys = append(keys, contentsKey(&id))
	}
	if err := s.kv.BatchDelete(ctx, keys); err != nil {
		return fmt.Errorf("delete node %s: %w: %v", id, domain.ErrStorageUnavailable, err)
	}

	// Drop membership from the parent's list. When the parent's own
	// list record is already gone mid-cascade, writing it back would
	// resurrect an orphaned record, so skip instead.
	siblings, found, err := s.childListIfPresent(ctx, n.ParentID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	entry, err := encodeChildList(n.ParentID, removeID(siblings, id))
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, entry.Key, entry.Value); err != nil {
		return fmt.Errorf("update contents for node %s: %w: %v", id, domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *KVNodeStore) ListChildren(ctx context.Context, parentID *string) ([]*models.Node, error) {
	ids, err := s.childList(ctx, parentID)
	if err != nil {
		return nil, err
	}
	nodes := make([]*models.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Stale membership entry; skip rather than fail the listing.
				continue
			}
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (s *KVNodeStore) All(ctx context.Context) ([]*models.Node, error) {
	entries, err := s.kv.Scan(ctx, nodeKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w: %v", domain.ErrStorageUnavailable, err)
	}
	nodes := make([]*models.Node, 0, len(entries))
	for _, e := range entries {
		var n models.Node
		if err := json.Unmarshal(e.Value, &n); err != nil {
			return nil, fmt.Errorf("decode %s: %w: %v", e.Key, domain.ErrStorageUnavailable, err)
		}
		nodes = append(nodes, &n)
	}
	return nodes, nil
}

// childList reads the raw id list for a folder. A missing record reads
// as empty.
func (s *KVNodeStore) childList(ctx context.Context, parentID *string) ([]string, error) {
	ids, _, err := s.childListIfPresent(ctx, parentID)
	return ids, err
}

func (s *KVNodeStore) childListIfPresent(ctx context.Context, parentID *string) ([]string, bool, error) {
	data, err := s.kv.Get(ctx, contentsKey(parentID))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get contents %s: %w: %v", contentsKey(parentID), domain.ErrStorageUnavailable, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false, fmt.Errorf("decode contents %s: %w: %v", contentsKey(parentID), domain.ErrStorageUnavailable, err)
	}
	return ids, true, nil
}

func encodeChildList(parentID *string, ids []string) (kv.Entry, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return kv.Entry{}, fmt.Errorf("encode contents: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return kv.Entry{Key: contentsKey(parentID), Value: data}, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func appendID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
