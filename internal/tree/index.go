// Package tree maintains the in-memory hierarchical index over the node
// forest. It answers ancestry and descendant queries without rescanning
// the store and validates structural invariants before a mutation commits:
// id uniqueness, parent-must-be-folder, and acyclicity.
package tree

import (
	"fmt"
	"sync"

	"docshelf/internal/domain"
	"docshelf/internal/domain/models"
)

type entry struct {
	kind     models.Kind
	parentID *string
	children []string
}

// Index is the authoritative parent/child index. It is rebuildable from
// the node store and safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	nodes map[string]*entry
	roots []string
}

// New creates an empty index.
func New() *Index {
	return &Index{nodes: make(map[string]*entry)}
}

// Rebuild replaces the index contents from a flat node list, as loaded
// from the store on cold start. Nodes may arrive in any order.
func (ix *Index) Rebuild(nodes []*models.Node) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.nodes = make(map[string]*entry, len(nodes))
	ix.roots = nil

	for _, n := range nodes {
		if _, ok := ix.nodes[n.ID]; ok {
			return fmt.Errorf("rebuild: node %s: %w", n.ID, domain.ErrDuplicateID)
		}
		ix.nodes[n.ID] = &entry{kind: n.Kind, parentID: copyID(n.ParentID)}
	}

	for _, n := range nodes {
		if n.ParentID == nil {
			ix.roots = append(ix.roots, n.ID)
			continue
		}
		parent, ok := ix.nodes[*n.ParentID]
		if !ok || parent.kind != models.KindFolder {
			return fmt.Errorf("rebuild: node %s parent %s: %w", n.ID, *n.ParentID, domain.ErrInvalidParent)
		}
		parent.children = append(parent.children, n.ID)
	}
	return nil
}

// Insert registers a new node. It rejects id collisions and parents that
// are unknown or not folders, without mutating the index.
func (ix *Index) Insert(n *models.Node) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.nodes[n.ID]; ok {
		return fmt.Errorf("insert %s: %w", n.ID, domain.ErrDuplicateID)
	}
	if n.ParentID != nil {
		parent, ok := ix.nodes[*n.ParentID]
		if !ok || parent.kind != models.KindFolder {
			return fmt.Errorf("insert %s under %s: %w", n.ID, *n.ParentID, domain.ErrInvalidParent)
		}
	}

	ix.nodes[n.ID] = &entry{kind: n.Kind, parentID: copyID(n.ParentID)}
	if n.ParentID == nil {
		ix.roots = append(ix.roots, n.ID)
	} else {
		parent := ix.nodes[*n.ParentID]
		parent.children = append(parent.children, n.ID)
	}
	return nil
}

// Subtree returns the node and all of its descendants in pre-order
// without mutating the index. The engine uses this to stage a cascading
// delete before any store write.
func (ix *Index) Subtree(id string) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if _, ok := ix.nodes[id]; !ok {
		return nil, fmt.Errorf("subtree %s: %w", id, domain.ErrNotFound)
	}
	return ix.preorder(id), nil
}

// Remove deletes the node and its entire subtree from the index and
// returns the removed ids in pre-order.
func (ix *Index) Remove(id string) ([]string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	node, ok := ix.nodes[id]
	if !ok {
		return nil, fmt.Errorf("remove %s: %w", id, domain.ErrNotFound)
	}

	removed := ix.preorder(id)
	for _, rid := range removed {
		delete(ix.nodes, rid)
	}

	if node.parentID == nil {
		ix.roots = removeFrom(ix.roots, id)
	} else if parent, ok := ix.nodes[*node.parentID]; ok {
		parent.children = removeFrom(parent.children, id)
	}
	return removed, nil
}

// Move reparents a node. newParentID nil moves it to the top level.
// Rejects moves that would make the node its own ancestor.
func (ix *Index) Move(id string, newParentID *string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	node, ok := ix.nodes[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, domain.ErrNotFound)
	}
	if newParentID != nil {
		parent, ok := ix.nodes[*newParentID]
		if !ok || parent.kind != models.KindFolder {
			return fmt.Errorf("move %s under %s: %w", id, *newParentID, domain.ErrInvalidParent)
		}
		if *newParentID == id || ix.isDescendant(*newParentID, id) {
			return fmt.Errorf("move %s under %s: %w", id, *newParentID, domain.ErrCycle)
		}
	}

	if node.parentID == nil {
		ix.roots = removeFrom(ix.roots, id)
	} else if oldParent, ok := ix.nodes[*node.parentID]; ok {
		oldParent.children = removeFrom(oldParent.children, id)
	}

	node.parentID = copyID(newParentID)
	if newParentID == nil {
		ix.roots = append(ix.roots, id)
	} else {
		parent := ix.nodes[*newParentID]
		parent.children = append(parent.children, id)
	}
	return nil
}

// Ancestors returns the folder ids from the forest root down to the
// node's immediate parent. A top-level node has no ancestors.
func (ix *Index) Ancestors(id string) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	node, ok := ix.nodes[id]
	if !ok {
		return nil, fmt.Errorf("ancestors %s: %w", id, domain.ErrNotFound)
	}

	var chain []string
	for node.parentID != nil {
		chain = append(chain, *node.parentID)
		node = ix.nodes[*node.parentID]
	}
	// Collected parent-first; reverse to root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Parent returns the node's parent id, nil for top-level nodes.
func (ix *Index) Parent(id string) (*string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	node, ok := ix.nodes[id]
	if !ok {
		return nil, fmt.Errorf("parent %s: %w", id, domain.ErrNotFound)
	}
	return copyID(node.parentID), nil
}

// Children returns the immediate child ids of a folder in insertion
// order. id nil lists the top-level forest.
func (ix *Index) Children(id *string) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if id == nil {
		return append([]string(nil), ix.roots...), nil
	}
	node, ok := ix.nodes[*id]
	if !ok {
		return nil, fmt.Errorf("children %s: %w", *id, domain.ErrNotFound)
	}
	if node.kind != models.KindFolder {
		return nil, fmt.Errorf("children %s: %w", *id, domain.ErrInvalidParent)
	}
	return append([]string(nil), node.children...), nil
}

// Contains reports whether the id is indexed.
func (ix *Index) Contains(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.nodes[id]
	return ok
}

// IsFolder reports whether the id is indexed and refers to a folder.
func (ix *Index) IsFolder(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	node, ok := ix.nodes[id]
	return ok && node.kind == models.KindFolder
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.nodes)
}

// preorder walks the subtree rooted at id. Callers hold the lock.
func (ix *Index) preorder(id string) []string {
	order := []string{id}
	node := ix.nodes[id]
	for _, child := range node.children {
		order = append(order, ix.preorder(child)...)
	}
	return order
}

// isDescendant reports whether candidate sits somewhere under ancestor.
// Callers hold the lock.
func (ix *Index) isDescendant(candidate, ancestor string) bool {
	node := ix.nodes[candidate]
	for node != nil && node.parentID != nil {
		if *node.parentID == ancestor {
			return true
		}
		node = ix.nodes[*node.parentID]
	}
	return false
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

func removeFrom(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
