package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"docshelf/internal/domain"
	"docshelf/internal/domain/models"
	"docshelf/internal/kv"
)

func newTestStore(t *testing.T) (*KVNodeStore, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	t.Cleanup(func() { mem.Close() })
	return NewKVNodeStore(mem), mem
}

func folderNode(id string, parentID *string) *models.Node {
	now := time.Now().UTC()
	return &models.Node{
		ID:          id,
		Kind:        models.KindFolder,
		Name:        "folder-" + id,
		ParentID:    parentID,
		AccessLevel: models.AccessRestricted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func documentNode(id string, parentID *string) *models.Node {
	now := time.Now().UTC()
	return &models.Node{
		ID:          id,
		Kind:        models.KindDocument,
		Name:        "doc-" + id,
		ParentID:    parentID,
		AccessLevel: models.AccessRestricted,
		CreatedAt:   now,
		UpdatedAt:   now,
		FileType:    "md",
		Version:     "v1",
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	n := documentNode("d1", nil)
	n.Tags = []string{"alpha", "beta"}
	n.Metadata = map[string]any{"author": "ops"}

	if err := s.Put(ctx, n); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != n.Name || got.FileType != "md" || got.Version != "v1" {
		t.Fatalf("Get = %+v, want fields of %+v", got, n)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("Get tags = %v, want 2 entries", got.Tags)
	}

	_, err = s.Get(ctx, "absent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get absent = %v, want ErrNotFound", err)
	}
}

func TestPutMaintainsContentLists(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	f := folderNode("f1", nil)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put folder: %v", err)
	}
	if err := s.Put(ctx, documentNode("d1", &f.ID)); err != nil {
		t.Fatalf("Put doc: %v", err)
	}
	if err := s.Put(ctx, documentNode("d2", nil)); err != nil {
		t.Fatalf("Put root doc: %v", err)
	}

	children, err := s.ListChildren(ctx, &f.ID)
	if err != nil {
		t.Fatalf("ListChildren(f1): %v", err)
	}
	if len(children) != 1 || children[0].ID != "d1" {
		t.Fatalf("ListChildren(f1) = %v, want [d1]", ids(children))
	}

	roots, err := s.ListChildren(ctx, nil)
	if err != nil {
		t.Fatalf("ListChildren(root): %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("ListChildren(root) = %v, want [f1 d2]", ids(roots))
	}

	// Re-putting the same node must not duplicate membership.
	if err := s.Put(ctx, documentNode("d1", &f.ID)); err != nil {
		t.Fatalf("Put doc again: %v", err)
	}
	children, err = s.ListChildren(ctx, &f.ID)
	if err != nil {
		t.Fatalf("ListChildren(f1): %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("ListChildren(f1) after re-put = %v, want 1 entry", ids(children))
	}
}

func TestPutReparents(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a := folderNode("a", nil)
	b := folderNode("b", nil)
	if err := s.Put(ctx, a); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := s.Put(ctx, b); err != nil {
		t.Fatalf("Put b: %v", err)
	}
	if err := s.Put(ctx, documentNode("d", &a.ID)); err != nil {
		t.Fatalf("Put d: %v", err)
	}

	moved := documentNode("d", &b.ID)
	if err := s.Put(ctx, moved); err != nil {
		t.Fatalf("Put moved: %v", err)
	}

	inA, err := s.ListChildren(ctx, &a.ID)
	if err != nil {
		t.Fatalf("ListChildren(a): %v", err)
	}
	if len(inA) != 0 {
		t.Fatalf("ListChildren(a) = %v, want empty", ids(inA))
	}
	inB, err := s.ListChildren(ctx, &b.ID)
	if err != nil {
		t.Fatalf("ListChildren(b): %v", err)
	}
	if len(inB) != 1 || inB[0].ID != "d" {
		t.Fatalf("ListChildren(b) = %v, want [d]", ids(inB))
	}
}

func TestDeleteRemovesContentRecord(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	f := folderNode("f1", nil)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put folder: %v", err)
	}
	d := documentNode("d1", &f.ID)
	if err := s.Put(ctx, d); err != nil {
		t.Fatalf("Put doc: %v", err)
	}

	// Cascade order: parent folder first, then its child.
	if err := s.Delete(ctx, "f1"); err != nil {
		t.Fatalf("Delete f1: %v", err)
	}
	if err := s.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete d1: %v", err)
	}

	// No node or content record may survive, in particular the child's
	// delete must not resurrect the folder's content list.
	entries, err := mem.Scan(ctx, "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, e := range entries {
		if e.Key != "contents/root" {
			t.Fatalf("orphaned record %q survived the cascade", e.Key)
		}
	}

	if err := s.Delete(ctx, "f1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete deleted node = %v, want ErrNotFound", err)
	}
}

func TestListChildrenSkipsStaleIDs(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	f := folderNode("f1", nil)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put folder: %v", err)
	}
	if err := s.Put(ctx, documentNode("d1", &f.ID)); err != nil {
		t.Fatalf("Put doc: %v", err)
	}

	// Simulate a stale membership entry by dropping the node record
	// directly on the medium.
	if err := mem.Delete(ctx, "node/d1"); err != nil {
		t.Fatalf("raw delete: %v", err)
	}

	children, err := s.ListChildren(ctx, &f.ID)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("ListChildren = %v, want empty", ids(children))
	}
}

func TestAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	f := folderNode("f1", nil)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, documentNode("d1", &f.ID)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All = %v, want 2 nodes", ids(all))
	}
}

func TestStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	if err := s.Put(ctx, folderNode("f1", nil)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	mem.Fail(errors.New("medium down"))

	if _, err := s.Get(ctx, "f1"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Get = %v, want ErrStorageUnavailable", err)
	}
	if err := s.Put(ctx, documentNode("d1", nil)); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Put = %v, want ErrStorageUnavailable", err)
	}
	if err := s.Delete(ctx, "f1"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Delete = %v, want ErrStorageUnavailable", err)
	}
	if _, err := s.All(ctx); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("All = %v, want ErrStorageUnavailable", err)
	}
}

func ids(nodes []*models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
