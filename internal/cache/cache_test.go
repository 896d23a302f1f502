package cache

import (
	"context"
	"testing"
	"time"

	"docshelf/internal/domain/models"
	"docshelf/internal/kv"
	"docshelf/internal/store"
)

func newTestCache(t *testing.T) (*ContentCache, store.NodeStore) {
	t.Helper()
	mem := kv.NewMemory()
	t.Cleanup(func() { mem.Close() })
	st := store.NewKVNodeStore(mem)
	return New(st), st
}

func put(t *testing.T, st store.NodeStore, n *models.Node) {
	t.Helper()
	if err := st.Put(context.Background(), n); err != nil {
		t.Fatalf("Put %s: %v", n.ID, err)
	}
}

func node(id string, kind models.Kind, parentID *string, created time.Time) *models.Node {
	return &models.Node{
		ID:          id,
		Kind:        kind,
		Name:        id,
		ParentID:    parentID,
		AccessLevel: models.AccessRestricted,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	c, st := newTestCache(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Interleave kinds and creation times.
	put(t, st, node("doc-old", models.KindDocument, nil, base))
	put(t, st, node("folder-old", models.KindFolder, nil, base.Add(1*time.Hour)))
	put(t, st, node("doc-new", models.KindDocument, nil, base.Add(2*time.Hour)))
	put(t, st, node("folder-new", models.KindFolder, nil, base.Add(3*time.Hour)))

	got, err := c.ListContents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}

	want := []string{"folder-new", "folder-old", "doc-new", "doc-old"}
	if len(got) != len(want) {
		t.Fatalf("ListContents = %v, want %v", names(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("ListContents = %v, want %v", names(got), want)
		}
	}
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	c, st := newTestCache(t)

	base := time.Now().UTC()
	report := node("report", models.KindDocument, nil, base)
	report.Name = "Quarterly Report"
	report.Tags = []string{"finance"}
	put(t, st, report)

	notes := node("notes", models.KindDocument, nil, base)
	notes.Name = "Meeting Notes"
	notes.Tags = []string{"planning"}
	put(t, st, notes)

	// Case-insensitive name substring.
	got, err := c.ListContents(ctx, nil, &models.ListFilter{NameContains: "report"})
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if len(got) != 1 || got[0].ID != "report" {
		t.Fatalf("name filter = %v, want [report]", names(got))
	}

	// Any-of tags.
	got, err = c.ListContents(ctx, nil, &models.ListFilter{Tags: []string{"planning", "absent"}})
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if len(got) != 1 || got[0].ID != "notes" {
		t.Fatalf("tag filter = %v, want [notes]", names(got))
	}

	// Both constraints must hold.
	got, err = c.ListContents(ctx, nil, &models.ListFilter{NameContains: "report", Tags: []string{"planning"}})
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("combined filter = %v, want empty", names(got))
	}
}

func TestInvalidateRefreshes(t *testing.T) {
	ctx := context.Background()
	c, st := newTestCache(t)

	put(t, st, node("d1", models.KindDocument, nil, time.Now().UTC()))

	got, err := c.ListContents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListContents = %v, want 1 entry", names(got))
	}

	// A write the cache has not been told about is invisible.
	put(t, st, node("d2", models.KindDocument, nil, time.Now().UTC()))
	got, err = c.ListContents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("stale read = %v, want 1 entry", names(got))
	}

	// Invalidate forces a re-read.
	c.Invalidate(nil)
	got, err = c.ListContents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("after invalidate = %v, want 2 entries", names(got))
	}
}

func TestReturnedNodesAreCopies(t *testing.T) {
	ctx := context.Background()
	c, st := newTestCache(t)

	put(t, st, node("d1", models.KindDocument, nil, time.Now().UTC()))

	first, err := c.ListContents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	first[0].Name = "mutated"

	second, err := c.ListContents(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListContents: %v", err)
	}
	if second[0].Name != "d1" {
		t.Fatalf("cache entry was mutated through a returned node")
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	c, st := newTestCache(t)

	f := node("f1", models.KindFolder, nil, time.Now().UTC())
	put(t, st, f)
	put(t, st, node("d1", models.KindDocument, &f.ID, time.Now().UTC()))
	put(t, st, node("d2", models.KindDocument, &f.ID, time.Now().UTC()))

	count, err := c.Count(ctx, &f.ID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("Count = %d, want 2", count)
	}
}

func names(nodes []*models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
