package kv_test

import (
	"context"
	"errors"
	"testing"

	"docshelf/internal/kv"
)

// newTestStore creates a Store for testing. Tests in this file use the
// Memory implementation; the Badger-backed tests reuse the same logic
// through the badger factory.
func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	s := kv.NewMemory()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := "node/123"
	val := []byte("hello")

	// Get non-existent key.
	_, err := s.Get(ctx, key)
	if !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	// Set and Get.
	if err := s.Set(ctx, key, val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("Get = %q, want %q", got, val)
	}

	// Overwrite.
	val2 := []byte("world")
	if err := s.Set(ctx, key, val2); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if string(got) != string(val2) {
		t.Fatalf("Get = %q, want %q", got, val2)
	}

	// Delete.
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = s.Get(ctx, key)
	if !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}

	// Delete non-existent key should not error.
	if err := s.Delete(ctx, "no/such/key"); err != nil {
		t.Fatalf("Delete non-existent: %v", err)
	}
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entries := []kv.Entry{
		{Key: "node/a", Value: []byte("1")},
		{Key: "node/b", Value: []byte("2")},
		{Key: "node/c", Value: []byte("3")},
		{Key: "contents/a", Value: []byte("x")},
	}
	if err := s.BatchSet(ctx, entries); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}

	got, err := s.Scan(ctx, "node/")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Scan node/: got %d entries, want 3", len(got))
	}
	// Lexicographic key order.
	for i, want := range []string{"node/a", "node/b", "node/c"} {
		if got[i].Key != want {
			t.Fatalf("Scan[%d].Key = %q, want %q", i, got[i].Key, want)
		}
	}

	// Empty prefix returns everything.
	got, err = s.Scan(ctx, "")
	if err != nil {
		t.Fatalf("Scan all: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Scan all: got %d entries, want 4", len(got))
	}

	// Non-matching prefix returns nothing.
	got, err = s.Scan(ctx, "zzz/")
	if err != nil {
		t.Fatalf("Scan zzz/: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Scan zzz/: got %d entries, want 0", len(got))
	}
}

func TestBatchDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.BatchSet(ctx, []kv.Entry{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}

	if err := s.BatchDelete(ctx, []string{"a", "b", "absent"}); err != nil {
		t.Fatalf("BatchDelete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryFail(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	t.Cleanup(func() { m.Close() })

	injected := errors.New("medium down")
	m.Fail(injected)

	if err := m.Set(ctx, "k", []byte("v")); !errors.Is(err, injected) {
		t.Fatalf("Set during failure = %v, want injected error", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, injected) {
		t.Fatalf("Get during failure = %v, want injected error", err)
	}

	// Recover and verify the store works again.
	m.Fail(nil)
	if err := m.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set after recovery: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after recovery: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("Get = %q, want %q", got, "v")
	}
}
