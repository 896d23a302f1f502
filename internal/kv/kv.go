// Package kv provides the durable key-value medium under the node store.
// Keys are flat strings namespaced by prefix (e.g. "node/<id>",
// "contents/<folder-id>").
//
// The package includes a BadgerDB-backed implementation for production use
// and an in-memory implementation for testing.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key does not exist in the store.
var ErrKeyNotFound = errors.New("kv: key not found")

// Entry is a key-value pair returned by Scan and consumed by BatchSet.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the minimal contract the node store needs from a KV medium.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan returns all entries whose key starts with prefix, in
	// lexicographic key order.
	Scan(ctx context.Context, prefix string) ([]Entry, error)

	// BatchSet atomically stores multiple entries.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete atomically removes multiple keys.
	BatchDelete(ctx context.Context, keys []string) error

	// Close releases any resources held by the store.
	Close() error
}
