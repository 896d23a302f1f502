package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

func sprintf(f string, v ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(f, v...), "\n")
}

// Memory is an in-memory Store backed by a plain map. It is safe for
// concurrent use and intended for tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte

	// failing, when set, makes every operation return this error.
	// Tests use it to simulate an unavailable medium.
	failing error
}

// NewMemory creates a new in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Fail makes all subsequent operations return err. Pass nil to recover.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.failing = err
	m.mu.Unlock()
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing != nil {
		return nil, m.failing
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Scan(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing != nil {
		return nil, m.failing
	}
	var entries []Entry
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			cp := make([]byte, len(v))
			copy(cp, v)
			entries = append(entries, Entry{Key: k, Value: cp})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	for _, e := range entries {
		cp := make([]byte, len(e.Value))
		copy(cp, e.Value)
		m.data[e.Key] = cp
	}
	return nil
}

func (m *Memory) BatchDelete(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
