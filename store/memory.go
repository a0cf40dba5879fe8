package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Memory is an in-process Store. Values are kept in their encoded form,
// so a caller can never share live references with the store.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]map[string][]byte
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

// Namespace returns the collection for name, creating it if needed.
func (m *Memory) Namespace(name string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if _, ok := m.data[name]; !ok {
		m.data[name] = make(map[string][]byte)
	}
	return &memoryCollection{store: m, name: name}, nil
}

// Close discards all data.
func (m *Memory) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

type memoryCollection struct {
	store *Memory
	name  string
}

func (c *memoryCollection) Get(ctx context.Context, key string, out any) error {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if c.store.closed {
		return ErrClosed
	}
	raw, ok := c.store.data[c.name][key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return msgpack.Unmarshal(raw, out)
}

func (c *memoryCollection) Put(ctx context.Context, key string, value any) error {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.closed {
		return ErrClosed
	}
	c.store.data[c.name][key] = raw
	return nil
}

func (c *memoryCollection) Delete(ctx context.Context, key string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.closed {
		return ErrClosed
	}
	delete(c.store.data[c.name], key)
	return nil
}

func (c *memoryCollection) Keys(ctx context.Context) ([]string, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if c.store.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(c.store.data[c.name]))
	for k := range c.store.data[c.name] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var (
	_ Store      = (*Memory)(nil)
	_ Collection = (*memoryCollection)(nil)
)
