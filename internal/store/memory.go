package store

import (
	"context"
	"sync"
)

// MemoryStore is a single-process Store used for tests and for running the
// gateway without Redis. Change callbacks run synchronously on the
// goroutine that performed the write, after the write is visible, so a
// callback that issues further writes observes its own effects in order.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	watchers map[string]map[int]func()
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string][]byte),
		watchers: make(map[string]map[int]func()),
	}
}

func (m *MemoryStore) Put(ctx context.Context, path string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	m.entries[path] = v
	fns := m.watcherFuncs(DocRoot(path))
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Snapshot(ctx context.Context, prefix string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte)
	for path, v := range m.entries {
		if under(path, prefix) {
			c := make([]byte, len(v))
			copy(c, v)
			out[path] = c
		}
	}
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, prefix string) error {
	m.mu.Lock()
	removed := false
	for path := range m.entries {
		if under(path, prefix) {
			delete(m.entries, path)
			removed = true
		}
	}
	var fns []func()
	if removed {
		fns = m.watcherFuncs(DocRoot(prefix))
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (m *MemoryStore) Watch(ctx context.Context, path string, onChange func()) (func(), error) {
	root := DocRoot(path)

	m.mu.Lock()
	if m.watchers[root] == nil {
		m.watchers[root] = make(map[int]func())
	}
	id := m.nextID
	m.nextID++
	m.watchers[root][id] = onChange
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.watchers[root], id)
		if len(m.watchers[root]) == 0 {
			delete(m.watchers, root)
		}
		m.mu.Unlock()
	}
	return cancel, nil
}

// watcherFuncs snapshots the callback list for a document while m.mu is
// held, so delivery can happen outside the lock.
func (m *MemoryStore) watcherFuncs(root string) []func() {
	ws := m.watchers[root]
	if len(ws) == 0 {
		return nil
	}
	fns := make([]func(), 0, len(ws))
	for _, fn := range ws {
		fns = append(fns, fn)
	}
	return fns
}
