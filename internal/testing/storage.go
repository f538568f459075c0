package testing

import (
	"sync"

	"github.com/desertthunder/learnx/internal/shared"
)

// MemoryStorage is an in-memory key-value store satisfying the store.Storage port.
type MemoryStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.writes++
	return nil
}

// Put seeds raw content without counting a write.
func (m *MemoryStorage) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

// Raw returns the stored value as a string, or "" when absent.
func (m *MemoryStorage) Raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

// Writes counts Set and Remove calls.
func (m *MemoryStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailingStorage serves reads from Initial and fails every write.
type FailingStorage struct {
	Initial map[string][]byte
}

func (f *FailingStorage) Get(key string) ([]byte, error) {
	v, ok := f.Initial[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (f *FailingStorage) Set(string, []byte) error { return shared.ErrStorageFailed }

func (f *FailingStorage) Remove(string) error { return shared.ErrStorageFailed }
