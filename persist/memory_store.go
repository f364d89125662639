package persist

import "sync"

// MemoryStore implements Store with an in-process map. Values do not
// survive a restart; it exists for tests and ephemeral embedding.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Read(id string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found := m.entries[id]
	return value, found, nil
}

func (m *MemoryStore) Write(id string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = value
	return nil
}

func (m *MemoryStore) Exists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, found := m.entries[id]
	return found, nil
}

func (m *MemoryStore) Ping() error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) GetType() string {
	return string(StoreTypeMemory)
}
