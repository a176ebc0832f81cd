package storage

import (
	"context"
	"sync"

	"creator-ai-entitlement/internal/domain/ports/storage"
)

var _ storage.EntitlementStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory EntitlementStore for tests and the demo
// binary. Durability ends with the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func memKey(key string, scope storage.Scope) string {
	if scope == storage.ScopeGlobal {
		return key
	}
	return string(scope) + ":" + key
}

func (s *MemoryStore) Get(_ context.Context, key string, scope storage.Scope) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[memKey(key, scope)], nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, scope storage.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[memKey(key, scope)] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string, scope storage.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, memKey(key, scope))
	return nil
}

// Len reports the number of stored keys; test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
