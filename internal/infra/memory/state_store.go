package memory

import (
	"sync"

	"quiz-play-service/internal/app"
)

// StateStore is an in-memory implementation of app.StoreProvider.
type StateStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewStateStore() *StateStore {
	return &StateStore{values: make(map[string][]byte)}
}

// Scope returns a store whose keys are namespaced by device.
func (s *StateStore) Scope(deviceID string) app.PersistedStore {
	return &scopedStore{parent: s, prefix: "play:" + deviceID + ":"}
}

// Len reports the number of stored keys across all scopes.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

type scopedStore struct {
	parent *StateStore
	prefix string
}

func (s *scopedStore) Get(key string) ([]byte, bool, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()
	v, ok := s.parent.values[s.prefix+key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *scopedStore) Set(key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.parent.mu.Lock()
	s.parent.values[s.prefix+key] = v
	s.parent.mu.Unlock()
	return nil
}

func (s *scopedStore) Remove(key string) error {
	s.parent.mu.Lock()
	delete(s.parent.values, s.prefix+key)
	s.parent.mu.Unlock()
	return nil
}
