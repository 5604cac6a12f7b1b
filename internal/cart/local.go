package cart

import (
	"context"
	"encoding/json"
	"sync"
)

// LocalStore is device-local key/value storage, the server-side stand-in
// for browser local storage. The Redis device store implements it.
type LocalStore interface {
	Get(ctx context.Context, device, key string, dst any) (bool, error)
	Set(ctx context.Context, device, key string, v any) error
	Delete(ctx context.Context, device, key string) error
}

// MemoryLocalStore is a LocalStore kept in process memory.
type MemoryLocalStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // device -> key -> JSON
}

func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{data: make(map[string]map[string][]byte)}
}

func (s *MemoryLocalStore) Get(ctx context.Context, device, key string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[device][key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (s *MemoryLocalStore) Set(ctx context.Context, device, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[device] == nil {
		s.data[device] = make(map[string][]byte)
	}
	s.data[device][key] = raw
	return nil
}

func (s *MemoryLocalStore) Delete(ctx context.Context, device, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[device], key)
	return nil
}
