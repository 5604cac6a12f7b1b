package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process DocumentStore. Documents are kept in encoded
// form, so callers never share memory with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage // collection -> id -> document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]json.RawMessage),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, dst any) error {
	s.mu.RLock()
	raw, ok := s.data[collection][id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return decodeRaw(raw, dst)
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, raw)
	return nil
}

func (s *MemoryStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.overlay(collection, id, fields, false)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.overlay(collection, id, fields, true)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] != nil {
		delete(s.data[collection], id)
	}
	return nil
}

// Len returns the number of documents in a collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection])
}

func (s *MemoryStore) overlay(collection, id string, fields map[string]any, mustExist bool) error {
	fields, err := normalizeFields(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current map[string]any
	raw, ok := s.data[collection][id]
	switch {
	case ok:
		if err := json.Unmarshal(raw, &current); err != nil {
			return err
		}
	case mustExist:
		return ErrNotFound
	}

	merged, err := json.Marshal(overlay(current, fields))
	if err != nil {
		return err
	}
	s.put(collection, id, merged)
	return nil
}

func (s *MemoryStore) put(collection, id string, raw json.RawMessage) {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = raw
}
