package mocks

import (
	"context"
	"sync"

	"github.com/urbanfrill/storefront/internal/infrastructure/store"
)

// MockDocumentStore is a mock implementation of store.DocumentStore for testing.
// Successful calls are served by an in-memory store.
type MockDocumentStore struct {
	mu      sync.Mutex
	backing *store.MemoryStore

	// For tracking calls in tests
	GetCalls    []DocCall
	SetCalls    []DocCall
	MergeCalls  []DocCall
	UpdateCalls []DocCall
	DeleteCalls []DocCall

	GetErr    error
	SetErr    error
	MergeErr  error
	UpdateErr error
	DeleteErr error

	// SetCallback, when provided, replaces Set entirely.
	SetCallback func(ctx context.Context, collection, id string, doc any) error
	// GetCallback, when provided, replaces Get entirely.
	GetCallback func(ctx context.Context, collection, id string, dst any) error
}

// DocCall records parameters passed to a store method
type DocCall struct {
	Collection string
	ID         string
	Data       any
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{backing: store.NewMemoryStore()}
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string, dst any) error {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, DocCall{Collection: collection, ID: id})
	cb, err := m.GetCallback, m.GetErr
	m.mu.Unlock()

	if cb != nil {
		return cb(ctx, collection, id, dst)
	}
	if err != nil {
		return err
	}
	return m.backing.Get(ctx, collection, id, dst)
}

func (m *MockDocumentStore) Set(ctx context.Context, collection, id string, doc any) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, DocCall{Collection: collection, ID: id, Data: doc})
	cb, err := m.SetCallback, m.SetErr
	m.mu.Unlock()

	if cb != nil {
		return cb(ctx, collection, id, doc)
	}
	if err != nil {
		return err
	}
	return m.backing.Set(ctx, collection, id, doc)
}

func (m *MockDocumentStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	m.MergeCalls = append(m.MergeCalls, DocCall{Collection: collection, ID: id, Data: fields})
	err := m.MergeErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.backing.Merge(ctx, collection, id, fields)
}

func (m *MockDocumentStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, DocCall{Collection: collection, ID: id, Data: fields})
	err := m.UpdateErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.backing.Update(ctx, collection, id, fields)
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, DocCall{Collection: collection, ID: id})
	err := m.DeleteErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.backing.Delete(ctx, collection, id)
}

// SetCount returns the number of Set calls made so far.
func (m *MockDocumentStore) SetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SetCalls)
}

// SetErrors replaces the injected errors under the lock.
func (m *MockDocumentStore) SetErrors(get, set error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetErr = get
	m.SetErr = set
}

// Reset clears all recorded calls and injected behaviour
func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backing = store.NewMemoryStore()
	m.GetCalls, m.SetCalls, m.MergeCalls, m.UpdateCalls, m.DeleteCalls = nil, nil, nil, nil, nil
	m.GetErr, m.SetErr, m.MergeErr, m.UpdateErr, m.DeleteErr = nil, nil, nil, nil, nil
	m.SetCallback, m.GetCallback = nil, nil
}

// Seed stores a document without recording a call.
func (m *MockDocumentStore) Seed(collection, id string, doc any) error {
	return m.backing.Set(context.Background(), collection, id, doc)
}

// Peek reads a document without recording a call.
func (m *MockDocumentStore) Peek(collection, id string, dst any) error {
	return m.backing.Get(context.Background(), collection, id, dst)
}

var _ store.DocumentStore = (*MockDocumentStore)(nil)
