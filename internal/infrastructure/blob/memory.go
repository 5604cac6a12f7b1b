package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// Object is a stored file held by MemoryStore.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps objects in process. DeleteErr lets tests exercise the
// cleanup paths.
type MemoryStore struct {
	mu        sync.Mutex
	baseURL   string
	objects   map[string]Object
	DeleteErr error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://files"
	}
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]Object)}
}

func (s *MemoryStore) Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) (string, error) {
	if path == "" {
		return "", errors.New("blob: empty path")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = Object{ContentType: contentType, Data: buf.Bytes()}
	return s.baseURL + "/" + path, nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, path)
	return nil
}

// Object returns a stored object.
func (s *MemoryStore) Object(path string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[path]
	return o, ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GCSStore)(nil)
	_ Store = (*MinIOStore)(nil)
)
