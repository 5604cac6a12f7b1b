package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Count int      `json:"count"`
}

// ============================================
// Get / Set
// ============================================

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	var doc testDoc
	err := s.Get(context.Background(), "users", "u1", &doc)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetThenGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "users", "u1", testDoc{Name: "Asha", Count: 2}))

	var doc testDoc
	require.NoError(t, s.Get(ctx, "users", "u1", &doc))
	assert.Equal(t, testDoc{Name: "Asha", Count: 2}, doc)
	assert.Equal(t, 1, s.Len("users"))
	assert.Equal(t, 0, s.Len("carts"))
}

func TestMemoryStore_DoesNotShareMemory(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tags := []string{"a"}
	require.NoError(t, s.Set(ctx, "users", "u1", testDoc{Name: "x", Tags: tags}))
	tags[0] = "mutated"

	var doc testDoc
	require.NoError(t, s.Get(ctx, "users", "u1", &doc))
	assert.Equal(t, []string{"a"}, doc.Tags)
}

// ============================================
// Merge / Update
// ============================================

func TestMemoryStore_MergeCreatesAndOverlays(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Merge(ctx, "users", "u1", map[string]any{"name": "Asha"}))
	require.NoError(t, s.Merge(ctx, "users", "u1", map[string]any{"count": 3}))

	var doc testDoc
	require.NoError(t, s.Get(ctx, "users", "u1", &doc))
	assert.Equal(t, "Asha", doc.Name)
	assert.Equal(t, 3, doc.Count)
}

func TestMemoryStore_UpdateRequiresDocument(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Update(ctx, "orders", "o1", map[string]any{"status": "paid"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "orders", "o1", map[string]any{"status": "pending", "total": 10}))
	require.NoError(t, s.Update(ctx, "orders", "o1", map[string]any{"status": "paid"}))

	var doc map[string]any
	require.NoError(t, s.Get(ctx, "orders", "o1", &doc))
	assert.Equal(t, "paid", doc["status"])
	assert.Equal(t, float64(10), doc["total"])
}

func TestMemoryStore_MergeNormalizesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Merge(ctx, "users", "u1", map[string]any{"updatedAt": at}))

	var doc map[string]any
	require.NoError(t, s.Get(ctx, "users", "u1", &doc))
	assert.Equal(t, "2024-05-01T10:00:00Z", doc["updatedAt"])
}

// ============================================
// Delete
// ============================================

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "users", "nobody"))
	require.NoError(t, s.Set(ctx, "users", "u1", testDoc{Name: "x"}))
	require.NoError(t, s.Delete(ctx, "users", "u1"))

	var doc testDoc
	assert.ErrorIs(t, s.Get(ctx, "users", "u1", &doc), ErrNotFound)
}
