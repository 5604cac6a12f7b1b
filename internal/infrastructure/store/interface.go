package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// Collection names shared by the storefront.
const (
	CollectionUsers    = "users"
	CollectionAccounts = "accounts"
	CollectionCarts    = "carts"
	CollectionOrders   = "orders"
)

// DocumentStore persists JSON-shaped documents addressed by collection and id.
// Every backend encodes documents through encoding/json, so field names are
// the json tags of the stored types.
type DocumentStore interface {
	// Get decodes the document into dst or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst any) error

	// Set overwrites the whole document.
	Set(ctx context.Context, collection, id string, doc any) error

	// Merge overlays top-level fields, creating the document if needed.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error

	// Update overlays top-level fields on an existing document or returns
	// ErrNotFound.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}
