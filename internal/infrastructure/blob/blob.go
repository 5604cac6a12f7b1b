// Package blob stores uploaded files such as profile pictures.
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// Store uploads and removes objects addressed by a slash-separated path.
type Store interface {
	// Upload writes the object and returns its public download URL.
	Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}
