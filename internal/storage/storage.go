// Package storage provides image storage backends for recipe uploads.
// Implementations exist for the local filesystem (single-node deployments)
// and S3-compatible object storage (shared deployments).
package storage

import (
	"context"
	"errors"
	"io"
)

// Storage errors.
var (
	// ErrImageNotFound indicates the stored image does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrUnsupportedExtension indicates the upload filename has no usable extension.
	ErrUnsupportedExtension = errors.New("unsupported image extension")
)

// ImageStore defines the interface for recipe image storage.
type ImageStore interface {
	// Store persists image content under a freshly generated path and
	// returns that path. The original filename only contributes its
	// extension; the rest of the name is discarded.
	Store(ctx context.Context, reader io.Reader, originalName string) (path string, err error)

	// Open retrieves a stored image by path.
	// Returns ErrImageNotFound if the path does not exist.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a stored image by path. Deleting a missing image
	// is not an error.
	Delete(ctx context.Context, path string) error
}
