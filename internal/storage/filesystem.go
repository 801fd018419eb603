package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FilesystemStore stores images on the local filesystem under a media root.
type FilesystemStore struct {
	root   string
	logger zerolog.Logger
}

// NewFilesystemStore creates a filesystem image store rooted at mediaDir.
func NewFilesystemStore(mediaDir string, logger zerolog.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(filepath.Join(mediaDir, filepath.FromSlash(imagePathPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &FilesystemStore{
		root:   mediaDir,
		logger: logger.With().Str("storage", "filesystem").Logger(),
	}, nil
}

// Store writes the image to disk and returns its storage path.
func (s *FilesystemStore) Store(ctx context.Context, reader io.Reader, originalName string) (string, error) {
	imagePath, err := ImagePath(originalName)
	if err != nil {
		return "", err
	}

	fullPath := s.fullPath(imagePath)
	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	s.logger.Debug().Str("path", imagePath).Msg("image stored")
	return imagePath, nil
}

// Open opens a stored image for reading.
func (s *FilesystemStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return f, nil
}

// Delete removes a stored image. A missing file is not an error.
func (s *FilesystemStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(s.fullPath(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// fullPath resolves a storage path inside the media root. Any ".."
// components are dropped so a path can never escape the root.
func (s *FilesystemStore) fullPath(path string) string {
	parts := strings.Split(path, "/")
	clean := parts[:0]
	for _, p := range parts {
		if p == ".." || p == "." || p == "" {
			continue
		}
		clean = append(clean, p)
	}
	return filepath.Join(s.root, filepath.Join(clean...))
}

// Ensure FilesystemStore implements ImageStore.
var _ ImageStore = (*FilesystemStore)(nil)
