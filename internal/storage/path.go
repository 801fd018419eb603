package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// imagePathPrefix is the directory (or key prefix) all recipe images live under.
const imagePathPrefix = "uploads/recipe"

// allowedExtensions lists the image extensions accepted for upload.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImagePath generates a storage path for an uploaded image: a random UUID
// plus the lowercased extension of the original filename.
//
// Example: "uploads/recipe/3f1a7c9e-....png"
func ImagePath(originalName string) (string, error) {
	ext := strings.ToLower(path.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedExtension
	}
	return path.Join(imagePathPrefix, uuid.NewString()+ext), nil
}
