// Package storage defines the read-only content file-system abstraction.
package storage

import "github.com/evomics/docs/internal/models"

// Provider is the interface for content file access.
type Provider interface {
	// List returns metadata for every content file (.md, .mdx, meta.json)
	// under dir (relative to the collection root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the collection root).
	Read(path string) ([]byte, error)
	// Root returns the absolute directory the provider is rooted at.
	Root() string
}
