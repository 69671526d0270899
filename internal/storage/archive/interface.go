// internal/storage/archive/interface.go
package archive

import "context"

// Storage defines the interface for the landing storage backends records are written to
type Storage interface {
	// Write creates or overwrites the object at the given path
	Write(ctx context.Context, path string, data []byte, contentType string) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error
}
