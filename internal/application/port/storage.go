package port

import "context"

// FileStorage defines file storage operations for templates and rendered artifacts
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string

	// URL returns the public location of a stored file
	URL(relativePath string) string
}
