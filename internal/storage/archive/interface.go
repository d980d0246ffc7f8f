// Package archive persists validation reports to a blob store: the local
// filesystem or an S3-compatible bucket.
package archive

import "context"

// Storage is a flat blob store addressed by slash-separated paths.
// Read returns core.ErrNotFound for missing paths.
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
