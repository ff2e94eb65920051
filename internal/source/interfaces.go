package source

import (
	"context"
	"io"
)

// Source defines the interface for reading raw JSON files from a storage location
type Source interface {
	// List returns the sorted keys of every JSON file under prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Open returns a reader over the file identified by key
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
