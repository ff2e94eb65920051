package pipeline

import (
	"context"
	"io"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
)

// Sink defines the interface for persisting a derived star schema.
// Loading is two-phase: every sink stages the full schema before any of them publishes it.
type Sink interface {
	// Name identifies the sink in logs and reports
	Name() string

	// Stage writes every table next to the published ones without replacing them
	Stage(ctx context.Context, schema *domain.StarSchema) (Staged, error)
}

// Staged is a star schema written by a sink but not yet published
type Staged interface {
	// Commit replaces the published tables with the staged ones
	Commit(ctx context.Context) error

	// Discard drops the staged tables and leaves the published ones untouched
	Discard(ctx context.Context) error
}

// parseFunc decodes one raw file into records and per-record rejections
type parseFunc[T any] func(r io.Reader, source string) ([]T, []error, error)
