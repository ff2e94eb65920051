package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Source reads raw files from a directory tree on the local filesystem
type Source struct {
	root string
	log  *zap.Logger
}

// New creates a new local source rooted at dir
func New(dir string, log *zap.Logger) *Source {
	return &Source{root: dir, log: log}
}

// List walks root/prefix and returns slash-separated keys relative to root
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	base := filepath.Join(s.root, filepath.FromSlash(prefix))

	var keys []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".json") {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", base, err)
	}

	sort.Strings(keys)

	s.log.Debug("Listed local files",
		zap.String("prefix", prefix),
		zap.Int("file_count", len(keys)))

	return keys, nil
}

// Open opens the file identified by key
func (s *Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(path.Clean(key))))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}
