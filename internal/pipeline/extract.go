package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/source"
)

// fileResult holds what a single raw file produced
type fileResult[T any] struct {
	records []T
	rejects []error
}

// extractor lists the files under a prefix and parses them concurrently.
// Every file is one horizontal partition; results are concatenated in key order.
type extractor[T any] struct {
	source  source.Source
	parse   parseFunc[T]
	workers int
	log     *zap.Logger
}

func (e *extractor[T]) extract(ctx context.Context, name, prefix string) ([]T, InputStats, error) {
	stats := InputStats{Name: name}

	keys, err := e.source.List(ctx, prefix)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to list %s input: %w", name, err)
	}
	stats.Files = len(keys)

	results := make([]fileResult[T], len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, key := range keys {
		g.Go(func() error {
			res, err := e.parseFile(gctx, key)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, fmt.Errorf("failed to extract %s input: %w", name, err)
	}

	var records []T
	for _, res := range results {
		records = append(records, res.records...)
		for _, reject := range res.rejects {
			if stats.Rejections == nil {
				stats.Rejections = make(map[string]int)
			}
			stats.Rejections[rejectionReason(reject)]++
			stats.Skipped++
		}
	}
	stats.Records = len(records)

	if stats.Records == 0 {
		stats.Empty = true
		e.log.Warn("Input collection is empty",
			zap.String("input", name),
			zap.String("prefix", prefix),
			zap.Int("files", stats.Files),
			zap.Error(domain.ErrEmptyInput))
	}

	e.log.Info("Extracted input",
		zap.String("input", name),
		zap.Int("files", stats.Files),
		zap.Int("records", stats.Records),
		zap.Int("skipped", stats.Skipped))

	return records, stats, nil
}

// parseFile reads and decodes one file
func (e *extractor[T]) parseFile(ctx context.Context, key string) (fileResult[T], error) {
	rc, err := e.source.Open(ctx, key)
	if err != nil {
		return fileResult[T]{}, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			e.log.Warn("Failed to close input file", zap.String("key", key), zap.Error(err))
		}
	}()

	records, rejects, err := e.parse(rc, key)
	if err != nil {
		e.log.Error("Failed to parse input file", zap.String("key", key), zap.Error(err))
		return fileResult[T]{}, fmt.Errorf("failed to parse %s: %w", key, err)
	}

	for _, reject := range rejects {
		e.log.Debug("Skipping record", zap.String("key", key), zap.Error(reject))
	}
	if len(rejects) > 0 {
		e.log.Warn("Records skipped in input file",
			zap.String("key", key),
			zap.Int("skipped", len(rejects)),
			zap.Int("accepted", len(records)))
	}

	return fileResult[T]{records: records, rejects: rejects}, nil
}
