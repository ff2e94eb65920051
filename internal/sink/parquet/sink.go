package parquet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

const partFile = "part-00000.parquet"

// Sink writes every table as a directory of parquet files under a root directory.
// Partitioned tables use hive-style key=value sub directories.
type Sink struct {
	root string
	log  *zap.Logger
}

// NewSink creates a new parquet sink writing under root
func NewSink(root string, log *zap.Logger) *Sink {
	return &Sink{root: root, log: log}
}

func (s *Sink) Name() string {
	return "parquet"
}

// Stage writes every table into a scratch directory under root. The published table
// directories are only replaced by Commit.
func (s *Sink) Stage(ctx context.Context, schema *domain.StarSchema) (pipeline.Staged, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	out := &stagedOutput{
		root:    s.root,
		staging: filepath.Join(s.root, ".staging-"+uuid.NewString()),
		log:     s.log,
	}
	if err := os.MkdirAll(out.staging, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	steps := []func() (int, error){
		func() (int, error) { return writeTable(ctx, out.staging, schema.Songs) },
		func() (int, error) { return writeTable(ctx, out.staging, schema.Artists) },
		func() (int, error) { return writeTable(ctx, out.staging, schema.Users) },
		func() (int, error) { return writeTable(ctx, out.staging, schema.Time) },
		func() (int, error) { return writeTable(ctx, out.staging, schema.Songplays) },
	}
	for i, step := range steps {
		ds := schema.Datasets()[i]
		files, err := step()
		if err != nil {
			out.removeStaging()
			return nil, err
		}
		out.tables = append(out.tables, stagedTable{name: ds.TableName(), rows: ds.Len()})
		s.log.Debug("Staged parquet table",
			zap.String("table", ds.TableName()),
			zap.Int("files", files))
	}

	return out, nil
}

type stagedTable struct {
	name string
	rows int
}

// stagedOutput is a fully written scratch directory waiting to replace the published tables
type stagedOutput struct {
	root    string
	staging string
	tables  []stagedTable
	log     *zap.Logger
}

// Commit swaps every staged table directory in. The previous directories are moved aside
// first and restored if a later swap fails.
func (o *stagedOutput) Commit(ctx context.Context) error {
	defer o.removeStaging()

	previous := filepath.Join(o.staging, ".previous")
	if err := os.MkdirAll(previous, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	var swapped []string
	for _, table := range o.tables {
		if err := o.swap(table.name, previous); err != nil {
			o.restore(swapped, previous)
			return err
		}
		swapped = append(swapped, table.name)
	}

	for _, table := range o.tables {
		o.log.Info("Parquet table written",
			zap.String("table", table.name),
			zap.String("path", filepath.Join(o.root, table.name)),
			zap.Int("rows", table.rows))
	}
	return nil
}

// Discard removes the scratch directory
func (o *stagedOutput) Discard(ctx context.Context) error {
	if err := os.RemoveAll(o.staging); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return nil
}

func (o *stagedOutput) swap(name, previous string) error {
	target := filepath.Join(o.root, name)
	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, filepath.Join(previous, name)); err != nil {
			return fmt.Errorf("failed to move previous %s output aside: %w", name, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to inspect previous %s output: %w", name, err)
	}

	if err := os.Rename(filepath.Join(o.staging, name), target); err != nil {
		o.restore([]string{name}, previous)
		return fmt.Errorf("failed to publish %s output: %w", name, err)
	}
	return nil
}

// restore puts the previous directories of the given tables back in place
func (o *stagedOutput) restore(names []string, previous string) {
	for _, name := range names {
		target := filepath.Join(o.root, name)
		backup := filepath.Join(previous, name)
		if _, err := os.Stat(backup); err != nil {
			// No previous output; drop what was published
			_ = os.RemoveAll(target)
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			o.log.Error("Failed to remove partially published table", zap.String("table", name), zap.Error(err))
			continue
		}
		if err := os.Rename(backup, target); err != nil {
			o.log.Error("Failed to restore previous table", zap.String("table", name), zap.Error(err))
		}
	}
}

func (o *stagedOutput) removeStaging() {
	if err := os.RemoveAll(o.staging); err != nil {
		o.log.Warn("Failed to remove staging directory", zap.String("path", o.staging), zap.Error(err))
	}
}

// writeTable writes one file per partition and returns the number of files written
func writeTable[T domain.Row](ctx context.Context, root string, table domain.Table[T]) (int, error) {
	tableDir := filepath.Join(root, table.Name)
	if err := os.MkdirAll(tableDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s directory: %w", table.Name, err)
	}

	partitions, order := groupByPartition(table)
	for _, dir := range order {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := writeFile(filepath.Join(tableDir, dir, partFile), partitions[dir]); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", table.Name, err)
		}
	}
	return len(order), nil
}

// groupByPartition buckets rows by partition directory, keeping first-seen order.
// An unpartitioned table yields a single bucket at the table root, even when empty.
func groupByPartition[T domain.Row](table domain.Table[T]) (map[string][]T, []string) {
	partitions := make(map[string][]T)
	var order []string

	if len(table.PartitionKeys) == 0 {
		return map[string][]T{"": table.Rows}, []string{""}
	}

	for _, row := range table.Rows {
		dir := PartitionPath(table.PartitionKeys, row.PartitionValues())
		if _, ok := partitions[dir]; !ok {
			order = append(order, dir)
		}
		partitions[dir] = append(partitions[dir], row)
	}
	return partitions, order
}

func writeFile[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// PartitionPath renders partition values as nested key=value directories
func PartitionPath(keys, values []string) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		value := domain.NullPartition
		if i < len(values) && values[i] != "" {
			value = escapePartitionValue(values[i])
		}
		parts[i] = key + "=" + value
	}
	return filepath.Join(parts...)
}

// escapePartitionValue percent-encodes characters that cannot appear in a directory name
func escapePartitionValue(v string) string {
	if v == domain.NullPartition {
		return v
	}
	var b strings.Builder
	for _, r := range v {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`"#%'*/:=?\{}[]^`, r) {
			fmt.Fprintf(&b, "%%%02X", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
