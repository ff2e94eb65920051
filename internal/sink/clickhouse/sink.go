package clickhouse

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

var schemaStatements = []struct {
	table string
	ddl   string
}{
	{domain.TableSongs, `
	CREATE TABLE IF NOT EXISTS songs (
		song_id String,
		title String,
		artist_id String,
		year Int32,
		duration Float64
	) ENGINE = MergeTree
	PARTITION BY (year, artist_id)
	ORDER BY (song_id, title, artist_id)
	`},
	{domain.TableArtists, `
	CREATE TABLE IF NOT EXISTS artists (
		artist_id String,
		name String,
		location String,
		latitude Nullable(Float64),
		longitude Nullable(Float64)
	) ENGINE = MergeTree
	ORDER BY artist_id
	`},
	{domain.TableUsers, `
	CREATE TABLE IF NOT EXISTS users (
		user_id String,
		first_name String,
		last_name String,
		gender LowCardinality(String),
		level LowCardinality(String)
	) ENGINE = MergeTree
	ORDER BY user_id
	`},
	{domain.TableTime, "\n\tCREATE TABLE IF NOT EXISTS `time` (" + `
		start_time Int64,
		hour UInt8,
		day UInt8,
		week UInt8,
		month UInt8,
		year Int32,
		weekday UInt8
	) ENGINE = MergeTree
	PARTITION BY (year, month)
	ORDER BY start_time
	`},
	{domain.TableSongplays, `
	CREATE TABLE IF NOT EXISTS songplays (
		songplay_id Int64,
		start_time Int64,
		user_id String,
		level LowCardinality(String),
		song_id Nullable(String),
		artist_id Nullable(String),
		session_id Int64,
		location String,
		user_agent String,
		month Nullable(UInt8),
		year Nullable(Int32)
	) ENGINE = MergeTree
	PARTITION BY (year, month)
	ORDER BY (start_time, songplay_id)
	SETTINGS allow_nullable_key = 1
	`},
}

// Sink loads the star schema into ClickHouse tables
type Sink struct {
	conn Conn
	log  *zap.Logger
}

// NewSink creates a new ClickHouse sink
func NewSink(conn Conn, log *zap.Logger) *Sink {
	return &Sink{conn: conn, log: log}
}

func (s *Sink) Name() string {
	return "clickhouse"
}

// InitSchema creates the star schema tables if they don't exist
func (s *Sink) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := s.conn.Exec(ctx, stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.table, err)
		}
	}

	s.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// Stage loads every table into a <name>_staging copy of its live table.
// The live tables are only replaced by Commit.
func (s *Sink) Stage(ctx context.Context, schema *domain.StarSchema) (pipeline.Staged, error) {
	staged := &stagedTables{conn: s.conn, log: s.log}

	steps := []func() (int, error){
		func() (int, error) { return stageTable(ctx, s.conn, schema.Songs, songValues) },
		func() (int, error) { return stageTable(ctx, s.conn, schema.Artists, artistValues) },
		func() (int, error) { return stageTable(ctx, s.conn, schema.Users, userValues) },
		func() (int, error) { return stageTable(ctx, s.conn, schema.Time, timeValues) },
		func() (int, error) { return stageTable(ctx, s.conn, schema.Songplays, songplayValues) },
	}

	for i, step := range steps {
		name := schema.Datasets()[i].TableName()
		staged.tables = append(staged.tables, name)
		inserted, err := step()
		if err != nil {
			if dropErr := staged.Discard(context.WithoutCancel(ctx)); dropErr != nil {
				s.log.Warn("Failed to drop staging tables", zap.Error(dropErr))
			}
			return nil, err
		}
		s.log.Info("ClickHouse table staged",
			zap.String("table", name),
			zap.Int("rows", inserted))
	}
	return staged, nil
}

// stagedTables are filled staging tables waiting to be exchanged with the live ones
type stagedTables struct {
	conn   Conn
	tables []string
	log    *zap.Logger
}

// Commit exchanges every staging table with its live table. If an exchange fails the
// tables already exchanged are swapped back, so the live schema stays on the previous run.
func (t *stagedTables) Commit(ctx context.Context) error {
	for i, name := range t.tables {
		if err := t.conn.Exec(ctx, exchangeStatement(name)); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rbErr := t.conn.Exec(context.WithoutCancel(ctx), exchangeStatement(t.tables[j])); rbErr != nil {
					t.log.Error("Failed to restore previous table",
						zap.String("table", t.tables[j]),
						zap.Error(rbErr))
				}
			}
			if dropErr := t.Discard(context.WithoutCancel(ctx)); dropErr != nil {
				t.log.Warn("Failed to drop staging tables", zap.Error(dropErr))
			}
			return fmt.Errorf("failed to exchange %s: %w", name, err)
		}
	}

	for _, name := range t.tables {
		t.log.Info("ClickHouse table published", zap.String("table", name))
	}

	// The staging tables now hold the previous run
	if err := t.Discard(ctx); err != nil {
		t.log.Warn("Failed to drop previous tables", zap.Error(err))
	}
	return nil
}

// Discard drops every staging table
func (t *stagedTables) Discard(ctx context.Context) error {
	var errs []error
	for _, name := range t.tables {
		if err := t.conn.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(stagingName(name))); err != nil {
			errs = append(errs, fmt.Errorf("failed to drop %s: %w", stagingName(name), err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks if the ClickHouse connection is alive
func (s *Sink) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (s *Sink) Close() error {
	return s.conn.Close()
}

// stageTable recreates the staging copy of a table and batch inserts every row into it
func stageTable[T domain.Row](ctx context.Context, conn Conn, table domain.Table[T], values func(T) []any) (int, error) {
	staging := quoteIdentifier(stagingName(table.Name))

	if err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return 0, fmt.Errorf("failed to drop stale %s staging table: %w", table.Name, err)
	}
	if err := conn.Exec(ctx, "CREATE TABLE "+staging+" AS "+quoteIdentifier(table.Name)); err != nil {
		return 0, fmt.Errorf("failed to create %s staging table: %w", table.Name, err)
	}
	if len(table.Rows) == 0 {
		return 0, nil
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO "+staging)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch for %s: %w", table.Name, err)
	}

	for _, row := range table.Rows {
		if err := batch.Append(values(row)...); err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("failed to append row to %s batch: %w", table.Name, err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send %s batch: %w", table.Name, err)
	}

	return len(table.Rows), nil
}

func stagingName(table string) string {
	return table + "_staging"
}

func exchangeStatement(table string) string {
	return "EXCHANGE TABLES " + quoteIdentifier(table) + " AND " + quoteIdentifier(stagingName(table))
}

func quoteIdentifier(name string) string {
	return "`" + name + "`"
}

func songValues(s domain.Song) []any {
	return []any{s.SongID, s.Title, s.ArtistID, int32(s.Year), s.Duration}
}

func artistValues(a domain.Artist) []any {
	return []any{a.ArtistID, a.Name, a.Location, a.Latitude, a.Longitude}
}

func userValues(u domain.User) []any {
	return []any{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}
}

func timeValues(t domain.TimeRow) []any {
	return []any{t.Timestamp, uint8(t.Hour), uint8(t.Day), uint8(t.Week), uint8(t.Month), int32(t.Year), uint8(t.Weekday)}
}

func songplayValues(p domain.Songplay) []any {
	var month *uint8
	if p.Month != nil {
		m := uint8(*p.Month)
		month = &m
	}
	var year *int32
	if p.Year != nil {
		y := int32(*p.Year)
		year = &y
	}
	return []any{p.SongplayID, p.Timestamp, p.UserID, p.Level, p.SongID, p.ArtistID, p.SessionID, p.Location, p.UserAgent, month, year}
}
