package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/parser"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/source"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/transform"
)

// Config configures a pipeline
type Config struct {
	SongPrefix   string
	LogPrefix    string
	Workers      int
	SongplayNode int64
}

// Pipeline extracts the raw song and log collections, derives the star schema and loads it into every sink
type Pipeline struct {
	songs  *extractor[domain.SongRecord]
	logs   *extractor[domain.LogEvent]
	sinks  []Sink
	config Config
	log    *zap.Logger
}

// NewPipeline creates a new pipeline reading from src and writing to sinks
func NewPipeline(src source.Source, sinks []Sink, cfg Config, log *zap.Logger) (*Pipeline, error) {
	if len(sinks) == 0 {
		return nil, errors.New("at least one sink is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if _, err := transform.NewSnowflakeKeys(cfg.SongplayNode); err != nil {
		return nil, err
	}

	return &Pipeline{
		songs: &extractor[domain.SongRecord]{
			source:  src,
			parse:   parser.NewSongParser().Parse,
			workers: cfg.Workers,
			log:     log,
		},
		logs: &extractor[domain.LogEvent]{
			source:  src,
			parse:   parser.NewLogParser().Parse,
			workers: cfg.Workers,
			log:     log,
		},
		sinks:  sinks,
		config: cfg,
		log:    log,
	}, nil
}

// Run executes one full batch run. No sink is written unless every table was derived.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := p.log.With(zap.String("run_id", report.RunID))
	log.Info("Starting run",
		zap.String("song_prefix", p.config.SongPrefix),
		zap.String("log_prefix", p.config.LogPrefix),
		zap.Int("workers", p.config.Workers))

	// Stage 1: Extract both raw collections
	var (
		songRecords []domain.SongRecord
		logEvents   []domain.LogEvent
		songStats   InputStats
		logStats    InputStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		songRecords, songStats, err = p.songs.extract(gctx, InputSongs, p.config.SongPrefix)
		return err
	})
	g.Go(func() error {
		var err error
		logEvents, logStats, err = p.logs.extract(gctx, InputLogs, p.config.LogPrefix)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("Extraction failed", zap.Error(err))
		return nil, err
	}
	report.Inputs = []InputStats{songStats, logStats}

	// Stage 2: Derive every table
	schema, err := p.build(songRecords, logEvents, log)
	if err != nil {
		return nil, err
	}
	report.Tables = tableStats(schema, songStats, logStats)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before load: %w", err)
	}

	// Stage 3: Load. Every sink stages the schema, then all of them publish it.
	if err := p.load(ctx, schema, log); err != nil {
		return nil, err
	}
	for _, sink := range p.sinks {
		report.Sinks = append(report.Sinks, sink.Name())
	}

	report.FinishedAt = time.Now().UTC()
	log.Info("Run completed", zap.Duration("duration", report.Duration()))

	return report, nil
}

// load stages the schema in every sink and commits only when all of them staged it.
// A staging failure discards what the other sinks staged so no sink publishes a partial run.
func (p *Pipeline) load(ctx context.Context, schema *domain.StarSchema, log *zap.Logger) error {
	staged := make([]Staged, 0, len(p.sinks))
	discard := func(from int) {
		for i := from; i < len(staged); i++ {
			// Staged data is dropped even when the run context is already cancelled
			if err := staged[i].Discard(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to discard staged star schema",
					zap.String("sink", p.sinks[i].Name()),
					zap.Error(err))
			}
		}
	}

	for _, sink := range p.sinks {
		start := time.Now()
		st, err := sink.Stage(ctx, schema)
		if err != nil {
			log.Error("Failed to stage star schema",
				zap.String("sink", sink.Name()),
				zap.Error(err))
			discard(0)
			return fmt.Errorf("failed to write to %s sink: %w", sink.Name(), err)
		}
		staged = append(staged, st)
		log.Info("Star schema staged",
			zap.String("sink", sink.Name()),
			zap.Duration("elapsed", time.Since(start)))
	}

	for i, st := range staged {
		if err := st.Commit(ctx); err != nil {
			log.Error("Failed to commit star schema",
				zap.String("sink", p.sinks[i].Name()),
				zap.Int("committed_sinks", i),
				zap.Error(err))
			discard(i + 1)
			return fmt.Errorf("failed to commit to %s sink: %w", p.sinks[i].Name(), err)
		}
		log.Info("Star schema written", zap.String("sink", p.sinks[i].Name()))
	}
	return nil
}

// build derives the four dimensions and the fact table
func (p *Pipeline) build(songRecords []domain.SongRecord, logEvents []domain.LogEvent, log *zap.Logger) (*domain.StarSchema, error) {
	keys, err := transform.NewSnowflakeKeys(p.config.SongplayNode)
	if err != nil {
		return nil, err
	}

	songs := transform.BuildSongs(songRecords)
	log.Info("Built songs table", zap.Int("rows", len(songs)))

	artists := transform.BuildArtists(songRecords)
	log.Info("Built artists table", zap.Int("rows", len(artists)))

	plays := transform.FilterSongPlays(logEvents)
	log.Info("Filtered song plays",
		zap.Int("events", len(logEvents)),
		zap.Int("song_plays", len(plays)))

	users := transform.BuildUsers(plays)
	log.Info("Built users table", zap.Int("rows", len(users)))

	times := transform.BuildTime(plays)
	log.Info("Built time table", zap.Int("rows", len(times)))

	songplays := transform.BuildSongplays(plays, songRecords, times, keys)
	log.Info("Built songplays table", zap.Int("rows", len(songplays)))

	return domain.NewStarSchema(songs, artists, users, times, songplays), nil
}
