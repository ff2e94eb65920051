package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/config"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/queue"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/queue/sqs"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/sink/clickhouse"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/sink/parquet"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/source"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/source/local"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/source/s3"
)

// App holds the components shared by the batch and API entrypoints
type App struct {
	Pipeline  *pipeline.Pipeline
	Publisher queue.ReportPublisher
	// Triggers is set when a trigger queue is configured
	Triggers queue.QueueConsumer

	closers []func() error
	log     *zap.Logger
}

// New wires the source, sinks and optional SQS queues from configuration
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{log: log}

	src, err := newSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var sinks []pipeline.Sink
	for _, target := range cfg.SinkTargets() {
		sink, err := a.newSink(ctx, target, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	p, err := pipeline.NewPipeline(src, sinks, pipeline.Config{
		SongPrefix:   cfg.Source.SongPrefix,
		LogPrefix:    cfg.Source.LogPrefix,
		Workers:      cfg.Pipeline.Workers,
		SongplayNode: cfg.Pipeline.SongplayNode,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	a.Pipeline = p

	if cfg.SQS.QueueURL != "" || cfg.SQS.TriggerQueueURL != "" {
		client, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create SQS client: %w", err)
		}
		if cfg.SQS.QueueURL != "" {
			a.Publisher = client
		}
		if cfg.SQS.TriggerQueueURL != "" {
			a.Triggers = client
		}
	}

	return a, nil
}

// Close releases every connection opened by New
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceS3:
		client, err := s3.NewClient(ctx, cfg.Source, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 source: %w", err)
		}
		return client, nil
	case config.SourceLocal:
		return local.New(cfg.Source.LocalDir, log), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", cfg.Source.Kind)
	}
}

func (a *App) newSink(ctx context.Context, target string, cfg *config.Config, log *zap.Logger) (pipeline.Sink, error) {
	switch target {
	case config.SinkParquet:
		return parquet.NewSink(cfg.Sink.OutputDir, log), nil
	case config.SinkClickHouse:
		client, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)

		sink := clickhouse.NewSink(client, log)
		if err := sink.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unsupported sink target: %s", target)
	}
}
