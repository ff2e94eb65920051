package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/app"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/config"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/logger"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/metrics"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting ETL run",
		zap.String("environment", cfg.Service.Environment),
		zap.String("source", cfg.Source.Kind),
		zap.Strings("sinks", cfg.SinkTargets()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize source, sinks and publisher
	components, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize ETL components", zap.Error(err))
	}

	runService := service.NewRunService(components.Pipeline, components.Publisher, metrics.Default(), log)

	report, err := runService.Trigger(ctx)
	if closeErr := components.Close(); closeErr != nil {
		log.Error("Failed to close ETL components", zap.Error(closeErr))
	}
	if err != nil {
		log.Error("ETL run failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	for _, table := range report.Tables {
		log.Info("Table summary",
			zap.String("table", table.Name),
			zap.Int("rows", table.Rows),
			zap.Int("skipped", table.Skipped))
	}

	log.Info("ETL run finished",
		zap.String("run_id", report.RunID),
		zap.Duration("duration", report.Duration()))
}
