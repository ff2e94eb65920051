package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/app"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/config"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/consumer"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/handler"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/logger"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/metrics"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/service"
)

func main() {
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

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize source, sinks and publisher
	components, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize ETL components", zap.Error(err))
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Error("Failed to close ETL components", zap.Error(err))
		}
	}()

	// Initialize run service
	runService := service.NewRunService(components.Pipeline, components.Publisher, metrics.Default(), log)

	// Start the trigger consumer when a trigger queue is configured
	consumerDone := make(chan struct{})
	if components.Triggers != nil {
		triggerConsumer := consumer.NewConsumer(cfg, components.Triggers, runService, log)
		go func() {
			defer close(consumerDone)
			log.Info("Trigger consumer starting",
				zap.String("queue_url", components.Triggers.QueueURL()))
			if err := triggerConsumer.Start(ctx); err != nil {
				log.Error("Trigger consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// Initialize handler
	h := handler.NewHandler(runService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}

	cancel()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("Trigger consumer did not stop before shutdown timeout")
	}
}
