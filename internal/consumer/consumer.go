package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/config"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/queue"
)

// Consumer orchestrates a pipeline of stages that turns SQS trigger messages into ETL runs
type Consumer struct {
	receiver *Receiver
	parser   *ParserStage
	runStage *RunStage
}

// NewConsumer creates a new trigger consumer
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, runner RunTrigger, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     cfg.Consumer.MaxMessages,
		WaitTimeSeconds: cfg.Consumer.WaitTimeSeconds,
		RetryDelay:      time.Second,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONTriggerParser(cfg.Source.SongPrefix, cfg.Source.LogPrefix), log)

	runStage := NewRunStage(runner, RunStageConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)

	return &Consumer{
		receiver: receiver,
		parser:   parser,
		runStage: runStage,
	}
}

// Start runs the consumer pipeline until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup

	wg.Add(3)

	// Stage 1: Receive messages from SQS
	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Parse messages into trigger envelopes
	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3: Coalesce triggers and run the pipeline
	go func() {
		defer wg.Done()
		c.runStage.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
