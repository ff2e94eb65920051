package consumer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/service"
)

// RunStageConfig configures the run stage
type RunStageConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// RunStage coalesces trigger envelopes and starts one pipeline run per batch
type RunStage struct {
	runner RunTrigger
	config RunStageConfig
	log    *zap.Logger
}

// NewRunStage creates a new run stage
func NewRunStage(runner RunTrigger, config RunStageConfig, log *zap.Logger) *RunStage {
	return &RunStage{
		runner: runner,
		config: config,
		log:    log,
	}
}

// Start begins collecting envelopes. A batch is flushed when it is full or when no
// trigger arrived for FlushTimeout, so a burst of uploads results in a single run.
func (s *RunStage) Start(ctx context.Context, in <-chan *Envelope) {
	timer := time.NewTimer(s.config.FlushTimeout)
	defer timer.Stop()

	batch := make([]*Envelope, 0, s.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Run stage shutting down", zap.Int("pending_triggers", len(batch)))
			return

		case envelope, ok := <-in:
			if !ok {
				s.log.Info("Run stage input channel closed")
				if len(batch) > 0 {
					s.processBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= s.config.MaxBatchSize {
				s.log.Info("Trigger batch size threshold reached", zap.Int("batch_size", len(batch)))
				s.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, s.config.MaxBatchSize)
			}
			resetTimer(timer, s.config.FlushTimeout)

		case <-timer.C:
			if len(batch) > 0 {
				s.log.Info("Trigger batch quiet period elapsed", zap.Int("trigger_count", len(batch)))
				s.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, s.config.MaxBatchSize)
			}
			timer.Reset(s.config.FlushTimeout)
		}
	}
}

// processBatch runs the pipeline once and settles every envelope of the batch
func (s *RunStage) processBatch(ctx context.Context, envelopes []*Envelope) {
	if len(envelopes) == 0 {
		return
	}

	var keys int
	for _, env := range envelopes {
		keys += len(env.Trigger.Keys)
	}

	report, err := s.runner.Trigger(ctx)
	if errors.Is(err, service.ErrRunInProgress) {
		s.log.Info("Run already in progress, triggers left for redelivery",
			zap.Int("trigger_count", len(envelopes)))
		s.nackAll(ctx, envelopes)
		return
	}
	if err != nil {
		s.log.Error("Triggered run failed",
			zap.Error(err),
			zap.Int("trigger_count", len(envelopes)))
		s.nackAll(ctx, envelopes)
		return
	}

	s.log.Info("Triggered run completed",
		zap.String("run_id", report.RunID),
		zap.Int("trigger_count", len(envelopes)),
		zap.Int("changed_keys", keys))
	s.ackAll(ctx, envelopes)
}

// ackAll acknowledges all envelopes (deletes from SQS)
func (s *RunStage) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			s.log.Error("Failed to ack envelope", zap.Error(err))
		}
	}
}

// nackAll negatively acknowledges all envelopes (leaves in SQS for retry)
func (s *RunStage) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			s.log.Error("Failed to nack envelope", zap.Error(err))
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
