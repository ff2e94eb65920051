package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/queue"
)

// ErrRunInProgress is returned when a run is triggered while another one is still active
var ErrRunInProgress = errors.New("run already in progress")

// RunService serializes pipeline runs and keeps the latest successful report
type RunService struct {
	runner    Runner
	publisher queue.ReportPublisher
	recorder  RunRecorder
	log       *zap.Logger

	running atomic.Bool
	mu      sync.RWMutex
	latest  *pipeline.Report
}

// NewRunService creates a new run service. publisher and recorder are optional.
func NewRunService(runner Runner, publisher queue.ReportPublisher, recorder RunRecorder, log *zap.Logger) *RunService {
	return &RunService{
		runner:    runner,
		publisher: publisher,
		recorder:  recorder,
		log:       log,
	}
}

// Trigger runs the pipeline once. A notification failure is logged and does not fail the run.
func (s *RunService) Trigger(ctx context.Context) (*pipeline.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("Run rejected: another run is in progress")
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	report, err := s.runner.Run(ctx)
	if s.recorder != nil {
		s.recorder.RecordRun(report, time.Since(start), err)
	}
	if err != nil {
		s.log.Error("Run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			s.log.Warn("Failed to publish run report",
				zap.String("run_id", report.RunID),
				zap.Error(err))
		}
	}

	return report, nil
}

// Latest returns the report of the last successful run
func (s *RunService) Latest() (*pipeline.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}
