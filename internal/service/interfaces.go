package service

import (
	"context"
	"time"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

// RunServicer defines the interface for run service operations
type RunServicer interface {
	Trigger(ctx context.Context) (*pipeline.Report, error)
	Latest() (*pipeline.Report, bool)
}

// Runner executes one batch run
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// RunRecorder records run outcomes
type RunRecorder interface {
	RecordRun(report *pipeline.Report, duration time.Duration, err error)
}
