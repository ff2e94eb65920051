package consumer

import (
	"context"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

// MessageParser defines the interface for parsing raw message bytes into run triggers
type MessageParser interface {
	Parse(body []byte) (*Trigger, error)
}

// RunTrigger defines the interface for starting a pipeline run
type RunTrigger interface {
	Trigger(ctx context.Context) (*pipeline.Report, error)
}
