package consumer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/service"
)

// MockRunTrigger is a mock implementation of RunTrigger
type MockRunTrigger struct {
	mock.Mock
}

func (m *MockRunTrigger) Trigger(ctx context.Context) (*pipeline.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Report), args.Error(1)
}

type ackCounter struct {
	acks  atomic.Int32
	nacks atomic.Int32
}

func (c *ackCounter) envelope(keys ...string) *Envelope {
	ack := func(ctx context.Context) error {
		c.acks.Add(1)
		return nil
	}
	nack := func(ctx context.Context) error {
		c.nacks.Add(1)
		return nil
	}
	return NewEnvelope(&Trigger{Source: TriggerSourceS3, Keys: keys}, ack, nack)
}

func TestRunStage_Start_BatchSizeThreshold(t *testing.T) {
	mockRunner := new(MockRunTrigger)
	counter := &ackCounter{}

	stage := NewRunStage(mockRunner, RunStageConfig{MaxBatchSize: 3, FlushTimeout: 10 * time.Second}, zap.NewNop())

	mockRunner.On("Trigger", mock.Anything).Return(&pipeline.Report{RunID: "run-1"}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go stage.Start(ctx, in)

	in <- counter.envelope("log_data/a.json")
	in <- counter.envelope("log_data/b.json")
	in <- counter.envelope("song_data/c.json")

	assert.Eventually(t, func() bool { return counter.acks.Load() == 3 }, time.Second, 10*time.Millisecond)
	mockRunner.AssertNumberOfCalls(t, "Trigger", 1)
}

func TestRunStage_Start_QuietPeriodFlush(t *testing.T) {
	mockRunner := new(MockRunTrigger)
	counter := &ackCounter{}

	stage := NewRunStage(mockRunner, RunStageConfig{MaxBatchSize: 10, FlushTimeout: 50 * time.Millisecond}, zap.NewNop())

	mockRunner.On("Trigger", mock.Anything).Return(&pipeline.Report{RunID: "run-1"}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go stage.Start(ctx, in)

	in <- counter.envelope("log_data/a.json")
	in <- counter.envelope("log_data/b.json")

	assert.Eventually(t, func() bool { return counter.acks.Load() == 2 }, time.Second, 10*time.Millisecond)
	mockRunner.AssertNumberOfCalls(t, "Trigger", 1)
}

func TestRunStage_Start_RunFailureNacks(t *testing.T) {
	mockRunner := new(MockRunTrigger)
	counter := &ackCounter{}

	stage := NewRunStage(mockRunner, RunStageConfig{MaxBatchSize: 2, FlushTimeout: 10 * time.Second}, zap.NewNop())

	mockRunner.On("Trigger", mock.Anything).Return(nil, errors.New("failed to write to clickhouse sink")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go stage.Start(ctx, in)

	in <- counter.envelope("log_data/a.json")
	in <- counter.envelope("log_data/b.json")

	assert.Eventually(t, func() bool { return counter.nacks.Load() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), counter.acks.Load())
}

func TestRunStage_Start_RunInProgressNacks(t *testing.T) {
	mockRunner := new(MockRunTrigger)
	counter := &ackCounter{}

	stage := NewRunStage(mockRunner, RunStageConfig{MaxBatchSize: 1, FlushTimeout: 10 * time.Second}, zap.NewNop())

	mockRunner.On("Trigger", mock.Anything).Return(nil, service.ErrRunInProgress).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 1)
	go stage.Start(ctx, in)

	in <- counter.envelope("log_data/a.json")

	assert.Eventually(t, func() bool { return counter.nacks.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRunStage_Start_FlushOnInputClose(t *testing.T) {
	mockRunner := new(MockRunTrigger)
	counter := &ackCounter{}

	stage := NewRunStage(mockRunner, RunStageConfig{MaxBatchSize: 10, FlushTimeout: 10 * time.Second}, zap.NewNop())

	mockRunner.On("Trigger", mock.Anything).Return(&pipeline.Report{RunID: "run-1"}, nil).Once()

	in := make(chan *Envelope, 1)
	in <- counter.envelope("song_data/a.json")
	close(in)

	stage.Start(context.Background(), in)

	assert.Equal(t, int32(1), counter.acks.Load())
	mockRunner.AssertExpectations(t)
}

func TestRunStage_Start_ShutdownLeavesPendingTriggers(t *testing.T) {
	mockRunner := new(MockRunTrigger)
	counter := &ackCounter{}

	stage := NewRunStage(mockRunner, RunStageConfig{MaxBatchSize: 10, FlushTimeout: 10 * time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan *Envelope, 1)
	done := make(chan struct{})
	go func() {
		stage.Start(ctx, in)
		close(done)
	}()

	in <- counter.envelope("song_data/a.json")
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run stage did not stop")
	}

	mockRunner.AssertNotCalled(t, "Trigger", mock.Anything)
	assert.Equal(t, int32(0), counter.acks.Load())
}
