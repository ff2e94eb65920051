package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

// ReportPublisher defines the interface for announcing completed runs on a queue
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *pipeline.Report) error
}

// QueueConsumer defines the interface for consuming run trigger messages from a queue
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
