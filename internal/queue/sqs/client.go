package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/anilkrishnach/DataEngineering-Spark/internal/config"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/domain"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

// API is the subset of the SQS API used by the client
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Client represents an SQS client. Run reports go to the report queue,
// run triggers are consumed from the trigger queue.
type Client struct {
	client API
	config envConfig.SQS
	log    *zap.Logger
}

// NewClient creates a new SQS client
func NewClient(ctx context.Context, SQSConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(SQSConfig.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if SQSConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", SQSConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(SQSConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS client created",
		zap.String("region", SQSConfig.Region),
		zap.String("report_queue_url", SQSConfig.QueueURL),
		zap.String("trigger_queue_url", SQSConfig.TriggerQueueURL))

	return NewClientWithAPI(sqs.NewFromConfig(cfg, clientOpts...), SQSConfig, log), nil
}

// NewClientWithAPI creates a client over an existing SQS API implementation
func NewClientWithAPI(api API, SQSConfig envConfig.SQS, log *zap.Logger) *Client {
	return &Client{client: api, config: SQSConfig, log: log}
}

// ReceiveMessages receives messages from the trigger queue
func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.client.ReceiveMessage(ctx, input)
}

// DeleteMessage deletes a message from the trigger queue
func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.client.DeleteMessage(ctx, input)
}

// QueueURL returns the configured trigger queue URL
func (c *Client) QueueURL() string {
	return c.config.TriggerQueueURL
}

// PublishReport publishes a run report to the report queue
func (c *Client) PublishReport(ctx context.Context, report *pipeline.Report) error {
	if c.config.QueueURL == "" {
		return nil
	}

	bodyJSON, err := json.Marshal(report)
	if err != nil {
		c.log.Error("Failed to marshal run report",
			zap.String("run_id", report.RunID),
			zap.Error(err))
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	var songplays int
	if t, ok := report.Table(domain.TableSongplays); ok {
		songplays = t.Rows
	}

	_, err = c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.config.QueueURL),
		MessageBody: aws.String(string(bodyJSON)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"RunID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(report.RunID),
			},
			"Songplays": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(songplays)),
			},
		},
	})
	if err != nil {
		c.log.Error("Failed to send run report to SQS",
			zap.String("run_id", report.RunID),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Info("Run report published to SQS",
		zap.String("run_id", report.RunID))

	return nil
}
