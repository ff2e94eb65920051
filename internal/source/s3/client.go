package s3

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	envConfig "github.com/anilkrishnach/DataEngineering-Spark/internal/config"
)

// ObjectAPI is the subset of the S3 API used by the source
type ObjectAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client reads raw files from an S3 bucket
type Client struct {
	api    ObjectAPI
	bucket string
	log    *zap.Logger
}

// NewClient creates a new S3 source client
func NewClient(ctx context.Context, sourceConfig envConfig.Source, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(sourceConfig.S3Region),
	}

	var clientOpts []func(*s3.Options)

	// Configure for local development with MinIO or LocalStack
	if sourceConfig.S3Endpoint != "" {
		log.Info("Configuring S3 for local development",
			zap.String("endpoint", sourceConfig.S3Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(sourceConfig.S3Endpoint)
			o.UsePathStyle = true
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("S3 source client created",
		zap.String("region", sourceConfig.S3Region),
		zap.String("bucket", sourceConfig.S3Bucket))

	return NewClientWithAPI(s3.NewFromConfig(cfg, clientOpts...), sourceConfig.S3Bucket, log), nil
}

// NewClientWithAPI creates a source over an existing S3 API implementation
func NewClientWithAPI(api ObjectAPI, bucket string, log *zap.Logger) *Client {
	return &Client{api: api, bucket: bucket, log: log}
}

// List returns the sorted keys of every .json object under prefix
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.log.Error("Failed to list S3 objects",
				zap.String("bucket", c.bucket),
				zap.String("prefix", prefix),
				zap.Error(err))
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", c.bucket, prefix, err)
		}
		pages++

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(strings.ToLower(key), ".json") {
				keys = append(keys, key)
			}
		}
	}

	sort.Strings(keys)

	c.log.Debug("Listed S3 objects",
		zap.String("bucket", c.bucket),
		zap.String("prefix", prefix),
		zap.Int("pages", pages),
		zap.Int("file_count", len(keys)))

	return keys, nil
}

// Open streams the object identified by key
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", c.bucket, key, err)
	}
	return out.Body, nil
}
