package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Sink target names
const (
	SinkParquet    = "parquet"
	SinkClickHouse = "clickhouse"
)

// Source kinds
const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Source     Source     `envconfig:"SOURCE"`
	Pipeline   Pipeline   `envconfig:"PIPELINE"`
	Sink       Sink       `envconfig:"SINK"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	SQS        SQS        `envconfig:"SQS"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
}

type Service struct {
	Environment string `envconfig:"ENVIRONMENT" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`
}

type Source struct {
	Kind       string `envconfig:"KIND" default:"local"`
	LocalDir   string `envconfig:"LOCAL_DIR" default:"data"`
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Region   string `envconfig:"S3_REGION" default:"us-west-2"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	SongPrefix string `envconfig:"SONG_PREFIX" default:"song_data/"`
	LogPrefix  string `envconfig:"LOG_PREFIX" default:"log_data/"`
}

type Pipeline struct {
	Workers      int   `envconfig:"WORKERS" default:"4"`
	SongplayNode int64 `envconfig:"SONGPLAY_NODE" default:"1"`
}

type Sink struct {
	Targets   []string `envconfig:"TARGETS" default:"parquet"`
	OutputDir string   `envconfig:"OUTPUT_DIR" default:"output"`
}

type ClickHouse struct {
	Host            string `envconfig:"HOST" default:"localhost"`
	Port            string `envconfig:"PORT" default:"9000"`
	Database        string `envconfig:"DB" default:"sparkify"`
	User            string `envconfig:"USER" default:"default"`
	Password        string `envconfig:"PASSWORD" default:""`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type SQS struct {
	QueueURL        string `envconfig:"QUEUE_URL"`
	TriggerQueueURL string `envconfig:"TRIGGER_QUEUE_URL"`
	Region          string `envconfig:"REGION" default:"us-west-2"`
	Endpoint        string `envconfig:"ENDPOINT"`
}

type Consumer struct {
	MaxMessages     int32 `envconfig:"MAX_MESSAGES" default:"10"`
	WaitTimeSeconds int32 `envconfig:"WAIT_TIME_SEC" default:"20"`
	BatchSizeMax    int   `envconfig:"BATCH_SIZE_MAX" default:"100"`
	BatchTimeoutSec int   `envconfig:"BATCH_TIMEOUT_SEC" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings that depend on each other
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceLocal:
		if c.Source.LocalDir == "" {
			return errors.New("SOURCE_LOCAL_DIR is required for local source")
		}
	case SourceS3:
		if c.Source.S3Bucket == "" {
			return errors.New("SOURCE_S3_BUCKET is required for s3 source")
		}
	default:
		return fmt.Errorf("unsupported source kind: %s (supported: local, s3)", c.Source.Kind)
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1, got %d", c.Pipeline.Workers)
	}

	targets := c.SinkTargets()
	if len(targets) == 0 {
		return errors.New("SINK_TARGETS must name at least one sink")
	}
	for _, target := range targets {
		switch target {
		case SinkParquet:
			if c.Sink.OutputDir == "" {
				return errors.New("SINK_OUTPUT_DIR is required for parquet sink")
			}
		case SinkClickHouse:
			if c.ClickHouse.Host == "" || c.ClickHouse.Database == "" {
				return errors.New("CLICKHOUSE_HOST and CLICKHOUSE_DB are required for clickhouse sink")
			}
		default:
			return fmt.Errorf("unsupported sink target: %s (supported: parquet, clickhouse)", target)
		}
	}

	if c.SQS.TriggerQueueURL != "" {
		if c.Consumer.MaxMessages < 1 || c.Consumer.MaxMessages > 10 {
			return fmt.Errorf("CONSUMER_MAX_MESSAGES must be between 1 and 10, got %d", c.Consumer.MaxMessages)
		}
		if c.Consumer.BatchSizeMax < 1 || c.Consumer.BatchTimeoutSec < 1 {
			return errors.New("CONSUMER_BATCH_SIZE_MAX and CONSUMER_BATCH_TIMEOUT_SEC must be positive")
		}
	}

	return nil
}

// SinkTargets returns the normalized, de-duplicated sink target names
func (c *Config) SinkTargets() []string {
	seen := make(map[string]bool, len(c.Sink.Targets))
	var targets []string
	for _, target := range c.Sink.Targets {
		target = strings.ToLower(strings.TrimSpace(target))
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets
}
