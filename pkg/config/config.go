// Package config provides the unified configuration for sheetsink.
// It defines a single Config structure shared by the CLI commands and the
// import pipeline, organized into logical sections:
//   - Source: the bucket the spreadsheets arrive in
//   - Store: the destination key-value table
//   - Pipeline: batching and validation behavior
//   - Queue: the notification queue polled by the listen command
//   - Timeouts: per-stage deadlines
//   - Observability: logging, metrics, tracing
//
// Example usage:
//
//	cfg := config.NewConfig()
//	cfg.Store.Table = "users"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

// MaxBatchSize is the hard cap on items per store write call.
// DynamoDB's BatchWriteItem rejects requests with more than 25 items.
const MaxBatchSize = 25

// Config is the top-level configuration structure for the importer.
type Config struct {
	// Source identifies the bucket objects are fetched from
	Source SourceConfig `yaml:"source" json:"source"`

	// Store identifies the destination table
	Store StoreConfig `yaml:"store" json:"store"`

	// Pipeline controls batching and validation behavior
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`

	// Queue configures the notification queue consumer
	Queue QueueConfig `yaml:"queue" json:"queue"`

	// Timeouts define per-stage deadlines
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// SourceConfig identifies the object storage bucket spreadsheets arrive in.
// The bucket itself is fixed at deployment; events carry the object key.
type SourceConfig struct {
	// Bucket restricts processing to events from this bucket ("" = any)
	Bucket string `yaml:"bucket" json:"bucket"`
	// Region is the AWS region of the bucket
	Region string `yaml:"region" json:"region"`
}

// StoreConfig identifies the destination key-value table.
type StoreConfig struct {
	// Table is the destination table name
	Table string `yaml:"table" json:"table"`
	// Region is the AWS region of the table
	Region string `yaml:"region" json:"region"`
	// Endpoint overrides the service endpoint (local testing)
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// PipelineConfig controls batching and write behavior.
type PipelineConfig struct {
	// BatchSize is the number of items per store write call (1..25)
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// ResubmitAttempts bounds resubmission of unprocessed items within
	// one batch write call
	ResubmitAttempts int `yaml:"resubmit_attempts" json:"resubmit_attempts"`
}

// QueueConfig configures the notification queue polled by the listen command.
type QueueConfig struct {
	// URL is the SQS queue URL ("" disables the listener)
	URL string `yaml:"url" json:"url"`
	// WaitTime is the long-poll duration per receive call
	WaitTime time.Duration `yaml:"wait_time" json:"wait_time"`
	// MaxMessages is the number of messages fetched per receive call
	MaxMessages int `yaml:"max_messages" json:"max_messages"`
}

// TimeoutConfig contains per-stage deadlines.
// The original host enforced a single invocation timeout; these bound each
// external call individually as well.
type TimeoutConfig struct {
	// Invocation caps one full pipeline run
	Invocation time.Duration `yaml:"invocation" json:"invocation"`
	// Fetch caps the object storage read
	Fetch time.Duration `yaml:"fetch" json:"fetch"`
	// Write caps a single batch write call
	Write time.Duration `yaml:"write" json:"write"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding selects the log format (json, console)
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics activates the Prometheus registry
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// MetricsAddr is the listen address for the /metrics endpoint
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// EnableTracing activates span export
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// NewConfig returns a Config populated with production defaults.
// The destination table has no safe default and must be set by the caller.
func NewConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Region: "us-east-1",
		},
		Store: StoreConfig{
			Region: "us-east-1",
		},
		Pipeline: PipelineConfig{
			BatchSize:        MaxBatchSize,
			ResubmitAttempts: 3,
		},
		Queue: QueueConfig{
			WaitTime:    20 * time.Second,
			MaxMessages: 10,
		},
		Timeouts: TimeoutConfig{
			Invocation: 5 * time.Minute,
			Fetch:      30 * time.Second,
			Write:      30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "json",
			EnableMetrics:     true,
			MetricsAddr:       ":9090",
			EnableTracing:     false,
			TracingSampleRate: 0.1,
		},
	}
}

// Validate validates the configuration for correctness.
// Callers should invoke this after loading configuration to catch errors early.
func (c *Config) Validate() error {
	if c.Store.Table == "" {
		return fmt.Errorf("store.table is required")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be positive")
	}
	if c.Pipeline.BatchSize > MaxBatchSize {
		return fmt.Errorf("pipeline.batch_size cannot exceed %d", MaxBatchSize)
	}
	if c.Pipeline.ResubmitAttempts < 0 {
		return fmt.Errorf("pipeline.resubmit_attempts cannot be negative")
	}
	if c.Queue.MaxMessages < 1 || c.Queue.MaxMessages > 10 {
		return fmt.Errorf("queue.max_messages must be between 1 and 10")
	}
	if c.Timeouts.Invocation <= 0 {
		return fmt.Errorf("timeouts.invocation must be positive")
	}
	return nil
}
