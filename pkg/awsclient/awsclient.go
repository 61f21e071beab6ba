// Package awsclient builds the process-wide AWS service clients. Clients are
// constructed once and reused across invocations; their lifetime is tied to
// the hosting process, not the individual import run.
package awsclient

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/dataloom-io/sheetsink/pkg/errors"
)

var (
	mu      sync.Mutex
	configs = map[string]aws.Config{}
)

// Config loads the shared AWS configuration for a region, caching it for
// reuse. Credentials come from the default provider chain.
func Config(ctx context.Context, region string) (aws.Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if cfg, ok := configs[region]; ok {
		return cfg, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
	}

	configs[region] = cfg
	return cfg, nil
}

// NewS3 creates an S3 client for the given region.
func NewS3(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := Config(ctx, region)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// NewDynamoDB creates a DynamoDB client for the given region. A non-empty
// endpoint overrides the service endpoint, which local test stacks rely on.
func NewDynamoDB(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := Config(ctx, region)
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}), nil
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// NewSQS creates an SQS client for the given region.
func NewSQS(ctx context.Context, region string) (*sqs.Client, error) {
	cfg, err := Config(ctx, region)
	if err != nil {
		return nil, err
	}
	return sqs.NewFromConfig(cfg), nil
}
