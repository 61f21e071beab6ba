// Package s3 implements the object storage collaborator: a single
// whole-object read per invocation.
package s3

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/dataloom-io/sheetsink/pkg/errors"
)

// S3API is the subset of the S3 client the fetcher needs.
type S3API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Fetcher reads whole objects from a bucket. One instance is shared across
// invocations; it holds no per-invocation state.
type Fetcher struct {
	client  S3API
	timeout time.Duration
	logger  *zap.Logger
}

// NewFetcher creates a fetcher around an S3 client. A zero timeout disables
// the per-fetch deadline.
func NewFetcher(client S3API, timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch reads the entire object into memory. There are no range reads and no
// resumption; the file either arrives whole or the invocation fails.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := f.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to fetch object").
			WithDetail("bucket", bucket).
			WithDetail("key", key)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read object body").
			WithDetail("bucket", bucket).
			WithDetail("key", key)
	}

	f.logger.Debug("object fetched",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))

	return data, nil
}
