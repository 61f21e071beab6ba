// Package dynamodb implements the key-value store collaborator: bounded
// batch writes of validated items, upsert-by-key on userId.
package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/dataloom-io/sheetsink/pkg/config"
	"github.com/dataloom-io/sheetsink/pkg/errors"
	"github.com/dataloom-io/sheetsink/pkg/importer"
)

// DynamoDBAPI is the subset of the DynamoDB client the writer needs.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *awsdynamodb.BatchWriteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error)
}

// Writer performs batch writes against one table. A single instance is
// shared across invocations; it holds no per-invocation state. Writes are
// puts keyed on userId, so replaying the same input overwrites rather than
// duplicates.
type Writer struct {
	client           DynamoDBAPI
	table            string
	resubmitAttempts int
	timeout          time.Duration
	logger           *zap.Logger
}

// NewWriter creates a writer for the configured table.
func NewWriter(client DynamoDBAPI, store config.StoreConfig, pipeline config.PipelineConfig, timeout time.Duration, logger *zap.Logger) (*Writer, error) {
	if store.Table == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "table name is required")
	}
	return &Writer{
		client:           client,
		table:            store.Table,
		resubmitAttempts: pipeline.ResubmitAttempts,
		timeout:          timeout,
		logger:           logger,
	}, nil
}

// Table returns the destination table name.
func (w *Writer) Table() string {
	return w.table
}

// WriteBatch writes one batch of at most MaxBatchSize items. The call either
// succeeds as a whole or returns an error; partially applied puts inside a
// failed call are not rolled back (at-least-once semantics).
//
// The service may accept a call yet return unprocessed items; those are
// resubmitted a bounded number of times within this call before the batch is
// declared failed.
func (w *Writer) WriteBatch(ctx context.Context, items []importer.WriteItem) error {
	if len(items) == 0 {
		return errors.New(errors.ErrorTypeValidation, "batch must not be empty")
	}
	if len(items) > config.MaxBatchSize {
		return errors.New(errors.ErrorTypeValidation, "batch exceeds maximum size").
			WithDetail("size", len(items)).
			WithDetail("max", config.MaxBatchSize)
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	requests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to marshal item").
				WithDetail("userId", item.UserID)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}

	pending := map[string][]types.WriteRequest{w.table: requests}

	for attempt := 0; ; attempt++ {
		out, err := w.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "batch write failed").
				WithDetail("table", w.table).
				WithDetail("size", len(items))
		}

		if len(out.UnprocessedItems) == 0 {
			return nil
		}

		if attempt >= w.resubmitAttempts {
			return errors.New(errors.ErrorTypeConnection, "unprocessed items remain after resubmission").
				WithDetail("table", w.table).
				WithDetail("remaining", len(out.UnprocessedItems[w.table]))
		}

		w.logger.Warn("resubmitting unprocessed items",
			zap.Int("remaining", len(out.UnprocessedItems[w.table])),
			zap.Int("attempt", attempt+1))
		pending = out.UnprocessedItems
	}
}
