package dynamodb

import (
	"context"
	"fmt"
	"testing"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataloom-io/sheetsink/pkg/config"
	"github.com/dataloom-io/sheetsink/pkg/errors"
	"github.com/dataloom-io/sheetsink/pkg/importer"
	"github.com/dataloom-io/sheetsink/pkg/testutil"
)

// fakeDynamoDB scripts BatchWriteItem responses call by call and records the
// request items it saw.
type fakeDynamoDB struct {
	calls       []*awsdynamodb.BatchWriteItemInput
	unprocessed []int // per call: how many requests to return unprocessed
	err         error
}

func (f *fakeDynamoDB) BatchWriteItem(_ context.Context, in *awsdynamodb.BatchWriteItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}

	out := &awsdynamodb.BatchWriteItemOutput{}
	call := len(f.calls) - 1
	if call < len(f.unprocessed) && f.unprocessed[call] > 0 {
		for table, requests := range in.RequestItems {
			n := f.unprocessed[call]
			if n > len(requests) {
				n = len(requests)
			}
			out.UnprocessedItems = map[string][]types.WriteRequest{
				table: requests[:n],
			}
		}
	}
	return out, nil
}

func newTestWriter(t *testing.T, client DynamoDBAPI, resubmits int) *Writer {
	t.Helper()
	w, err := NewWriter(client,
		config.StoreConfig{Table: "users"},
		config.PipelineConfig{BatchSize: config.MaxBatchSize, ResubmitAttempts: resubmits},
		0, testutil.TestLogger(t))
	require.NoError(t, err)
	return w
}

func makeItems(n int) []importer.WriteItem {
	items := make([]importer.WriteItem, n)
	for i := range items {
		items[i] = importer.WriteItem{
			UserID: fmt.Sprintf("u-%d", i),
			Name:   fmt.Sprintf("User %d", i),
			Email:  fmt.Sprintf("user%d@example.com", i),
		}
	}
	return items
}

func TestNewWriterRequiresTable(t *testing.T) {
	_, err := NewWriter(&fakeDynamoDB{}, config.StoreConfig{}, config.PipelineConfig{}, 0, testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestWriteBatchSingleCall(t *testing.T) {
	client := &fakeDynamoDB{}
	w := newTestWriter(t, client, 2)

	err := w.WriteBatch(context.Background(), makeItems(3))
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	requests := client.calls[0].RequestItems["users"]
	require.Len(t, requests, 3)

	// Items go up as puts keyed on userId.
	put := requests[0].PutRequest
	require.NotNil(t, put)
	id, ok := put.Item["userId"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "u-0", id.Value)
}

func TestWriteBatchOmitsEmptyProfileImage(t *testing.T) {
	client := &fakeDynamoDB{}
	w := newTestWriter(t, client, 0)

	items := makeItems(1)
	require.NoError(t, w.WriteBatch(context.Background(), items))

	item := client.calls[0].RequestItems["users"][0].PutRequest.Item
	_, present := item["profileImageUrl"]
	assert.False(t, present)
}

func TestWriteBatchResubmitsUnprocessedItems(t *testing.T) {
	client := &fakeDynamoDB{unprocessed: []int{2, 1, 0}}
	w := newTestWriter(t, client, 3)

	err := w.WriteBatch(context.Background(), makeItems(5))
	require.NoError(t, err)

	// 5 sent, 2 bounced, then 1, then clean.
	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].RequestItems["users"], 5)
	assert.Len(t, client.calls[1].RequestItems["users"], 2)
	assert.Len(t, client.calls[2].RequestItems["users"], 1)
}

func TestWriteBatchResubmissionExhausted(t *testing.T) {
	client := &fakeDynamoDB{unprocessed: []int{1, 1, 1, 1}}
	w := newTestWriter(t, client, 2)

	err := w.WriteBatch(context.Background(), makeItems(2))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))

	// Initial call plus two resubmissions, then give up.
	assert.Len(t, client.calls, 3)
}

func TestWriteBatchServiceError(t *testing.T) {
	client := &fakeDynamoDB{err: fmt.Errorf("throughput exceeded")}
	w := newTestWriter(t, client, 2)

	err := w.WriteBatch(context.Background(), makeItems(2))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Len(t, client.calls, 1)
}

func TestWriteBatchRejectsEmptyBatch(t *testing.T) {
	client := &fakeDynamoDB{}
	w := newTestWriter(t, client, 0)

	err := w.WriteBatch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Empty(t, client.calls)
}

func TestWriteBatchRejectsOversizedBatch(t *testing.T) {
	client := &fakeDynamoDB{}
	w := newTestWriter(t, client, 0)

	err := w.WriteBatch(context.Background(), makeItems(config.MaxBatchSize+1))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Empty(t, client.calls)
}
