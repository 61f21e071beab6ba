package trigger

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataloom-io/sheetsink/pkg/config"
	"github.com/dataloom-io/sheetsink/pkg/errors"
	"github.com/dataloom-io/sheetsink/pkg/testutil"
)

// fakeSQS serves one scripted batch of messages, then cancels the consumer's
// context so Run returns.
type fakeSQS struct {
	messages []types.Message
	cancel   context.CancelFunc

	received int
	deleted  []string
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.received++
	if f.received > 1 {
		f.cancel()
		return &sqs.ReceiveMessageOutput{}, nil
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func queueConfig() config.QueueConfig {
	cfg := config.NewConfig().Queue
	cfg.URL = "https://sqs.us-east-1.amazonaws.com/123456789012/uploads"
	return cfg
}

func notificationBody() string {
	return `{"Records":[{"s3":{"bucket":{"name":"uploads"},"object":{"key":"users.xlsx"}}}]}`
}

func TestNewConsumerRequiresQueueURL(t *testing.T) {
	_, err := NewConsumer(&fakeSQS{}, config.QueueConfig{}, testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRunDispatchesAndDeletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		cancel: cancel,
		messages: []types.Message{
			{Body: aws.String(notificationBody()), ReceiptHandle: aws.String("rh-1")},
		},
	}
	c, err := NewConsumer(client, queueConfig(), testutil.TestLogger(t))
	require.NoError(t, err)

	var handled []*Event
	err = c.Run(ctx, func(_ context.Context, event *Event) {
		handled = append(handled, event)
	})
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, handled, 1)
	ref, err := handled[0].First()
	require.NoError(t, err)
	assert.Equal(t, "uploads", ref.Bucket)
	assert.Equal(t, "users.xlsx", ref.Key)

	assert.Equal(t, []string{"rh-1"}, client.deleted)
}

func TestRunDeletesUndecodableMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		cancel: cancel,
		messages: []types.Message{
			{Body: aws.String("not json"), ReceiptHandle: aws.String("rh-bad")},
		},
	}
	c, err := NewConsumer(client, queueConfig(), testutil.TestLogger(t))
	require.NoError(t, err)

	handled := 0
	_ = c.Run(ctx, func(context.Context, *Event) { handled++ })

	// The handler never runs, but the message is still removed: a body
	// that cannot decode today will not decode on redelivery either.
	assert.Zero(t, handled)
	assert.Equal(t, []string{"rh-bad"}, client.deleted)
}

func TestRunProcessesWholeBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		cancel: cancel,
		messages: []types.Message{
			{Body: aws.String(notificationBody()), ReceiptHandle: aws.String("rh-1")},
			{Body: aws.String(notificationBody()), ReceiptHandle: aws.String("rh-2")},
		},
	}
	c, err := NewConsumer(client, queueConfig(), testutil.TestLogger(t))
	require.NoError(t, err)

	_ = c.Run(ctx, func(context.Context, *Event) {})

	assert.Equal(t, []string{"rh-1", "rh-2"}, client.deleted)
}
