package trigger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/dataloom-io/sheetsink/pkg/config"
	"github.com/dataloom-io/sheetsink/pkg/errors"
)

// SQSAPI is the subset of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one notification event. Each call is an isolated
// invocation; the consumer never inspects the outcome.
type Handler func(ctx context.Context, event *Event)

// Consumer polls a queue for object-created notification envelopes and hands
// each one to a handler. A message is deleted after its handler returns,
// regardless of outcome: the pipeline never signals failure back to its
// invoking infrastructure, so there is no redelivery.
type Consumer struct {
	client   SQSAPI
	queueURL string
	cfg      config.QueueConfig
	logger   *zap.Logger
}

// NewConsumer creates a queue consumer. The queue URL must be set in cfg.
func NewConsumer(client SQSAPI, cfg config.QueueConfig, logger *zap.Logger) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "queue URL is required")
	}
	return &Consumer{
		client:   client,
		queueURL: cfg.URL,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Run polls the queue until the context is cancelled. Receive errors are
// logged and polling continues; a cancelled context is the only way out.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.logger.Info("queue consumer started", zap.String("queue_url", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("queue consumer stopped")
			return ctx.Err()
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: int32(c.cfg.MaxMessages),
			WaitTimeSeconds:     int32(c.cfg.WaitTime.Seconds()),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to receive messages", zap.Error(err))
			continue
		}

		for _, msg := range out.Messages {
			c.dispatch(ctx, aws.ToString(msg.Body), aws.ToString(msg.ReceiptHandle), handler)
		}
	}
}

// dispatch decodes one message body and runs the handler. Undecodable
// bodies are logged and dropped; they would never become processable.
func (c *Consumer) dispatch(ctx context.Context, body, receiptHandle string, handler Handler) {
	defer c.delete(ctx, receiptHandle)

	event, err := ParseEvent([]byte(body))
	if err != nil {
		c.logger.Error("discarding undecodable notification", zap.Error(err))
		return
	}

	handler(ctx, event)
}

func (c *Consumer) delete(ctx context.Context, receiptHandle string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		c.logger.Warn("failed to delete message", zap.Error(err))
	}
}
